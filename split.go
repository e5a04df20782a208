package net2otm

import (
	"fmt"
	"math"

	"github.com/samber/lo"
)

const splitTolerance = 1e-9

type CommodityID int

type SplitRatio struct {
	LinkOut NetworkLinkID
	Ratio   float64
}

// Split is the default allocation of flow from one incoming link across its legal outcoming links
type Split struct {
	Ratios      []SplitRatio
	NodeID      NetworkNodeID
	CommodityID CommodityID
	LinkIn      NetworkLinkID
}

// Sum returns total of ratios
func (split *Split) Sum() float64 {
	return lo.SumBy(split.Ratios, func(r SplitRatio) float64 { return r.Ratio })
}

// genSplits builds uniform splits for the node movements. Movements must be ordered by incoming link and then by outcoming link.
// Incoming links without movements get no split
func genSplits(nodeID NetworkNodeID, movements []*Movement, commodities []CommodityID) []*Split {
	if len(movements) == 0 {
		return nil
	}
	outcoming := make(map[NetworkLinkID][]NetworkLinkID)
	incomingOrder := make([]NetworkLinkID, 0)
	for _, mvmt := range movements {
		if _, ok := outcoming[mvmt.IncomingLinkID]; !ok {
			incomingOrder = append(incomingOrder, mvmt.IncomingLinkID)
		}
		outcoming[mvmt.IncomingLinkID] = append(outcoming[mvmt.IncomingLinkID], mvmt.OutcomingLinkID)
	}
	splits := make([]*Split, 0, len(incomingOrder)*len(commodities))
	for _, commodityID := range commodities {
		for _, linkIn := range incomingOrder {
			linksOut := lo.Uniq(outcoming[linkIn])
			ratio := 1.0 / float64(len(linksOut))
			split := &Split{
				Ratios:      make([]SplitRatio, 0, len(linksOut)),
				NodeID:      nodeID,
				CommodityID: commodityID,
				LinkIn:      linkIn,
			}
			for _, linkOut := range linksOut {
				split.Ratios = append(split.Ratios, SplitRatio{LinkOut: linkOut, Ratio: ratio})
			}
			if sum := split.Sum(); math.Abs(sum-1.0) > splitTolerance {
				panic(fmt.Sprintf("inconsistent split at node %d for link %d: ratios sum to %v", nodeID, linkIn, sum))
			}
			splits = append(splits, split)
		}
	}
	return splits
}
