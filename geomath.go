package net2otm

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

const (
	twoPi = 2 * math.Pi
	// Half of the EPSG:3857 world width
	earthR = 20037508.34
	// Distance from the node at which movement geometry starts and ends (in units of the network coordinates)
	indentationThreshold = 8.0
)

// normalizeAngle maps given angle (radians) onto [0, 2π)
func normalizeAngle(angle float64) float64 {
	angle = math.Mod(angle, twoPi)
	if angle < 0 {
		angle += twoPi
	}
	if angle >= twoPi {
		return 0
	}
	return angle
}

// angularDistance returns the smallest absolute difference between two angles (radians), always in [0, π]
func angularDistance(a, b float64) float64 {
	diff := math.Abs(normalizeAngle(a) - normalizeAngle(b))
	if diff > math.Pi {
		diff = twoPi - diff
	}
	return diff
}

// bearingBetween returns direction of travel from p to q measured counter-clockwise from +X axis. Result is in [0, 2π)
func bearingBetween(p, q orb.Point) float64 {
	return normalizeAngle(math.Atan2(q.Y()-p.Y(), q.X()-p.X()))
}

// pointAtDistanceAlongLine returns point placed on given distance from the start of the line (planar coordinates)
//
// Note: distance is clamped to [0, length of the line]
//
func pointAtDistanceAlongLine(line orb.LineString, distance float64) orb.Point {
	if len(line) == 0 {
		return orb.Point{}
	}
	if distance <= 0 {
		return line[0]
	}
	travelled := 0.0
	for i := 1; i < len(line); i++ {
		segment := planar.Distance(line[i-1], line[i])
		if segment > 0 && travelled+segment >= distance {
			fraction := (distance - travelled) / segment
			return pointOnSegmentByFraction(line[i-1], line[i], fraction)
		}
		travelled += segment
	}
	return line[len(line)-1]
}

// pointOnSegmentByFraction returns a point on given segment
func pointOnSegmentByFraction(p, q orb.Point, fraction float64) orb.Point {
	return orb.Point{
		(1-fraction)*p.X() + fraction*q.X(),
		(1-fraction)*p.Y() + fraction*q.Y(),
	}
}

// movementGeomBetweenLines returns movement geometry for given pair of incoming and outcoming lines
//
// Note: panics if number of points in any line is less than 2
//
func movementGeomBetweenLines(l1 orb.LineString, l2 orb.LineString) orb.LineString {
	indent1 := indentationThreshold
	length1 := planar.Length(l1)
	if length1 <= indent1 {
		indent1 = length1 / 2.0
	}
	point1 := pointAtDistanceAlongLine(l1, length1-indent1) // Indent from link end

	indent2 := indentationThreshold
	length2 := planar.Length(l2)
	if length2 <= indent2 {
		indent2 = length2 / 2.0
	}
	point2 := pointAtDistanceAlongLine(l2, indent2)
	return orb.LineString{point1, point2}
}

// epsg4326To3857 projects longitude/latitude (degrees) onto Web Mercator plane (meters)
func epsg4326To3857(lon, lat float64) (float64, float64) {
	x := lon * earthR / 180
	y := math.Log(math.Tan((90+lat)*math.Pi/360)) / (math.Pi / 180)
	y = y * earthR / 180
	return x, y
}
