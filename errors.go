package net2otm

import (
	"github.com/pkg/errors"
)

var (
	// ErrMalformedGraph is returned when a node or a link misses a required attribute or carries an invalid value
	ErrMalformedGraph = errors.New("malformed graph")
	// ErrUnsupportedTopology marks movements at intersections which are not aligned to the cardinal directions
	ErrUnsupportedTopology = errors.New("unsupported topology")
	// ErrInvalidConfig is returned by Config.Validate
	ErrInvalidConfig = errors.New("invalid configuration")
)

func malformedNode(id int64, format string, args ...interface{}) error {
	return errors.Wrapf(ErrMalformedGraph, "node %d: "+format, append([]interface{}{id}, args...)...)
}

func malformedLink(id int, format string, args ...interface{}) error {
	return errors.Wrapf(ErrMalformedGraph, "link %d: "+format, append([]interface{}{id}, args...)...)
}
