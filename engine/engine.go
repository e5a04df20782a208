// Package engine is a narrow synchronous client of the external traffic simulation engine.
//
// The engine loads a scenario document, runs it over a time range and answers queries about per-link time series.
// Everything behind Engine and Session (process boundary, transport, flow model) belongs to the engine.
package engine

import (
	"context"

	"github.com/pkg/errors"
)

var (
	// ErrClosed is returned by operations on a closed session
	ErrClosed = errors.New("session is closed")
)

// LinkSeries maps link identifier (as string) to values sampled once per sampling interval
type LinkSeries map[string][]float64

// Engine loads scenario documents
type Engine interface {
	// Load must be called before any other operation. When validate is true the engine checks the document before loading it
	Load(ctx context.Context, documentPath string, validate bool) (Session, error)
}

// Session is a loaded scenario
type Session interface {
	// RequestLinkOutputs asks engine to record vehicles and flows of every link with the given sampling interval (seconds)
	RequestLinkOutputs(ctx context.Context, sampleDt float64) error
	// Run simulates [start, end). It blocks for the whole simulation
	Run(ctx context.Context, start, end float64) error
	LinkVehicles(ctx context.Context) (LinkSeries, error)
	LinkFlows(ctx context.Context) (LinkSeries, error)
	// InsertActuatorSchedule replaces stage durations (seconds) of the pretimed signal actuator
	InsertActuatorSchedule(ctx context.Context, actuatorID int, stageDurations []float64) error
	Close(ctx context.Context) error
}
