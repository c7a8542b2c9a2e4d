// Package scene assembles one consistent "scene at time T" description
// for the 3D viewer by combining four upstream ephemeris queries and
// running every raw result through the frame transform exactly once.
// A scene missing one body is useless to the viewer, so any sub-query
// failure fails the whole snapshot; partial scenes are never returned.
package scene

import (
	"context"
	"fmt"

	"moontrek-server/pkg/frame"
)

// Fixed body wiring for the viewer scene.  The pairs are configuration,
// not user input: positions are referenced to Earth and the Moon's
// rotation is taken against the Sun.
const (
	positionReference = "earth"
	rotationReference = "sun"
	bodySun           = "sun"
	bodyMoon          = "moon"
)

// Querier is the slice of the ephemeris client the aggregator needs.
// Tests substitute stubs; production wires *ephemeris.Client.
type Querier interface {
	ObserverPosition(ctx context.Context, lon, lat float64, timestamp string) (frame.Vec3, error)
	BodyPosition(ctx context.Context, reference, target, timestamp string) (frame.Vec3, error)
	BodyRotation(ctx context.Context, reference, target, timestamp string) (frame.Rotation, error)
}

// Moon carries the moon's position with its rotation fields merged in,
// matching the shape the viewer consumes.
type Moon struct {
	X     float64    `json:"x"`
	Y     float64    `json:"y"`
	Z     float64    `json:"z"`
	Axis  [3]float64 `json:"rotation_axis"`
	Angle float64    `json:"angle"`
}

// Snapshot is the combined scene response.  Created fresh per request and
// never cached: the upstream provider gives no consistency guarantee
// across sub-queries, so reusing one body across timestamps would be
// silently wrong.
type Snapshot struct {
	Person frame.Vec3 `json:"person"`
	Sun    frame.Vec3 `json:"sun"`
	Moon   Moon       `json:"moon"`
}

// AggregationError wraps the first sub-query failure of a snapshot.
type AggregationError struct {
	Err error
}

func (e *AggregationError) Error() string {
	return fmt.Sprintf("scene aggregation: %v", e.Err)
}

func (e *AggregationError) Unwrap() error { return e.Err }

// Aggregator answers scene requests against one upstream querier.
type Aggregator struct {
	Upstream Querier
}

// New wires an aggregator to its upstream.
func New(upstream Querier) *Aggregator {
	return &Aggregator{Upstream: upstream}
}

// part identifies which sub-query produced a result.
type part int

const (
	partPerson part = iota
	partSun
	partMoonPos
	partMoonRot
)

// result travels from one sub-query goroutine back to the collector.
type result struct {
	part part
	pos  frame.Vec3
	rot  frame.Rotation
	err  error
}

// Snapshot runs the four sub-queries concurrently and merges their
// transformed results.  The first error aborts the merge immediately;
// the buffered channel lets the remaining in-flight queries finish on
// their own and be discarded, so no goroutine ever blocks on a send.
func (a *Aggregator) Snapshot(ctx context.Context, lon, lat float64, timestamp string) (Snapshot, error) {
	results := make(chan result, 4)

	go func() {
		v, err := a.Upstream.ObserverPosition(ctx, lon, lat, timestamp)
		results <- result{part: partPerson, pos: v.ToViewer(), err: err}
	}()
	go func() {
		v, err := a.Upstream.BodyPosition(ctx, positionReference, bodySun, timestamp)
		results <- result{part: partSun, pos: v.ToViewer(), err: err}
	}()
	go func() {
		v, err := a.Upstream.BodyPosition(ctx, positionReference, bodyMoon, timestamp)
		results <- result{part: partMoonPos, pos: v.ToViewer(), err: err}
	}()
	go func() {
		r, err := a.Upstream.BodyRotation(ctx, rotationReference, bodyMoon, timestamp)
		results <- result{part: partMoonRot, rot: r.ToViewer(), err: err}
	}()

	var snap Snapshot
	for i := 0; i < 4; i++ {
		res := <-results
		if res.err != nil {
			return Snapshot{}, &AggregationError{Err: res.err}
		}
		switch res.part {
		case partPerson:
			snap.Person = res.pos
		case partSun:
			snap.Sun = res.pos
		case partMoonPos:
			snap.Moon.X = res.pos.X
			snap.Moon.Y = res.pos.Y
			snap.Moon.Z = res.pos.Z
		case partMoonRot:
			snap.Moon.Axis = res.rot.Axis
			snap.Moon.Angle = res.rot.Angle
		}
	}
	return snap, nil
}
