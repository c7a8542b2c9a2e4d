package scene

import (
	"context"
	"errors"
	"testing"

	"moontrek-server/pkg/frame"
)

// stubQuerier returns canned vectors, with one optional failing part.
type stubQuerier struct {
	observer frame.Vec3
	sun      frame.Vec3
	moon     frame.Vec3
	rotation frame.Rotation

	failObserver bool
	failSun      bool
	failMoonPos  bool
	failRotation bool
}

var errStub = errors.New("upstream unavailable")

func (s *stubQuerier) ObserverPosition(ctx context.Context, lon, lat float64, ts string) (frame.Vec3, error) {
	if s.failObserver {
		return frame.Vec3{}, errStub
	}
	return s.observer, nil
}

func (s *stubQuerier) BodyPosition(ctx context.Context, reference, target, ts string) (frame.Vec3, error) {
	switch target {
	case "sun":
		if s.failSun {
			return frame.Vec3{}, errStub
		}
		return s.sun, nil
	case "moon":
		if s.failMoonPos {
			return frame.Vec3{}, errStub
		}
		return s.moon, nil
	}
	return frame.Vec3{}, errors.New("unexpected target " + target)
}

func (s *stubQuerier) BodyRotation(ctx context.Context, reference, target, ts string) (frame.Rotation, error) {
	if s.failRotation {
		return frame.Rotation{}, errStub
	}
	return s.rotation, nil
}

// TestSnapshotTransformsOnce verifies each raw vector passes through the
// viewer transform exactly once and moon position and rotation are merged
// into one object.
func TestSnapshotTransformsOnce(t *testing.T) {
	t.Parallel()

	stub := &stubQuerier{
		observer: frame.Vec3{X: 1000, Y: 2000, Z: 3000},
		sun:      frame.Vec3{X: -4000, Y: 5000, Z: -6000},
		moon:     frame.Vec3{X: 10, Y: 20, Z: 30},
		rotation: frame.Rotation{Axis: [3]float64{1, 2, 3}, Angle: 90},
	}

	snap, err := New(stub).Snapshot(context.Background(), -118, 34, "2023-03-04T10:00:00")
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}

	if want := (frame.Vec3{X: 1, Y: 3, Z: -2}); snap.Person != want {
		t.Fatalf("person = %+v, want %+v", snap.Person, want)
	}
	if want := (frame.Vec3{X: -4, Y: -6, Z: -5}); snap.Sun != want {
		t.Fatalf("sun = %+v, want %+v", snap.Sun, want)
	}
	if snap.Moon.X != 0.01 || snap.Moon.Y != 0.03 || snap.Moon.Z != -0.02 {
		t.Fatalf("moon position = %+v", snap.Moon)
	}
	if snap.Moon.Axis != [3]float64{1, 3, -2} || snap.Moon.Angle != 90 {
		t.Fatalf("moon rotation = %+v", snap.Moon)
	}
}

// TestSnapshotFailFast drives a failure through each of the four
// sub-queries in turn; every one must fail the whole snapshot and leave
// no partial object behind.
func TestSnapshotFailFast(t *testing.T) {
	t.Parallel()

	mutations := []struct {
		name string
		set  func(*stubQuerier)
	}{
		{"observer fails", func(s *stubQuerier) { s.failObserver = true }},
		{"sun fails", func(s *stubQuerier) { s.failSun = true }},
		{"moon position fails", func(s *stubQuerier) { s.failMoonPos = true }},
		{"rotation fails", func(s *stubQuerier) { s.failRotation = true }},
	}

	for _, tc := range mutations {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			stub := &stubQuerier{
				observer: frame.Vec3{X: 1},
				sun:      frame.Vec3{X: 2},
				moon:     frame.Vec3{X: 3},
			}
			tc.set(stub)

			snap, err := New(stub).Snapshot(context.Background(), 0, 0, "t")
			if err == nil {
				t.Fatal("expected error")
			}
			var ae *AggregationError
			if !errors.As(err, &ae) {
				t.Fatalf("err = %T, want *AggregationError", err)
			}
			if !errors.Is(err, errStub) {
				t.Fatalf("err chain %v does not wrap the upstream cause", err)
			}
			if snap != (Snapshot{}) {
				t.Fatalf("partial snapshot returned: %+v", snap)
			}
		})
	}
}
