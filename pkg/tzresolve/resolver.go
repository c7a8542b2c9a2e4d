// Package tzresolve maps geographic coordinates to IANA timezone
// identifiers and normalizes local wall-clock timestamps to UTC.  The
// lookup is fully offline: a coarse table of rectangles per zone keeps the
// resolver dependency-free and auditable at a glance, trading polygon
// precision for simplicity.  Photographs are tagged by people standing on
// land, so coarse land rectangles cover the practical cases; open-ocean
// coordinates resolve to nothing and the caller decides the fallback.
package tzresolve

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"runtime"
	"strconv"
	"time"

	// Embed the tzdata database so zone lookups work on hosts without
	// a system zoneinfo directory.
	_ "time/tzdata"
)

// ErrNoTimeZoneFound is returned when a coordinate falls outside every
// known zone rectangle, typically open ocean.
var ErrNoTimeZoneFound = errors.New("no timezone found for coordinate")

// ErrMalformedTimestamp is returned when a raw timestamp string does not
// carry six numeric components (year through second).
var ErrMalformedTimestamp = errors.New("malformed timestamp")

// zoneBox is a rectangular approximation of a timezone region.  Priority
// orders overlapping rectangles: lower values are checked first so small
// specific regions beat broad national fallbacks.
type zoneBox struct {
	zone           string
	minLat, maxLat float64
	minLon, maxLon float64
	priority       int
	area           float64
}

// contains reports whether the rectangle includes the provided point.
func (b zoneBox) contains(lat, lon float64) bool {
	if lat < b.minLat || lat > b.maxLat {
		return false
	}
	if lon < b.minLon || lon > b.maxLon {
		return false
	}
	return true
}

// boxes is populated via buildBoxes in data.go, already sorted so the
// first match wins.  Package-level so Resolve stays allocation free.
var boxes = buildBoxes()

// query represents a single Resolve request forwarded to the background
// workers.  The reply channel is buffered so an abandoned lookup never
// blocks a worker.
type query struct {
	lat, lon float64
	reply    chan string
}

// resolveRequests feeds Resolve work to the background pool.  A channel
// instead of a mutex keeps concurrent callers free of explicit locking.
var resolveRequests chan query

func init() {
	workerCount := runtime.GOMAXPROCS(0)
	if workerCount < 1 {
		workerCount = 1
	}
	resolveRequests = make(chan query, workerCount)
	for i := 0; i < workerCount; i++ {
		go resolverWorker(resolveRequests)
	}
}

func resolverWorker(in <-chan query) {
	for req := range in {
		req.reply <- resolvePoint(req.lat, req.lon)
	}
}

// Resolve finds the IANA timezone identifier for a coordinate.  It fails
// with ErrNoTimeZoneFound when no rectangle matches; choosing a fallback
// (for example UTC for a photo taken at sea) is the caller's decision.
func Resolve(lat, lon float64) (string, error) {
	if math.IsNaN(lat) || math.IsNaN(lon) {
		return "", ErrNoTimeZoneFound
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return "", ErrNoTimeZoneFound
	}

	reply := make(chan string, 1)
	select {
	case resolveRequests <- query{lat: lat, lon: lon, reply: reply}:
	default:
		// Queue saturated; resolve inline to keep upload latency low.
		if zone := resolvePoint(lat, lon); zone != "" {
			return zone, nil
		}
		return "", ErrNoTimeZoneFound
	}

	if zone := <-reply; zone != "" {
		return zone, nil
	}
	return "", ErrNoTimeZoneFound
}

// resolvePoint walks the prepared rectangles in priority order and
// returns the first matching zone, or empty when none contains the point.
func resolvePoint(lat, lon float64) string {
	for _, box := range boxes {
		if box.contains(lat, lon) {
			return box.zone
		}
	}
	return ""
}

// Breakdown holds the UTC calendar fields of a normalized timestamp,
// shaped the way the upload response publishes them.
type Breakdown struct {
	Year   int `json:"year"`
	Month  int `json:"month"`
	Day    int `json:"day"`
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
	Second int `json:"second"`
}

// componentSplitter breaks a raw timestamp on any run of non-digits, so
// "2023-03-04T10:00:00", "2023/03/04 10:00:00" and friends all parse the
// same way.
var componentSplitter = regexp.MustCompile(`[^0-9]+`)

// NormalizeToUTC interprets a raw local timestamp in the given zone and
// returns its UTC calendar fields.  The zone is passed explicitly; nothing
// here touches process-wide state, so concurrent requests with different
// zones never race.
func NormalizeToUTC(raw, zoneID string) (Breakdown, error) {
	var fields [6]int
	n := 0
	for _, part := range componentSplitter.Split(raw, -1) {
		if part == "" {
			continue
		}
		if n == len(fields) {
			break
		}
		v, err := strconv.Atoi(part)
		if err != nil {
			return Breakdown{}, fmt.Errorf("%w: %q", ErrMalformedTimestamp, raw)
		}
		fields[n] = v
		n++
	}
	if n < len(fields) {
		return Breakdown{}, fmt.Errorf("%w: %q has %d numeric components, need 6", ErrMalformedTimestamp, raw, n)
	}

	loc, err := time.LoadLocation(zoneID)
	if err != nil {
		return Breakdown{}, fmt.Errorf("load zone %q: %w", zoneID, err)
	}

	t := time.Date(fields[0], time.Month(fields[1]), fields[2], fields[3], fields[4], fields[5], 0, loc).UTC()
	return Breakdown{
		Year:   t.Year(),
		Month:  int(t.Month()),
		Day:    t.Day(),
		Hour:   t.Hour(),
		Minute: t.Minute(),
		Second: t.Second(),
	}, nil
}
