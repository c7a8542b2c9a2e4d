// Package ephemeris queries the upstream astronomical data server for body
// positions and rotations at a given timestamp.  This package owns the
// parsing boundary: upstream JSON is validated field-by-field here and any
// shape drift surfaces as a typed UpstreamError, so the rest of the system
// never touches raw provider payloads.  No retries happen at this layer;
// failures go straight to the aggregator.
package ephemeris

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	jsoniter "github.com/json-iterator/go"

	"moontrek-server/pkg/frame"
)

// jsonAPI decodes provider envelopes.  jsoniter keeps the position hot
// path cheap while staying drop-in compatible with encoding/json.
var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

// DefaultTimeout bounds each upstream call so one stuck query cannot
// stall a whole scene aggregation.
const DefaultTimeout = 5 * time.Second

// UpstreamError reports a failed conversation with the data server: a
// transport error, a non-2xx status, an undecodable body, or a response
// missing the expected field.
type UpstreamError struct {
	Op  string // which query failed
	URL string
	Err error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("ephemeris %s %s: %v", e.Op, e.URL, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// Client issues HTTP queries against one configured data server.
type Client struct {
	Host string
	Port int
	HTTP *http.Client
}

// NewClient builds a client with a bounded per-request timeout.  Pass zero
// to use DefaultTimeout.
func NewClient(host string, port int, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		Host: host,
		Port: port,
		HTTP: &http.Client{Timeout: timeout},
	}
}

// positionEnvelope maps only the field we care about from the provider
// JSON.  Keeping it small avoids coupling to the full upstream schema.
type positionEnvelope struct {
	Positions map[string]frame.Vec3 `json:"positions"`
}

// rotationEnvelope uses pointers so a missing field is distinguishable
// from a zero value.
type rotationEnvelope struct {
	Axis  *[3]float64 `json:"rotation_axis"`
	Angle *float64    `json:"angle"`
}

// ObserverPosition returns the rectangular position of an observer
// standing at the given geographic coordinate at the given timestamp.
func (c *Client) ObserverPosition(ctx context.Context, lon, lat float64, timestamp string) (frame.Vec3, error) {
	const op = "observer-position"
	u := c.endpoint("lat-to-rect", "earth", "earth",
		strconv.FormatFloat(lon, 'f', -1, 64),
		strconv.FormatFloat(lat, 'f', -1, 64),
		timestamp)
	return c.fetchPosition(ctx, op, u, "earth")
}

// BodyPosition returns the position of target relative to reference.
func (c *Client) BodyPosition(ctx context.Context, reference, target, timestamp string) (frame.Vec3, error) {
	const op = "body-position"
	u := c.endpoint("planet-vector-search", reference, target, timestamp)
	return c.fetchPosition(ctx, op, u, target)
}

// BodyRotation returns the rotation of target relative to reference.
func (c *Client) BodyRotation(ctx context.Context, reference, target, timestamp string) (frame.Rotation, error) {
	const op = "target-rotation"
	u := c.endpoint("target-rotation", reference, target, timestamp)

	body, err := c.get(ctx, u)
	if err != nil {
		return frame.Rotation{}, &UpstreamError{Op: op, URL: u, Err: err}
	}
	var env rotationEnvelope
	if err := jsonAPI.Unmarshal(body, &env); err != nil {
		return frame.Rotation{}, &UpstreamError{Op: op, URL: u, Err: fmt.Errorf("decode: %w", err)}
	}
	if env.Axis == nil || env.Angle == nil {
		return frame.Rotation{}, &UpstreamError{Op: op, URL: u, Err: fmt.Errorf("response missing rotation_axis or angle")}
	}
	return frame.Rotation{Axis: *env.Axis, Angle: *env.Angle}, nil
}

// fetchPosition runs one GET and extracts positions.<body> from the
// envelope.
func (c *Client) fetchPosition(ctx context.Context, op, u, body string) (frame.Vec3, error) {
	raw, err := c.get(ctx, u)
	if err != nil {
		return frame.Vec3{}, &UpstreamError{Op: op, URL: u, Err: err}
	}
	var env positionEnvelope
	if err := jsonAPI.Unmarshal(raw, &env); err != nil {
		return frame.Vec3{}, &UpstreamError{Op: op, URL: u, Err: fmt.Errorf("decode: %w", err)}
	}
	v, ok := env.Positions[body]
	if !ok {
		return frame.Vec3{}, &UpstreamError{Op: op, URL: u, Err: fmt.Errorf("response missing positions.%s", body)}
	}
	return v, nil
}

// endpoint joins path segments onto the configured host and port,
// escaping each segment so timestamps survive the trip intact.
func (c *Client) endpoint(parts ...string) string {
	u := fmt.Sprintf("http://%s:%d", c.Host, c.Port)
	for _, p := range parts {
		u += "/" + url.PathEscape(p)
	}
	return u
}

// get runs a single GET with the client's timeout and returns the body of
// a 2xx response.
func (c *Client) get(ctx context.Context, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}
	return body, nil
}
