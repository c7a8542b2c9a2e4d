package ephemeris

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"
)

// testClient points a Client at an httptest server.
func testClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	u, err := url.Parse(ts.URL)
	if err != nil {
		t.Fatalf("parse test url: %v", err)
	}
	port, err := strconv.Atoi(u.Port())
	if err != nil {
		t.Fatalf("parse test port: %v", err)
	}
	return NewClient(u.Hostname(), port, time.Second), ts
}

// TestBodyPosition covers the happy path: the envelope's positions.<target>
// field is extracted and returned untransformed.
func TestBodyPosition(t *testing.T) {
	t.Parallel()

	var gotPath string
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(`{"positions":{"sun":{"x":1.5,"y":-2.5,"z":3.5}}}`))
	}))

	v, err := c.BodyPosition(context.Background(), "earth", "sun", "2023-03-04T10:00:00")
	if err != nil {
		t.Fatalf("BodyPosition: %v", err)
	}
	if v.X != 1.5 || v.Y != -2.5 || v.Z != 3.5 {
		t.Fatalf("got %+v", v)
	}
	if gotPath != "/planet-vector-search/earth/sun/2023-03-04T10:00:00" {
		t.Fatalf("path = %q", gotPath)
	}
}

// TestObserverPosition checks the lat-to-rect route and coordinate
// formatting.
func TestObserverPosition(t *testing.T) {
	t.Parallel()

	var gotPath string
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(`{"positions":{"earth":{"x":10,"y":20,"z":30}}}`))
	}))

	v, err := c.ObserverPosition(context.Background(), -118, 34, "2023-03-04T10:00:00")
	if err != nil {
		t.Fatalf("ObserverPosition: %v", err)
	}
	if v.X != 10 {
		t.Fatalf("got %+v", v)
	}
	if !strings.HasPrefix(gotPath, "/lat-to-rect/earth/earth/-118/34/") {
		t.Fatalf("path = %q", gotPath)
	}
}

// TestBodyRotation decodes the top-level rotation payload.
func TestBodyRotation(t *testing.T) {
	t.Parallel()

	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"rotation_axis":[0.1,0.2,0.3],"angle":12.5}`))
	}))

	r, err := c.BodyRotation(context.Background(), "sun", "moon", "2023-03-04T10:00:00")
	if err != nil {
		t.Fatalf("BodyRotation: %v", err)
	}
	if r.Axis != [3]float64{0.1, 0.2, 0.3} || r.Angle != 12.5 {
		t.Fatalf("got %+v", r)
	}
}

// TestUpstreamFailures drives every failure class through the parsing
// boundary and checks each one surfaces as an UpstreamError.
func TestUpstreamFailures(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		handler http.HandlerFunc
		call    func(c *Client) error
	}{
		{
			name: "http 500",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "boom", http.StatusInternalServerError)
			},
			call: func(c *Client) error {
				_, err := c.BodyPosition(context.Background(), "earth", "sun", "t")
				return err
			},
		},
		{
			name: "bad json",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"positions":`))
			},
			call: func(c *Client) error {
				_, err := c.BodyPosition(context.Background(), "earth", "sun", "t")
				return err
			},
		},
		{
			name: "missing body field",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"positions":{"moon":{"x":1,"y":2,"z":3}}}`))
			},
			call: func(c *Client) error {
				_, err := c.BodyPosition(context.Background(), "earth", "sun", "t")
				return err
			},
		},
		{
			name: "missing rotation fields",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"angle":5}`))
			},
			call: func(c *Client) error {
				_, err := c.BodyRotation(context.Background(), "sun", "moon", "t")
				return err
			},
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			c, _ := testClient(t, tc.handler)
			err := tc.call(c)
			if err == nil {
				t.Fatal("expected error")
			}
			var ue *UpstreamError
			if !errors.As(err, &ue) {
				t.Fatalf("err = %T %v, want *UpstreamError", err, err)
			}
		})
	}
}

// TestTimeout confirms a stalled upstream is cut off by the client
// timeout instead of hanging the caller.
func TestTimeout(t *testing.T) {
	t.Parallel()

	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(2 * time.Second)
	}))
	c.HTTP.Timeout = 50 * time.Millisecond

	_, err := c.BodyPosition(context.Background(), "earth", "sun", "t")
	var ue *UpstreamError
	if !errors.As(err, &ue) {
		t.Fatalf("err = %v, want *UpstreamError", err)
	}
}
