// Package api wires the HTTP boundary: routes, multipart handling, query
// parsing, and the uniform error shape.  Handlers stay small and
// translate requests into the packages that do the work; every failure
// leaves the server as {"status": ..., "error": ...} with HTTP 500.
package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/dustin/go-humanize"
	qrcode "github.com/skip2/go-qrcode"

	"moontrek-server/pkg/config"
	"moontrek-server/pkg/logger"
	"moontrek-server/pkg/registration"
	"moontrek-server/pkg/relay"
	"moontrek-server/pkg/scene"
	"moontrek-server/pkg/tzresolve"
	"moontrek-server/pkg/uploads"
)

// maxUploadBytes caps the multipart memory budget for photo uploads.
const maxUploadBytes = 100 << 20

// Handler wires the aggregator, upload store, registration queue and
// relay together so routes stay declarative.
type Handler struct {
	Cfg     config.Config
	Scene   *scene.Aggregator
	Uploads *uploads.Store
	Jobs    *registration.Runner
	Relay   *relay.Relay
	Logf    func(string, ...any)
}

// NewHandler constructs a Handler.  Logf is optional; pass nil to discard
// handler-level log lines.
func NewHandler(cfg config.Config, sc *scene.Aggregator, up *uploads.Store, jobs *registration.Runner, rl *relay.Relay, logf func(string, ...any)) *Handler {
	if logf == nil {
		logf = func(string, ...any) {}
	}
	return &Handler{Cfg: cfg, Scene: sc, Uploads: up, Jobs: jobs, Relay: rl, Logf: logf}
}

// Register attaches every route to the provided mux.  Kept tiny and
// declarative so the URL surface is readable in one place.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/upload", h.handleUpload)
	mux.HandleFunc("/positions", h.handlePositions)
	mux.HandleFunc("/registration/status", h.handleRegistrationStatus)
	mux.HandleFunc("/qrpng", h.handleQRPng)
	mux.HandleFunc("/ws", h.Relay.Handle)
	mux.Handle("/image/", http.StripPrefix("/image/",
		http.FileServer(http.Dir(h.Cfg.Dirs.Processed))))
	mux.Handle("/model/", http.StripPrefix("/model/",
		http.FileServer(http.Dir(h.Cfg.Dirs.Models))))
}

// Middleware adds the CORS and Server headers every route needs; the
// browser client is served from another origin.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Server", "moontrek-server")
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// writeError emits the uniform failure envelope.
func writeError(w http.ResponseWriter, status string, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"status": status,
		"error":  err.Error(),
	})
}

// writeJSON emits a success payload.
func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// handleUpload accepts one photograph plus its geo-coordinates, persists
// it, resolves the uploader's timezone, and enqueues the registration
// subprocess.  The response never waits for registration; the job queue
// carries it from here.
func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, "Upload failed", fmt.Errorf("method %s not allowed", r.Method))
		return
	}
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, "Upload failed", fmt.Errorf("multipart parse: %w", err))
		return
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		writeError(w, "Upload failed", fmt.Errorf("image field: %w", err))
		return
	}
	defer file.Close()

	q := r.URL.Query()
	lat, err := strconv.ParseFloat(q.Get("latitude"), 64)
	if err != nil {
		writeError(w, "Upload failed", fmt.Errorf("latitude: %w", err))
		return
	}
	lon, err := strconv.ParseFloat(q.Get("longitude"), 64)
	if err != nil {
		writeError(w, "Upload failed", fmt.Errorf("longitude: %w", err))
		return
	}

	rec, err := h.Uploads.Save(header.Filename, file)
	if err != nil {
		writeError(w, "Upload failed", err)
		return
	}

	logger.Begin(rec.StoredName)
	logger.Append(rec.StoredName, fmt.Sprintf("[%s][Upload] received %q (%s) at lat=%v lon=%v",
		rec.StoredName, rec.OriginalName, humanize.Bytes(uint64(rec.Size)), lat, lon))

	zone, err := tzresolve.Resolve(lat, lon)
	if err != nil {
		logger.FlushError(rec.StoredName, err)
		writeError(w, "Upload failed", err)
		return
	}
	logger.Append(rec.StoredName, fmt.Sprintf("[%s][Upload] timezone %s", rec.StoredName, zone))

	// Fire-and-forget from the client's point of view; the queue keeps
	// the job observable via /registration/status.
	h.Jobs.Enqueue(rec.StoredName)

	if raw := q.Get("timeStamp"); raw != "" {
		info, err := tzresolve.NormalizeToUTC(raw, zone)
		if err != nil {
			logger.FlushError(rec.StoredName, err)
			writeError(w, "Upload failed", err)
			return
		}
		logger.Success(rec.StoredName, rec.OriginalName)
		writeJSON(w, map[string]any{
			"status":        "Upload successful",
			"fileName":      rec.StoredName,
			"timeStampInfo": info,
		})
		return
	}

	logger.Success(rec.StoredName, rec.OriginalName)
	writeJSON(w, map[string]any{
		"status":   "Upload successful",
		"fileName": rec.StoredName,
		"timeZone": zone,
	})
}

// handlePositions answers one "scene at time T" request.  Aggregation
// failures never yield a partial scene; the whole request fails instead.
func (h *Handler) handlePositions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	lat, err := strconv.ParseFloat(q.Get("latitude"), 64)
	if err != nil {
		writeError(w, "Failed to retrieve positions", fmt.Errorf("latitude: %w", err))
		return
	}
	lon, err := strconv.ParseFloat(q.Get("longitude"), 64)
	if err != nil {
		writeError(w, "Failed to retrieve positions", fmt.Errorf("longitude: %w", err))
		return
	}
	timestamp := q.Get("timeStamp")
	if timestamp == "" {
		writeError(w, "Failed to retrieve positions", fmt.Errorf("missing timeStamp"))
		return
	}

	snap, err := h.Scene.Snapshot(r.Context(), lon, lat, timestamp)
	if err != nil {
		h.Logf("positions lat=%v lon=%v ts=%s: %v", lat, lon, timestamp, err)
		writeError(w, "Failed to retrieve positions", err)
		return
	}
	writeJSON(w, snap)
}

// handleRegistrationStatus reports where a stored file sits in the
// registration queue.
func (h *Handler) handleRegistrationStatus(w http.ResponseWriter, r *http.Request) {
	file := r.URL.Query().Get("file")
	if file == "" {
		writeError(w, "Status lookup failed", fmt.Errorf("missing file parameter"))
		return
	}
	writeJSON(w, map[string]string{
		"file":   file,
		"status": string(h.Jobs.Status(file)),
	})
}

// handleQRPng renders a QR code for a share URL so a processed image can
// be pulled up on a phone.  Defaults to the referring page when no URL is
// given.
func (h *Handler) handleQRPng(w http.ResponseWriter, r *http.Request) {
	u := r.URL.Query().Get("u")
	if u == "" {
		if ref := r.Referer(); ref != "" {
			u = ref
		} else {
			scheme := "http"
			if r.TLS != nil {
				scheme = "https"
			}
			u = scheme + "://" + r.Host + r.URL.RequestURI()
		}
	}
	if len(u) > 4096 {
		u = u[:4096]
	}

	png, err := qrcode.Encode(u, qrcode.Medium, 1024)
	if err != nil {
		writeError(w, "QR encode failed", err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Content-Disposition", `inline; filename="qr.png"`)
	_, _ = w.Write(png)
}
