// Package logger implements a per-upload in-memory log buffer.
//
// Detail lines are buffered while an upload is being handled.  On failure
// the buffer is replayed followed by the final error, so the log shows
// the full story only when something went wrong.  On success the buffer
// is dropped and a single short line is written.
//
// Thread safety comes from a dedicated logger goroutine and a command
// channel; no mutexes.
package logger

import (
	"bytes"
	"log"
	"strings"
	"time"
)

type action int

const (
	actBegin action = iota
	actAppend
	actSuccess
	actFlushErr
)

type cmd struct {
	act      action
	uploadID string
	message  string    // for Append
	filename string    // for Success
	err      error     // for FlushError
	when     time.Time // timestamp of the command
}

var ch = make(chan cmd, 128) // buffered for bursts

// Begin starts buffering detail lines for uploadID.
func Begin(uploadID string) { ch <- cmd{act: actBegin, uploadID: uploadID, when: time.Now()} }

// Append adds one detail line to the upload's buffer.  Without an active
// buffer the line is written immediately.
func Append(uploadID, msg string) {
	ch <- cmd{act: actAppend, uploadID: uploadID, message: msg, when: time.Now()}
}

// Success drops the buffer and writes one short success line.
func Success(uploadID, filename string) {
	ch <- cmd{act: actSuccess, uploadID: uploadID, filename: filename, when: time.Now()}
}

// FlushError replays the buffered lines and then the final error.
func FlushError(uploadID string, err error) {
	ch <- cmd{act: actFlushErr, uploadID: uploadID, err: err, when: time.Now()}
}

func init() { go runloop() }

func runloop() {
	buffers := make(map[string]*bytes.Buffer)

	for c := range ch {
		switch c.act {
		case actBegin:
			buffers[c.uploadID] = &bytes.Buffer{}

		case actAppend:
			if b := buffers[c.uploadID]; b != nil {
				_, _ = b.WriteString(c.message + "\n")
			} else {
				log.Print(c.message)
			}

		case actSuccess:
			log.Printf("[%s][Upload] ✔ stored %q", c.uploadID, c.filename)
			delete(buffers, c.uploadID)

		case actFlushErr:
			if b := buffers[c.uploadID]; b != nil {
				lines := strings.Split(strings.TrimRight(b.String(), "\n"), "\n")
				for _, ln := range lines {
					log.Print(ln)
				}
				delete(buffers, c.uploadID)
			}
			log.Printf("[%s][ERROR] %v", c.uploadID, c.err)
		}
	}
}
