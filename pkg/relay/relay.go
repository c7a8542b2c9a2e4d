// Package relay accepts persistent WebSocket connections and writes each
// inbound binary frame to a session-scoped file, acknowledging every
// frame.  Keying the output path by session removes the race that a
// single shared file would have between concurrent connections; within
// one connection the transport is ordered, so last-write-wins per session
// is well defined.
package relay

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gorilla/websocket"
)

// ackSuccess is the exact per-frame acknowledgement the client expects.
var ackSuccess = []byte(`{"message":"success"}`)

// Relay serves the persistent binary channel.
type Relay struct {
	Dir      string
	Upgrader websocket.Upgrader
	Logf     func(string, ...any)
}

// New builds a relay writing session files into dir.  Origin checks are
// disabled because the browser client is served from a different origin,
// same as the HTTP routes behind the CORS middleware.
func New(dir string, logf func(string, ...any)) *Relay {
	if logf == nil {
		logf = log.Printf
	}
	return &Relay{
		Dir: dir,
		Upgrader: websocket.Upgrader{
			ReadBufferSize:  1 << 20,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		Logf: logf,
	}
}

// SessionFile returns the output file name for a session ID.
func (rl *Relay) SessionFile(session string) string {
	return filepath.Join(rl.Dir, session+".png")
}

// Handle upgrades the request and runs the frame loop:
// Open -> (receive -> write -> ack)* -> Closed.
func (rl *Relay) Handle(w http.ResponseWriter, r *http.Request) {
	conn, err := rl.Upgrader.Upgrade(w, r, nil)
	if err != nil {
		rl.Logf("[relay] upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	session := newSessionID()
	path := rl.SessionFile(session)
	rl.Logf("[relay] session %s open", session)

	// Hand the session-scoped resource handle to the client first, so
	// it knows where its frames will be retrievable.
	if err := conn.WriteJSON(map[string]string{"session": session}); err != nil {
		rl.Logf("[relay] session %s hello failed: %v", session, err)
		return
	}

	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			rl.Logf("[relay] session %s closed: %v", session, err)
			return
		}
		if messageType != websocket.BinaryMessage {
			continue
		}

		// Each frame fully replaces prior content for this session.
		if err := os.WriteFile(path, data, 0o644); err != nil {
			rl.Logf("[relay] session %s write failed: %v", session, err)
			fail := fmt.Sprintf(`{"status":"stream write failed","error":%q}`, err.Error())
			if werr := conn.WriteMessage(websocket.TextMessage, []byte(fail)); werr != nil {
				return
			}
			continue
		}
		rl.Logf("[relay] session %s frame %s", session, humanize.Bytes(uint64(len(data))))

		if err := conn.WriteMessage(websocket.TextMessage, ackSuccess); err != nil {
			rl.Logf("[relay] session %s ack failed: %v", session, err)
			return
		}
	}
}

// newSessionID combines the epoch millisecond with random bytes so two
// connections in the same millisecond still get distinct files.
func newSessionID() string {
	var buf [4]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return fmt.Sprintf("%d", time.Now().UnixMilli())
	}
	return fmt.Sprintf("%d-%s", time.Now().UnixMilli(), hex.EncodeToString(buf[:]))
}
