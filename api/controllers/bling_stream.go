package controllers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/vitrinelabs/vitrine-backend/api/responses"
	"github.com/vitrinelabs/vitrine-backend/api/validators"
	pkgerrors "github.com/vitrinelabs/vitrine-backend/pkg/errors"
)

// heartbeatInterval keeps intermediaries from closing the stream during
// long imports.
const heartbeatInterval = 15 * time.Second

// sseWriter serializes event and heartbeat writes onto one response stream.
type sseWriter struct {
	mu      sync.Mutex
	w       http.ResponseWriter
	flusher http.Flusher
}

func newSSEWriter(w http.ResponseWriter) (*sseWriter, bool) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, false
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()
	return &sseWriter{w: w, flusher: flusher}, true
}

func (s *sseWriter) event(name string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", name, data)
	s.flusher.Flush()
}

func (s *sseWriter) comment(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.w, ": %s\n\n", text)
	s.flusher.Flush()
}

// streamEmitter adapts import feedback onto SSE events.
type streamEmitter struct {
	sse *sseWriter
}

func (e *streamEmitter) Log(message string) {
	e.sse.event("log", map[string]any{"message": message})
}

func (e *streamEmitter) Progress(current, total int) {
	e.sse.event("progress", map[string]any{"current": current, "total": total})
}

// PullProductsStream handles GET /api/bling/products/pull/stream. The same
// reconciliation as the batch pull, with per-item events and heartbeats on
// a long-lived connection. Client disconnect cancels the import.
func (c *BlingController) PullProductsStream(w http.ResponseWriter, r *http.Request) {
	page, err := validators.ParseQueryInt(r, "page", 1, 1, 1<<20)
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}
	limit, err := validators.ParseQueryInt(r, "limit", 0, 1, 500)
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}

	release, err := c.acquirePullLock(r)
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}
	defer release()

	sse, ok := newSSEWriter(w)
	if !ok {
		responses.WriteError(r.Context(), c.logg, w,
			pkgerrors.New(pkgerrors.CodeInternal, "streaming is not supported on this connection"))
		return
	}

	ctx := r.Context()

	heartbeatDone := make(chan struct{})
	go func() {
		ticker := time.NewTicker(heartbeatInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				sse.comment("keep-alive")
			case <-ctx.Done():
				return
			case <-heartbeatDone:
				return
			}
		}
	}()
	defer close(heartbeatDone)

	imported, err := c.importer.Pull(ctx, page, limit, &streamEmitter{sse: sse})
	if err != nil {
		if ctx.Err() != nil {
			// Client went away; nothing left to write to.
			return
		}
		message := err.Error()
		if typed := pkgerrors.As(err); typed != nil {
			message = typed.Message()
		}
		sse.event("error", map[string]any{"ok": false, "error": message})
		return
	}
	sse.event("done", map[string]any{"ok": true, "imported": imported})
}
