package realtime

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Serve pumps c's events to w as server-sent events until the client goes
// away, the stream idles out, a write fails, or the registry completes c.
// Every exit path releases c from the registry before returning.
func (r *Registry) Serve(w http.ResponseWriter, req *http.Request, c *Conn) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		r.Release(c, ReasonError)
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	heartbeat := time.NewTicker(r.cfg.Heartbeat)
	defer heartbeat.Stop()
	idle := time.NewTimer(r.cfg.IdleTimeout)
	defer idle.Stop()

	ctx := req.Context()
	for {
		select {
		case <-ctx.Done():
			r.Release(c, ReasonDisconnected)
			return
		case <-c.Done():
			return
		case <-idle.C:
			r.Release(c, ReasonTimeout)
			return
		case <-heartbeat.C:
			if _, err := io.WriteString(w, ": ping\n\n"); err != nil {
				r.Release(c, ReasonError)
				return
			}
			flusher.Flush()
		case msg := <-c.Outbound():
			raw, err := json.Marshal(msg.Data)
			if err != nil {
				r.log.Warn("dropping unencodable event", "event", msg.Event, "error", err)
				continue
			}
			if err := writeEvent(w, msg.Event, raw); err != nil {
				r.log.Warn("stream write failed", "user_id", c.UserID, "event", msg.Event, "error", err)
				r.Release(c, ReasonError)
				return
			}
			flusher.Flush()
			if !idle.Stop() {
				select {
				case <-idle.C:
				default:
				}
			}
			idle.Reset(r.cfg.IdleTimeout)
		}
	}
}

func writeEvent(w io.Writer, event Event, data []byte) error {
	_, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
	return err
}
