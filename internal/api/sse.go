package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"pumpfun-radar/internal/bus"
	"pumpfun-radar/internal/domain"
	"pumpfun-radar/internal/observability"
)

const (
	initialSnapshotLimit = 30
	heartbeatInterval    = 30 * time.Second
)

// sseWriter serializes one subscriber's event frames.
type sseWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

func (s *sseWriter) send(event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", event, data); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

type initialPayload struct {
	Tokens []*domain.TokenRecord `json:"tokens"`
	Stats  domain.MonitorStats   `json:"stats"`
}

type tokenPayload struct {
	Token *domain.TokenRecord `json:"token"`
	Type  string              `json:"type"`
}

// handleStream serves one SSE subscriber: handshake, history snapshot,
// live forwarding and heartbeats until the client goes away.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		s.fail(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	stream := &sseWriter{w: w, flusher: flusher}

	observability.SetSSESubscribers(int(s.subscribers.Add(1)))
	defer func() {
		observability.SetSSESubscribers(int(s.subscribers.Add(-1)))
	}()

	// Subscribe before the snapshot so no live event falls in the gap.
	events, unsubscribe := s.monitor.Bus().Subscribe(bus.DefaultBuffer)
	defer unsubscribe()

	status := "connecting"
	if s.monitor.Running() {
		status = "connected"
	}
	if err := stream.send("connected", map[string]any{
		"status":    status,
		"timestamp": time.Now().UnixMilli(),
	}); err != nil {
		return
	}

	if !s.monitor.Running() {
		s.monitor.Start()
	}

	sentInitial := false
	if s.monitor.InitialLoadComplete() {
		if err := s.sendSnapshot(stream); err != nil {
			return
		}
		sentInitial = true
	}

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return

		case <-heartbeat.C:
			err := stream.send("heartbeat", map[string]any{
				"timestamp": time.Now().UnixMilli(),
				"stats":     s.monitor.Stats(),
			})
			if err != nil {
				return
			}

		case ev, open := <-events:
			if !open {
				return
			}
			if err := s.forward(stream, ev, &sentInitial); err != nil {
				return
			}
		}
	}
}

// sendSnapshot emits the initial history plus the loaded marker. The
// snapshot is capped at 30 records; the loaded count reflects the full
// history.
func (s *Server) sendSnapshot(stream *sseWriter) error {
	all := s.monitor.History(0, false)
	tokens := all
	if len(tokens) > initialSnapshotLimit {
		tokens = tokens[:initialSnapshotLimit]
	}
	if tokens == nil {
		tokens = []*domain.TokenRecord{}
	}
	err := stream.send("initial", initialPayload{
		Tokens: tokens,
		Stats:  s.monitor.Stats(),
	})
	if err != nil {
		return err
	}
	return stream.send("loaded", map[string]any{
		"status": "history_loaded",
		"count":  len(all),
	})
}

// forward translates one bus event into its SSE frame.
func (s *Server) forward(stream *sseWriter, ev bus.Event, sentInitial *bool) error {
	switch ev.Type {
	case bus.EventLoadingHistory:
		return stream.send("loading", map[string]any{
			"status": "loading_history",
			"count":  ev.Count,
		})

	case bus.EventHistoryLoaded:
		if *sentInitial {
			return nil
		}
		*sentInitial = true
		return s.sendSnapshot(stream)

	case bus.EventTokenPassed:
		return stream.send("token", tokenPayload{Token: ev.Record, Type: "passed"})

	case bus.EventTokenFiltered:
		return stream.send("token", tokenPayload{Token: ev.Record, Type: "filtered"})

	case bus.EventConnected:
		return stream.send("status", map[string]string{"status": "connected"})

	case bus.EventDisconnected, bus.EventStopped:
		return stream.send("status", map[string]string{"status": "disconnected"})
	}
	return nil
}
