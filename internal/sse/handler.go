package sse

import (
	"bytes"
	"encoding/json/v2"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	domainerrors "github.com/heyprompt/heyprompt-server/internal/errors"
	"github.com/heyprompt/heyprompt-server/internal/http/response"
)

// writeTimeout drops streams whose peer stopped reading.
const writeTimeout = 60 * time.Second

// IdentifyFunc resolves who is opening a stream. An error rejects the
// request with 401.
type IdentifyFunc func(r *http.Request) (Identity, error)

// Handler serves GET /api/v1/stream.
type Handler struct {
	manager  *Manager
	identify IdentifyFunc
	logger   *slog.Logger
}

func NewHandler(manager *Manager, identify IdentifyFunc, logger *slog.Logger) *Handler {
	return &Handler{manager: manager, identify: identify, logger: logger}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		response.MethodNotAllowed(w, r)
		return
	}
	identity, err := h.identify(r)
	if err != nil {
		response.Error(w, domainerrors.Unauthorized("stream requires a session or device id").WithCause(err), h.logger)
		return
	}

	hdr := w.Header()
	hdr.Set("Content-Type", "text/event-stream")
	hdr.Set("Cache-Control", "no-cache")
	hdr.Set("Connection", "keep-alive")
	hdr.Set("X-Accel-Buffering", "no")

	stream := &eventWriter{w: w, rc: http.NewResponseController(w)}
	if err := stream.rc.Flush(); err != nil {
		response.Error(w, fmt.Errorf("SSE streaming unsupported: %w", err), h.logger)
		return
	}

	client, err := h.manager.Connect(identity)
	if err != nil {
		response.Error(w, fmt.Errorf("SSE connect: %w", err), h.logger)
		return
	}
	defer h.manager.Disconnect(client.ID)
	log := h.logger.With("client_id", client.ID)

	hello := map[string]string{"client_id": client.ID, "message": "SSE connection established"}
	if err := stream.send("connected", hello); err != nil {
		log.Warn("SSE greeting failed", "error", err)
		return
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case <-client.Done:
			return
		case e, ok := <-client.EventChan:
			if !ok {
				return
			}
			if err := stream.send(string(e.Type), e); err != nil {
				log.Debug("SSE client went away", "error", err)
				return
			}
		}
	}
}

// eventWriter frames payloads as "event: <name>\ndata: <json>\n\n".
type eventWriter struct {
	w   http.ResponseWriter
	rc  *http.ResponseController
	buf bytes.Buffer
}

func (ew *eventWriter) send(name string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	ew.buf.Reset()
	ew.buf.WriteString("event: ")
	ew.buf.WriteString(name)
	ew.buf.WriteString("\ndata: ")
	ew.buf.Write(data)
	ew.buf.WriteString("\n\n")

	if _, err := ew.w.Write(ew.buf.Bytes()); err != nil {
		return err
	}
	if err := ew.rc.Flush(); err != nil {
		return err
	}
	// Unsupported by some writers (httptest recorders); streaming still works.
	_ = ew.rc.SetWriteDeadline(time.Now().Add(writeTimeout))
	return nil
}
