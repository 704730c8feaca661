// Package realtime bridges the browser softphone and the call lifecycle over
// one websocket per call attempt. The socket carries device events upstream
// and the merged status stream downstream; closing it disposes the lifecycle.
package realtime

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"crm-platform/internal/calls"
	"crm-platform/internal/calls/lifecycle"
	"crm-platform/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// CallService is the slice of calls.Service the socket needs.
type CallService interface {
	Get(ctx context.Context, callID string) (calls.Call, error)
	Hangup(ctx context.Context, callID string) error
}

// Inbound frame types.
const (
	frameDeviceEvent = "device_event"
	frameHangup      = "hangup"
)

// Outbound frame types.
const (
	frameUpdate = "update"
	frameDone   = "done"
)

type inboundFrame struct {
	Type    string `json:"type"`
	Event   string `json:"event,omitempty"`
	Message string `json:"message,omitempty"`
}

type outboundFrame struct {
	Type string `json:"type"`

	CallID          string `json:"call_id,omitempty"`
	Status          string `json:"status,omitempty"`
	DurationSeconds int    `json:"duration_seconds,omitempty"`
	Message         string `json:"message,omitempty"`
}

// Handler upgrades call-window websockets and runs one lifecycle per
// connection.
type Handler struct {
	calls    CallService
	notifier calls.Notifier
	reader   lifecycle.RecordReader

	// PollInterval and Lifecycle tune source timing; tests shorten them.
	PollInterval time.Duration
	Lifecycle    lifecycle.Options

	upgrader websocket.Upgrader
	log      *slog.Logger
}

func NewHandler(cs CallService, n calls.Notifier, r lifecycle.RecordReader, log *slog.Logger) *Handler {
	return &Handler{
		calls:        cs,
		notifier:     n,
		reader:       r,
		PollInterval: lifecycle.DefaultPollInterval,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Browser clients connect from the app origin; the token check in
			// the auth middleware is the real gate.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		log: log,
	}
}

// HandleCallSocket serves GET /v1/calls/:id/socket. The connection stays open
// until the lifecycle completes (terminal status plus grace period) or the
// client goes away; either way every source is detached before returning.
func (h *Handler) HandleCallSocket(c *gin.Context) {
	log := logger.FromGin(c)
	callID := c.Param("id")

	rec, err := h.calls.Get(c.Request.Context(), callID)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "call not found"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		log.Warn("websocket upgrade failed", "call_id", callID, "err", err)
		return
	}
	defer conn.Close()

	// A call that resolved before the window attached still gets its final
	// status, then the socket closes.
	if rec.Status.IsTerminal() {
		h.write(conn, outboundFrame{
			Type:            frameUpdate,
			CallID:          rec.ID,
			Status:          string(rec.Status),
			DurationSeconds: rec.DurationSeconds,
		})
		h.write(conn, outboundFrame{Type: frameDone, CallID: rec.ID})
		return
	}

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	co := lifecycle.New(rec.ID, rec.Status, h.Lifecycle)
	defer co.Close()

	releaseFeed, err := lifecycle.AttachRealtime(ctx, co, h.notifier, rec.ID, log)
	if err != nil {
		// Degraded but functional: polling still observes every transition.
		log.Warn("realtime attach failed, polling only", "call_id", rec.ID, "err", err)
	} else {
		defer releaseFeed()
	}
	stopPoll := lifecycle.AttachPolling(ctx, co, h.reader, rec.ID, h.PollInterval, log)
	defer stopPoll()

	go h.readLoop(ctx, cancel, conn, co, rec.ID, log)

	for {
		select {
		case snap, ok := <-co.Updates():
			if !ok {
				// The stream only closes after the lifecycle resolved, so the
				// client still gets its completion signal on this branch.
				h.write(conn, outboundFrame{Type: frameDone, CallID: rec.ID})
				return
			}
			if err := h.write(conn, outboundFrame{
				Type:            frameUpdate,
				CallID:          snap.CallID,
				Status:          string(snap.Status),
				DurationSeconds: snap.DurationSeconds,
				Message:         snap.Message,
			}); err != nil {
				return
			}
		case <-co.Done():
			h.write(conn, outboundFrame{Type: frameDone, CallID: rec.ID})
			return
		case <-ctx.Done():
			return
		}
	}
}

// readLoop pumps client frames: device events into the coordinator, hangup to
// the call service. It cancels the connection context when the client side
// closes, which detaches every source.
func (h *Handler) readLoop(ctx context.Context, cancel context.CancelFunc, conn *websocket.Conn, co *lifecycle.Coordinator, callID string, log *slog.Logger) {
	defer cancel()
	device := lifecycle.NewDeviceSource(co)

	for {
		var frame inboundFrame
		if err := conn.ReadJSON(&frame); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Debug("call socket read failed", "call_id", callID, "err", err)
			}
			return
		}

		switch frame.Type {
		case frameDeviceEvent:
			device.Handle(lifecycle.DeviceEvent(frame.Event), frame.Message)
		case frameHangup:
			// Outcome arrives on the status stream; only the writer goroutine
			// touches the socket, so failures are just logged here.
			if err := h.calls.Hangup(ctx, callID); err != nil {
				log.Warn("hangup via socket failed", "call_id", callID, "err", err)
			}
		default:
			log.Debug("unknown socket frame", "call_id", callID, "type", frame.Type)
		}
	}
}

func (h *Handler) write(conn *websocket.Conn, f outboundFrame) error {
	conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return conn.WriteJSON(f)
}
