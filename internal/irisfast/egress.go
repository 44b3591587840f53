package irisfast

import (
	"context"

	"go.uber.org/zap"
)

// Egress sends replies to a room over HTTP or the WebSocket.
type Egress interface {
	SendText(ctx context.Context, room, message string) error
	SendImage(ctx context.Context, room, imageBase64 string) error
}

type TransportMode string

const (
	TransportHTTP TransportMode = "http"
	TransportWS   TransportMode = "ws"
	TransportAuto TransportMode = "auto"
)

// ParseTransport maps a config value to a mode; unknown values fall back to http.
func ParseTransport(s string) TransportMode {
	switch TransportMode(s) {
	case TransportWS, TransportAuto:
		return TransportMode(s)
	default:
		return TransportHTTP
	}
}

// NewEgress builds the sender for mode. Auto prefers a connected WebSocket and
// falls back to HTTP once per message. With dryrun set nothing leaves the process.
func NewEgress(mode TransportMode, dryrun bool, c *Client, ws *WebSocket, logger *zap.Logger) Egress {
	if logger == nil {
		logger = zap.NewNop()
	}
	if dryrun {
		return &dryRunEgress{mode: mode, logger: logger}
	}
	switch mode {
	case TransportWS:
		return &wsEgress{ws: ws}
	case TransportAuto:
		return &autoEgress{ws: &wsEgress{ws: ws}, http: &httpEgress{c: c}, logger: logger}
	default:
		return &httpEgress{c: c}
	}
}

type httpEgress struct{ c *Client }

func (h *httpEgress) SendText(ctx context.Context, room, message string) error {
	if h == nil || h.c == nil {
		return ErrEgressUnavailable
	}
	return h.c.SendMessage(ctx, room, message)
}

func (h *httpEgress) SendImage(ctx context.Context, room, imageBase64 string) error {
	if h == nil || h.c == nil {
		return ErrEgressUnavailable
	}
	return h.c.SendImage(ctx, room, imageBase64)
}

type wsEgress struct{ ws *WebSocket }

func (w *wsEgress) ready() bool { return w != nil && w.ws != nil && w.ws.Connected() }

func (w *wsEgress) SendText(ctx context.Context, room, message string) error {
	if w == nil || w.ws == nil {
		return ErrEgressUnavailable
	}
	return w.ws.WriteJSON(ctx, &ReplyRequest{Type: "text", Room: room, Data: message})
}

func (w *wsEgress) SendImage(ctx context.Context, room, imageBase64 string) error {
	if w == nil || w.ws == nil {
		return ErrEgressUnavailable
	}
	return w.ws.WriteJSON(ctx, &ImageReplyRequest{Type: "image", Room: room, Data: imageBase64})
}

type autoEgress struct {
	ws     *wsEgress
	http   *httpEgress
	logger *zap.Logger
}

func (a *autoEgress) SendText(ctx context.Context, room, message string) error {
	if a.ws.ready() {
		err := a.ws.SendText(ctx, room, message)
		if err == nil {
			return nil
		}
		a.logger.Warn("egress_fallback", zap.String("type", "text"), zap.String("room", room), zap.Error(err))
	}
	return a.http.SendText(ctx, room, message)
}

func (a *autoEgress) SendImage(ctx context.Context, room, imageBase64 string) error {
	if a.ws.ready() {
		err := a.ws.SendImage(ctx, room, imageBase64)
		if err == nil {
			return nil
		}
		a.logger.Warn("egress_fallback", zap.String("type", "image"), zap.String("room", room), zap.Error(err))
	}
	return a.http.SendImage(ctx, room, imageBase64)
}

type dryRunEgress struct {
	mode   TransportMode
	logger *zap.Logger
}

func (d *dryRunEgress) SendText(_ context.Context, room, message string) error {
	d.logger.Info("egress_dryrun",
		zap.String("mode", string(d.mode)),
		zap.String("type", "text"),
		zap.String("room", room),
		zap.Int("len", len(message)),
	)
	return nil
}

func (d *dryRunEgress) SendImage(_ context.Context, room, imageBase64 string) error {
	d.logger.Info("egress_dryrun",
		zap.String("mode", string(d.mode)),
		zap.String("type", "image"),
		zap.String("room", room),
		zap.Int("len", len(imageBase64)),
	)
	return nil
}
