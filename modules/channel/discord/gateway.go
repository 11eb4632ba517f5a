package discord

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/coder/websocket"
)

const (
	// maxFrameBytes bounds gateway frames read off the socket.
	maxFrameBytes = 8 << 20

	maxReconnectBackoff = time.Minute
)

// runGateway keeps a gateway session alive until the context is
// cancelled, reconnecting with exponential backoff on socket errors.
func (d *Discord) runGateway(ctx context.Context) {
	backoff := time.Second

	for {
		if ctx.Err() != nil {
			return
		}

		started := time.Now()
		err := d.connectOnce(ctx)
		if ctx.Err() != nil {
			return
		}

		// A session that lived for a while earns a fresh backoff.
		if time.Since(started) > time.Minute {
			backoff = time.Second
		}

		d.logger.Warn("discord: gateway connection lost, reconnecting",
			"error", err,
			"backoff", backoff,
		)

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
		backoff = min(backoff*2, maxReconnectBackoff)
	}
}

// connectOnce runs a single gateway session: hello, identify, heartbeat
// loop, and event dispatch. It returns when the socket errors or the
// context is cancelled.
func (d *Discord) connectOnce(ctx context.Context) error {
	conn, _, err := websocket.Dial(ctx, d.config.GatewayURL, nil)
	if err != nil {
		return fmt.Errorf("discord: gateway dial: %w", err)
	}
	conn.SetReadLimit(maxFrameBytes)
	defer conn.Close(websocket.StatusNormalClosure, "session ended")

	// The server opens with hello (op 10) carrying the heartbeat
	// interval.
	hello, err := readPayload(ctx, conn)
	if err != nil {
		return fmt.Errorf("discord: read hello: %w", err)
	}
	if hello.Op != opHello {
		return fmt.Errorf("discord: expected hello, got op %d", hello.Op)
	}
	var helloBody helloData
	if err := json.Unmarshal(hello.D, &helloBody); err != nil {
		return fmt.Errorf("discord: decode hello: %w", err)
	}

	sessionCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	interval := time.Duration(helloBody.HeartbeatInterval) * time.Millisecond
	go d.heartbeatLoop(sessionCtx, conn, interval)

	if err := d.writePayload(ctx, conn, gatewayPayload{
		Op: opIdentify,
		D: mustMarshal(identifyData{
			Token:   d.config.Token,
			Intents: d.config.Intents,
			Properties: identifyProperties{
				OS:      "linux",
				Browser: "copilot",
				Device:  "copilot",
			},
		}),
	}); err != nil {
		return fmt.Errorf("discord: identify: %w", err)
	}

	for {
		payload, err := readPayload(ctx, conn)
		if err != nil {
			return fmt.Errorf("discord: gateway read: %w", err)
		}

		switch payload.Op {
		case opDispatch:
			if payload.S != nil {
				d.seq.Store(*payload.S)
			}
			d.handleDispatch(payload)

		case opHeartbeat:
			// The server may request an immediate heartbeat.
			if err := d.sendHeartbeat(ctx, conn); err != nil {
				return err
			}

		case opHeartbeatACK:
			// Nothing to do.

		case opReconnect:
			return errors.New("discord: server requested reconnect")

		case opInvalidSession:
			return errors.New("discord: session invalidated")

		default:
			d.logger.Debug("discord: unhandled gateway op", "op", payload.Op)
		}
	}
}

// heartbeatLoop sends op 1 heartbeats at the negotiated interval until
// the session context is cancelled.
func (d *Discord) heartbeatLoop(ctx context.Context, conn *websocket.Conn, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := d.sendHeartbeat(ctx, conn); err != nil {
				d.logger.Debug("discord: heartbeat failed", "error", err)
				return
			}
		}
	}
}

func (d *Discord) sendHeartbeat(ctx context.Context, conn *websocket.Conn) error {
	var seq json.RawMessage = []byte("null")
	if s := d.seq.Load(); s > 0 {
		seq = mustMarshal(s)
	}
	return d.writePayload(ctx, conn, gatewayPayload{Op: opHeartbeat, D: seq})
}

// handleDispatch routes op 0 events by type.
func (d *Discord) handleDispatch(payload gatewayPayload) {
	switch payload.T {
	case "READY":
		var ready readyData
		if err := json.Unmarshal(payload.D, &ready); err != nil {
			d.logger.Warn("discord: decode READY", "error", err)
			return
		}
		d.mu.Lock()
		d.botUser = ready.User
		d.mu.Unlock()
		d.logger.Info("discord gateway ready",
			"id", ready.User.ID,
			"username", ready.User.Username,
		)

	case "MESSAGE_CREATE":
		var msg Message
		if err := json.Unmarshal(payload.D, &msg); err != nil {
			d.logger.Warn("discord: decode MESSAGE_CREATE", "error", err)
			return
		}
		d.handleMessage(msg)
	}
}

// handleMessage converts an incoming message and pushes it to the
// router. The bot's own messages are dropped here; everything else is
// filtered downstream.
func (d *Discord) handleMessage(msg Message) {
	d.mu.Lock()
	botID := d.botUser.ID
	d.mu.Unlock()

	if msg.Author.ID == botID {
		return
	}

	inbound := toInbound(msg, botID, string(d.ModuleInfo().ID))
	if err := d.inbox(inbound); err != nil {
		d.logger.Warn("discord: inbox rejected message",
			"message_id", msg.ID,
			"error", err,
		)
	}
}

func (d *Discord) writePayload(ctx context.Context, conn *websocket.Conn, payload gatewayPayload) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("discord: marshal payload: %w", err)
	}
	return conn.Write(ctx, websocket.MessageText, data)
}

func readPayload(ctx context.Context, conn *websocket.Conn) (gatewayPayload, error) {
	_, data, err := conn.Read(ctx)
	if err != nil {
		return gatewayPayload{}, err
	}
	var payload gatewayPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return gatewayPayload{}, fmt.Errorf("decode payload: %w", err)
	}
	return payload, nil
}

func mustMarshal(v any) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return data
}
