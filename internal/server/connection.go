package server

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/coder/quartz"
	"github.com/gorilla/websocket"
	"github.com/lox/blackjackgym/internal/game"
	"github.com/rs/zerolog"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 8192

	sendBufferSize = 64
)

// Session is one websocket connection driving its own Env
type Session struct {
	id      string
	server  *Server
	conn    *websocket.Conn
	send    chan *Message
	logger  zerolog.Logger
	started time.Time

	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
	idle      *quartz.Timer

	mu  sync.Mutex // guards env
	env *game.Env
}

func newSession(id string, s *Server, conn *websocket.Conn, env *game.Env) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		id:      id,
		server:  s,
		conn:    conn,
		send:    make(chan *Message, sendBufferSize),
		logger:  s.logger.With().Str("session", id).Logger(),
		started: s.config.Clock.Now(),
		ctx:     ctx,
		cancel:  cancel,
		env:     env,
	}
}

// ID returns the session id
func (c *Session) ID() string {
	return c.id
}

// Info returns the listing entry for the session
func (c *Session) Info() SessionInfo {
	c.mu.Lock()
	stats := c.env.Stats()
	c.mu.Unlock()

	return SessionInfo{
		ID:      c.id,
		Started: c.started,
		Rounds:  stats.Rounds,
		Money:   stats.Money,
		Reward:  stats.Reward,
	}
}

// Start arms the idle timer, greets the client and begins pumping messages
func (c *Session) Start() {
	c.idle = c.server.config.Clock.AfterFunc(c.server.config.IdleTimeout, func() {
		c.logger.Info().Dur("idle_timeout", c.server.config.IdleTimeout).Msg("Closing idle session")
		c.closeWith(websocket.CloseNormalClosure, "idle timeout")
	})

	c.mu.Lock()
	greeting := SessionData{
		SessionID: c.id,
		Level:     c.env.Level().String(),
		Seats:     len(c.env.Table().Seats),
		Current:   game.StepResult{Observation: c.env.Observation(), Info: c.env.Info()},
	}
	c.mu.Unlock()
	c.reply("", MessageTypeSession, greeting)

	go c.writePump()
	go c.readPump()
}

// Close ends the session
func (c *Session) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.cancel()
		if c.idle != nil {
			c.idle.Stop()
		}
		c.server.unregister(c)
		err = c.conn.Close()

		c.mu.Lock()
		stats := c.env.Stats()
		c.mu.Unlock()
		c.logger.Info().
			Int("rounds", stats.Rounds).
			Int("money", stats.Money).
			Float64("reward", stats.Reward).
			Msg("Session closed")
	})
	return err
}

// closeWith sends a close frame before closing
func (c *Session) closeWith(code int, text string) {
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(code, text), time.Now().Add(writeWait))
	_ = c.Close()
}

// readPump handles incoming messages from the client
func (c *Session) readPump() {
	defer func() { _ = c.Close() }()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.logger.Error().Err(err).Msg("WebSocket error")
			}
			return
		}

		c.idle.Reset(c.server.config.IdleTimeout)
		c.handleMessage(raw)
	}
}

// writePump handles outgoing messages to the client
func (c *Session) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.Close()
	}()

	for {
		select {
		case msg := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(msg); err != nil {
				c.logger.Error().Err(err).Msg("Failed to write message")
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.ctx.Done():
			return
		}
	}
}

func (c *Session) handleMessage(raw []byte) {
	msg, err := c.server.validator.Decode(raw)
	if err != nil {
		c.logger.Debug().Err(err).Msg("Rejected message")
		c.sendError("", ErrCodeInvalidMessage, err.Error())
		return
	}
	c.logger.Debug().Str("type", msg.Type.String()).Str("request", msg.RequestID).Msg("Received message")

	switch msg.Type {
	case MessageTypeReset:
		var data ResetData
		if len(msg.Data) > 0 {
			if err := json.Unmarshal(msg.Data, &data); err != nil {
				c.sendError(msg.RequestID, ErrCodeInvalidMessage, "Failed to parse reset data")
				return
			}
		}
		c.handleReset(msg.RequestID, data)

	case MessageTypeStep:
		var data StepData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError(msg.RequestID, ErrCodeInvalidMessage, "Failed to parse step data")
			return
		}
		c.handleStep(msg.RequestID, data)

	case MessageTypeStats:
		c.mu.Lock()
		stats := c.env.Stats()
		c.mu.Unlock()
		c.reply(msg.RequestID, MessageTypeStats, NewStatsData(stats))

	default:
		c.sendError(msg.RequestID, ErrCodeInvalidMessage, "Unknown message type: "+msg.Type.String())
	}
}

func (c *Session) handleReset(requestID string, data ResetData) {
	c.mu.Lock()
	obs, err := c.env.Reset(data.Full)
	info := c.env.Info()
	c.mu.Unlock()

	if err != nil {
		c.logger.Error().Err(err).Msg("Reset failed")
		c.sendError(requestID, ErrCodeInternal, err.Error())
		return
	}
	c.reply(requestID, MessageTypeObservation, game.StepResult{Observation: obs, Info: info})
}

func (c *Session) handleStep(requestID string, data StepData) {
	c.mu.Lock()
	res, err := c.env.Step(data.Action)
	c.mu.Unlock()

	switch {
	case err == nil:
		c.reply(requestID, MessageTypeObservation, res)
	case errors.Is(err, game.ErrRoundOver):
		c.sendError(requestID, ErrCodeRoundOver, err.Error())
	case errors.Is(err, game.ErrUnknownAction):
		c.sendError(requestID, ErrCodeInvalidAction, err.Error())
	default:
		c.logger.Error().Err(err).Msg("Step failed")
		c.sendError(requestID, ErrCodeInternal, err.Error())
	}
}

// reply queues a message for the write pump
func (c *Session) reply(requestID string, msgType MessageType, data any) {
	msg, err := NewMessage(msgType, data)
	if err != nil {
		c.logger.Error().Err(err).Str("type", msgType.String()).Msg("Failed to create message")
		return
	}
	msg.RequestID = requestID

	select {
	case c.send <- msg:
	case <-c.ctx.Done():
	default:
		c.logger.Warn().Msg("Send buffer full, closing session")
		_ = c.Close()
	}
}

// sendError sends an error message to the client
func (c *Session) sendError(requestID, code, message string) {
	c.reply(requestID, MessageTypeError, ErrorData{Code: code, Message: message})
}
