// Package client drives a remote blackjack environment over websocket.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
	"github.com/lox/blackjackgym/internal/game"
	"github.com/lox/blackjackgym/internal/server" // Reuse message types
)

const defaultRequestTimeout = 10 * time.Second

// RemoteError is an error reply from the server
type RemoteError struct {
	Code    string
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("server error %s: %s", e.Code, e.Message)
}

// IsRoundOver reports whether err is the server refusing a step after the
// round ended
func IsRoundOver(err error) bool {
	var remote *RemoteError
	return errors.As(err, &remote) && remote.Code == server.ErrCodeRoundOver
}

// Client is a synchronous request/reply client for one server session.
// Calls are serialised.
type Client struct {
	conn    *websocket.Conn
	logger  *log.Logger
	session server.SessionData

	mu  sync.Mutex
	seq int
}

// Dial connects to serverURL and waits for the session greeting. http and
// https URLs are converted to ws and wss, and the path defaults to /ws.
func Dial(ctx context.Context, serverURL string, logger *log.Logger) (*Client, error) {
	u, err := wsURL(serverURL)
	if err != nil {
		return nil, err
	}

	logger = logger.WithPrefix("client")
	logger.Info("Connecting to server", "url", u)

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}

	c := &Client{conn: conn, logger: logger}
	msg, err := c.read(ctx)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	if msg.Type != server.MessageTypeSession {
		_ = conn.Close()
		return nil, fmt.Errorf("expected %s message, got %s", server.MessageTypeSession, msg.Type)
	}
	if err := json.Unmarshal(msg.Data, &c.session); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to parse session data: %w", err)
	}

	logger.Info("Connected", "session", c.session.SessionID, "seats", c.session.Seats, "level", c.session.Level)
	return c, nil
}

func wsURL(serverURL string) (string, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return "", fmt.Errorf("invalid server URL: %w", err)
	}

	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("invalid server URL scheme %q", u.Scheme)
	}
	if u.Path == "" || u.Path == "/" {
		u.Path = "/ws"
	}
	return u.String(), nil
}

// Session returns the greeting the server sent when the session opened
func (c *Client) Session() server.SessionData {
	return c.session
}

// Reset starts a new round. A full reset rebuilds the shoe.
func (c *Client) Reset(ctx context.Context, full bool) (game.StepResult, error) {
	var res game.StepResult
	err := c.call(ctx, server.MessageTypeReset, server.ResetData{Full: full}, server.MessageTypeObservation, &res)
	return res, err
}

// Step applies an action to the active hand
func (c *Client) Step(ctx context.Context, action game.Action) (game.StepResult, error) {
	var res game.StepResult
	err := c.call(ctx, server.MessageTypeStep, server.StepData{Action: action}, server.MessageTypeObservation, &res)
	return res, err
}

// Stats fetches the session counters
func (c *Client) Stats(ctx context.Context) (server.StatsData, error) {
	var stats server.StatsData
	err := c.call(ctx, server.MessageTypeStats, nil, server.MessageTypeStats, &stats)
	return stats, err
}

// Close sends a close frame and closes the connection
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
	return c.conn.Close()
}

func (c *Client) call(ctx context.Context, msgType server.MessageType, data any, want server.MessageType, out any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	msg, err := server.NewMessage(msgType, data)
	if err != nil {
		return err
	}
	c.seq++
	msg.RequestID = strconv.Itoa(c.seq)

	deadline := time.Now().Add(defaultRequestTimeout)
	if d, ok := ctx.Deadline(); ok {
		deadline = d
	}
	_ = c.conn.SetWriteDeadline(deadline)
	if err := c.conn.WriteJSON(msg); err != nil {
		return fmt.Errorf("failed to send %s: %w", msgType, err)
	}

	for {
		reply, err := c.read(ctx)
		if err != nil {
			return err
		}
		if reply.RequestID != msg.RequestID {
			c.logger.Debug("Skipping unrelated message", "type", reply.Type, "request", reply.RequestID)
			continue
		}

		switch reply.Type {
		case server.MessageTypeError:
			var data server.ErrorData
			if err := json.Unmarshal(reply.Data, &data); err != nil {
				return fmt.Errorf("failed to parse error data: %w", err)
			}
			return &RemoteError{Code: data.Code, Message: data.Message}
		case want:
			if err := json.Unmarshal(reply.Data, out); err != nil {
				return fmt.Errorf("failed to parse %s data: %w", want, err)
			}
			return nil
		default:
			return fmt.Errorf("unexpected %s reply to %s", reply.Type, msgType)
		}
	}
}

func (c *Client) read(ctx context.Context) (*server.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	deadline := time.Now().Add(defaultRequestTimeout)
	if d, ok := ctx.Deadline(); ok {
		deadline = d
	}
	_ = c.conn.SetReadDeadline(deadline)

	var msg server.Message
	if err := c.conn.ReadJSON(&msg); err != nil {
		return nil, fmt.Errorf("failed to read message: %w", err)
	}
	return &msg, nil
}
