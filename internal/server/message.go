package server

import (
	"encoding/json"
	"time"

	"github.com/lox/blackjackgym/internal/game"
)

// MessageType identifies the payload carried by a Message
type MessageType string

const (
	// Client → Server
	MessageTypeReset MessageType = "reset"
	MessageTypeStep  MessageType = "step"
	MessageTypeStats MessageType = "stats"

	// Server → Client
	MessageTypeSession     MessageType = "session"
	MessageTypeObservation MessageType = "observation"
	MessageTypeError       MessageType = "error"
)

func (t MessageType) String() string {
	return string(t)
}

// Error codes sent in ErrorData
const (
	ErrCodeInvalidMessage = "invalid_message"
	ErrCodeRoundOver      = "round_over"
	ErrCodeInvalidAction  = "invalid_action"
	ErrCodeInternal       = "internal_error"
)

// Message represents the base WebSocket message structure
type Message struct {
	Type      MessageType     `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
	RequestID string          `json:"requestId,omitempty"`
}

// NewMessage creates a new message with the current timestamp
func NewMessage(messageType MessageType, data any) (*Message, error) {
	msg := &Message{
		Type:      messageType,
		Timestamp: time.Now(),
	}
	if data == nil {
		return msg, nil
	}

	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	msg.Data = dataBytes
	return msg, nil
}

// ResetData asks for a new round. Full rebuilds the shoe.
type ResetData struct {
	Full bool `json:"full"`
}

// StepData carries the action for the active hand
type StepData struct {
	Action game.Action `json:"action"`
}

// SessionData is sent once when a session opens
type SessionData struct {
	SessionID string          `json:"session_id"`
	Level     string          `json:"level"`
	Seats     int             `json:"seats"`
	Current   game.StepResult `json:"current"`
}

// StatsData reports the session's running counters
type StatsData struct {
	game.Stats
	WinRate  float64 `json:"win_rate"`
	EarnRate float64 `json:"earn_rate"`
}

// ErrorData describes a rejected request
type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewStatsData wraps counters with their derived rates
func NewStatsData(stats game.Stats) StatsData {
	return StatsData{
		Stats:    stats,
		WinRate:  stats.WinRate(),
		EarnRate: stats.EarnRate(),
	}
}
