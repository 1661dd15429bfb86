// Package constants defines gateway-wide constants for timeouts, limits, and durations.
package constants

import "time"

// Typing presence constants
const (
	// TypingTTL is the maximum age of a typing entry before it is evicted
	TypingTTL = 3 * time.Second

	// TypingSweepInterval is the period of the background typing sweep
	TypingSweepInterval = 1 * time.Second
)

// WebSocket constants
const (
	// WebSocketPingInterval is the interval for WebSocket ping/pong
	WebSocketPingInterval = 54 * time.Second

	// WebSocketPongWait is how long to wait for a pong before dropping the connection
	WebSocketPongWait = 60 * time.Second

	// WebSocketWriteWait is the deadline for a single WebSocket write
	WebSocketWriteWait = 10 * time.Second

	// ClientSendBuffer is the capacity of a client's outbound event queue
	ClientSendBuffer = 256

	// ReadBufferSize is the WebSocket read buffer size in bytes
	ReadBufferSize = 1024

	// WriteBufferSize is the WebSocket write buffer size in bytes
	WriteBufferSize = 1024

	// MaxFrameSize is the maximum inbound WebSocket frame size in bytes
	MaxFrameSize = 64 * 1024
)

// Server constants
const (
	// GracefulShutdownTimeout is the timeout for graceful server shutdown
	GracefulShutdownTimeout = 30 * time.Second

	// StoreWriteTimeout bounds a single asynchronous write to the external store
	StoreWriteTimeout = 5 * time.Second

	// PresenceTTL is the auto-expiry for online markers in Redis
	PresenceTTL = 5 * time.Minute
)

// Call-related constants
const (
	// CallStateRinging indicates a call is waiting to be answered
	CallStateRinging = "ringing"

	// CallStateActive indicates a call is in progress
	CallStateActive = "active"

	// CallStateEnded indicates a call has ended
	CallStateEnded = "ended"

	// CallTypeVoice indicates a voice-only call
	CallTypeVoice = "voice"

	// CallTypeVideo indicates a video call
	CallTypeVideo = "video"
)

// Message constants
const (
	// MessageTypeText is the default message type when the client omits one
	MessageTypeText = "text"

	// MaxMessageLength is the maximum allowed message length
	MaxMessageLength = 10000
)
