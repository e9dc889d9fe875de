package realtime

import "time"

// Security/performance limits for the websocket gateway.
const (
	// Max bytes per websocket frame read (hard limit).
	maxFrameBytes = 16 << 10 // 16 KiB

	// The delivery channel is server-push only; inbound frames beyond
	// keepalives are limited to this budget per window.
	rateLimitEvents = 30
	rateLimitWindow = 10 * time.Second
)

const (
	// Heartbeat defaults (can be overridden by env in ws_gateway.go).
	heartbeatInterval = 25 * time.Second
	heartbeatTimeout  = 5 * time.Second
)
