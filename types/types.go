package types

// ------------------------
// Service state (retained)
// ------------------------

type ServiceState struct {
	Level  string `json:"level"`  // "idle", "ready", "stopped", "error"
	Status string `json:"status"` // freeform short code
	Mode   string `json:"mode"`   // "normal" | "service"
	TSms   int64  `json:"ts_ms"`
}

// ------------------------
// Generic replies
// ------------------------

type OKReply struct {
	OK bool `json:"ok"`
}

type ErrorReply struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

// IntReply returns the value actually stored by a clamping setter.
type IntReply struct {
	OK    bool  `json:"ok"`
	Value int32 `json:"value"`
}

// ------------------------
// Heartbeat (retained: sys/heartbeat)
// ------------------------

type Heartbeat struct {
	Seq      uint32 `json:"seq"`
	UptimeMs int64  `json:"uptime_ms"`
	TSms     int64  `json:"ts_ms"`
}
