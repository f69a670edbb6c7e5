package ipc

import (
	"encoding/json"
	"fmt"
)

// Command names a status socket request. None of them can change the lock
// state.
type Command string

const (
	CommandStatus Command = "status"
	CommandPing   Command = "ping"
)

// maxRequestSize bounds a single request line.
const maxRequestSize = 4096

type Request struct {
	Command Command `json:"command"`
}

type Response struct {
	OK     bool        `json:"ok"`
	Error  string      `json:"error,omitempty"`
	Status *StatusData `json:"status,omitempty"`
}

// StatusData describes the running locker. It never carries secret material.
type StatusData struct {
	PID            int    `json:"pid"`
	Display        string `json:"display"`
	State          string `json:"state"`
	LockedSince    int64  `json:"locked_since"` // unix seconds
	UptimeSeconds  int64  `json:"uptime_seconds"`
	FailedAttempts int    `json:"failed_attempts"`
	Screens        int    `json:"screens"`
	Filters        string `json:"filters"`
}

func errorResponse(format string, args ...any) *Response {
	return &Response{Error: fmt.Sprintf(format, args...)}
}

func decodeRequest(line []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(line, &req); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}
	if req.Command == "" {
		return nil, fmt.Errorf("invalid request: missing command")
	}
	return &req, nil
}
