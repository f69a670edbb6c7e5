package ipc

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"sync"
	"time"
)

// requestTimeout bounds how long one client may hold a connection.
const requestTimeout = 5 * time.Second

// Info is the static part of the status reply.
type Info struct {
	Display string
	Screens int
	Filters string
}

// Server answers read-only status queries.
type Server struct {
	socketPath   string
	listener     net.Listener
	info         Info
	tracker      *Tracker
	startTime    time.Time
	logger       *slog.Logger
	wg           sync.WaitGroup
	shuttingDown bool
	shutdownMu   sync.Mutex
}

// NewServer creates a server for socketPath. A stale socket file is removed.
func NewServer(socketPath string, info Info, tracker *Tracker, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	os.Remove(socketPath)

	return &Server{
		socketPath: socketPath,
		info:       info,
		tracker:    tracker,
		startTime:  time.Now(),
		logger:     logger,
	}
}

// Start listens on the socket and serves it in the background.
func (s *Server) Start() error {
	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("status socket: %w", err)
	}
	s.listener = listener

	if err := os.Chmod(s.socketPath, 0600); err != nil {
		listener.Close()
		return fmt.Errorf("failed to set socket permissions: %w", err)
	}

	s.logger.Debug("status socket listening", "path", s.socketPath)

	s.wg.Add(1)
	go s.acceptLoop()
	return nil
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			s.shutdownMu.Lock()
			stopping := s.shuttingDown
			s.shutdownMu.Unlock()
			if stopping || errors.Is(err, net.ErrClosed) {
				return
			}
			s.logger.Warn("status socket accept failed", "error", err)
			continue
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handleConnection(conn)
		}()
	}
}

// handleConnection answers one request and closes the connection.
func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(requestTimeout))

	line, err := bufio.NewReader(io.LimitReader(conn, maxRequestSize)).ReadBytes('\n')
	if err != nil && err != io.EOF {
		s.logger.Debug("status socket read failed", "error", err)
		return
	}

	var resp *Response
	if req, err := decodeRequest(line); err != nil {
		resp = errorResponse("%v", err)
	} else {
		resp = s.handleCommand(req)
	}
	if err := json.NewEncoder(conn).Encode(resp); err != nil {
		s.logger.Debug("failed to send status response", "error", err)
	}
}

func (s *Server) handleCommand(req *Request) *Response {
	switch req.Command {
	case CommandPing:
		return &Response{OK: true}
	case CommandStatus:
		st := s.status()
		return &Response{OK: true, Status: &st}
	default:
		return errorResponse("unknown command %q", req.Command)
	}
}

func (s *Server) status() StatusData {
	st := StatusData{
		PID:           os.Getpid(),
		Display:       s.info.Display,
		Screens:       s.info.Screens,
		Filters:       s.info.Filters,
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
	}
	if s.tracker != nil {
		state, since, failed := s.tracker.Snapshot()
		st.State = state.String()
		st.FailedAttempts = failed
		if !since.IsZero() {
			st.LockedSince = since.Unix()
		}
	}
	return st
}

// Stop closes the listener, waits for open connections and removes the
// socket.
func (s *Server) Stop() {
	s.shutdownMu.Lock()
	s.shuttingDown = true
	s.shutdownMu.Unlock()

	if s.listener != nil {
		s.listener.Close()
	}
	s.wg.Wait()
	os.Remove(s.socketPath)
}
