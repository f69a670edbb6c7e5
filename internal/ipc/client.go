package ipc

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"time"
)

// Client talks to the status socket of a running locker.
type Client struct {
	socketPath string
	timeout    time.Duration
}

func NewClient(socketPath string) *Client {
	return &Client{socketPath: socketPath, timeout: requestTimeout}
}

func (c *Client) roundTrip(cmd Command) (*Response, error) {
	conn, err := net.DialTimeout("unix", c.socketPath, c.timeout)
	if err != nil {
		return nil, fmt.Errorf("no locker at %s: %w", c.socketPath, err)
	}
	defer conn.Close()
	if err := conn.SetDeadline(time.Now().Add(c.timeout)); err != nil {
		return nil, err
	}

	if err := json.NewEncoder(conn).Encode(Request{Command: cmd}); err != nil {
		return nil, fmt.Errorf("send %s: %w", cmd, err)
	}
	var resp Response
	if err := json.NewDecoder(conn).Decode(&resp); err != nil {
		return nil, fmt.Errorf("read %s reply: %w", cmd, err)
	}
	if !resp.OK {
		return nil, fmt.Errorf("locker: %s", resp.Error)
	}
	return &resp, nil
}

// GetStatus returns the locker's current status.
func (c *Client) GetStatus() (*StatusData, error) {
	resp, err := c.roundTrip(CommandStatus)
	if err != nil {
		return nil, err
	}
	if resp.Status == nil {
		return nil, errors.New("locker: empty status reply")
	}
	return resp.Status, nil
}

func (c *Client) Ping() error {
	_, err := c.roundTrip(CommandPing)
	return err
}
