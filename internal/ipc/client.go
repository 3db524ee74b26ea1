package ipc

import (
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// DefaultSocketPath returns $XDG_RUNTIME_DIR/isle/isle.sock, or a per-user
// directory under the temp dir when XDG_RUNTIME_DIR is unset.
func DefaultSocketPath() string {
	dir := os.Getenv("XDG_RUNTIME_DIR")
	if dir == "" {
		dir = filepath.Join(os.TempDir(), "isle-"+strconv.Itoa(os.Getuid()))
	}
	return filepath.Join(dir, "isle", "isle.sock")
}

// Client is a connection to the daemon.
type Client struct {
	conn net.Conn
}

// Dial connects to the daemon socket at path.
func Dial(ctx context.Context, path string) (*Client, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "unix", path)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to isled at %s: %w", path, err)
	}
	return &Client{conn: conn}, nil
}

// Close closes the connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// Do sends req and waits for the response, honoring ctx's deadline.
func (c *Client) Do(ctx context.Context, req Request) (Response, error) {
	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Time{}
	}
	if err := c.conn.SetDeadline(deadline); err != nil {
		return Response{}, err
	}

	stop := context.AfterFunc(ctx, func() {
		_ = c.conn.SetDeadline(time.Unix(1, 0))
	})
	defer stop()

	if err := WriteFrame(c.conn, MarshalRequest(req)); err != nil {
		return Response{}, fmt.Errorf("failed to send request: %w", err)
	}
	body, err := ReadFrame(c.conn)
	if err != nil {
		if ctx.Err() != nil {
			return Response{}, ctx.Err()
		}
		return Response{}, fmt.Errorf("failed to read response: %w", err)
	}
	return UnmarshalResponse(body)
}

// Call dials path, performs one request and closes the connection.
func Call(ctx context.Context, path string, req Request) (Response, error) {
	c, err := Dial(ctx, path)
	if err != nil {
		return Response{}, err
	}
	defer c.Close()
	return c.Do(ctx, req)
}
