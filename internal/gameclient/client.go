// Package gameclient drives a game server's ritual endpoint over a WebSocket.
//
// The endpoint speaks a line protocol, one reply line per request line:
//
//	place X Y Z wall|marker  ->  ok | fail <reason> | depleted
//	count                    ->  material N
//	replenish N              ->  ok | fail <reason>
//	where                    ->  pos X Y Z
package gameclient

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/lawnchairsociety/mazeritual/internal/logger"
	"github.com/lawnchairsociety/mazeritual/internal/plan"
	"github.com/lawnchairsociety/mazeritual/internal/ritual"
)

// ErrClosed is returned after Close.
var ErrClosed = errors.New("game client closed")

// ProtocolError reports a reply the client does not understand.
type ProtocolError struct {
	Request string
	Reply   string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("unexpected reply %q to %q", e.Reply, e.Request)
}

// Client implements ritual.World against a remote game server. Requests are
// serialized. A connection that fails mid-request, or that answers one request
// with more than one line, is dropped and redialed on the next request.
type Client struct {
	url     string
	timeout time.Duration
	dialer  *websocket.Dialer

	mu     sync.Mutex
	conn   *lineConn
	closed bool
}

// Dial connects to url. timeout bounds every request round trip.
func Dial(ctx context.Context, url string, timeout time.Duration) (*Client, error) {
	c := &Client{
		url:     url,
		timeout: timeout,
		dialer:  &websocket.Dialer{HandshakeTimeout: timeout},
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.connect(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Client) connect(ctx context.Context) error {
	conn, _, err := c.dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", c.url, err)
	}
	c.conn = newLineConn(conn)
	logger.Info("Connected to game server", "addr", c.conn.RemoteAddr())
	return nil
}

func (c *Client) drop() {
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
}

// request sends one line and waits for its reply.
func (c *Client) request(ctx context.Context, line string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return "", ErrClosed
	}
	if c.conn == nil {
		logger.Warning("Reconnecting to game server", "url", c.url)
		if err := c.connect(ctx); err != nil {
			return "", err
		}
	}

	conn := c.conn
	if err := conn.SetDeadline(time.Now().Add(c.timeout)); err != nil {
		c.drop()
		return "", err
	}

	// Unblock the read if ctx ends before the deadline.
	stop := context.AfterFunc(ctx, func() {
		conn.SetDeadline(time.Now())
	})
	defer stop()

	if err := conn.WriteLine(line); err != nil {
		c.drop()
		return "", c.wrap(ctx, line, err)
	}
	reply, err := conn.ReadLine()
	if err != nil {
		c.drop()
		return "", c.wrap(ctx, line, err)
	}
	// Leftover lines would be read as the replies to later requests.
	if extra := conn.drain(); len(extra) > 0 {
		c.drop()
		logger.Warning("Dropping out-of-step game connection", "request", line, "extra_lines", len(extra))
		return "", &ProtocolError{Request: line, Reply: strings.Join(append([]string{reply}, extra...), "\n")}
	}
	logger.Debug("Game request", "request", line, "reply", reply)
	return reply, nil
}

func (c *Client) wrap(ctx context.Context, line string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return fmt.Errorf("request %q: %w", line, err)
}

// PlaceAt asks the server to place one block. Transport failures are reported
// as transient placement failures; the executor retries them.
func (c *Client) PlaceAt(ctx context.Context, pos plan.Position, role plan.Role) error {
	line := fmt.Sprintf("place %d %d %d %s", pos.X, pos.Y, pos.Z, role)
	reply, err := c.request(ctx, line)
	if err != nil {
		if ctx.Err() != nil || errors.Is(err, ErrClosed) {
			return err
		}
		return &ritual.PlacementFailure{Pos: pos, Reason: err.Error()}
	}

	switch {
	case reply == "ok":
		return nil
	case reply == "depleted":
		return ritual.ErrMaterialDepleted
	case reply == "fail" || strings.HasPrefix(reply, "fail "):
		reason := strings.TrimSpace(strings.TrimPrefix(reply, "fail"))
		if reason == "" {
			reason = "rejected by server"
		}
		return &ritual.PlacementFailure{Pos: pos, Reason: reason}
	}
	return &ProtocolError{Request: line, Reply: reply}
}

func (c *Client) CountAvailableMaterial(ctx context.Context) (int, error) {
	reply, err := c.request(ctx, "count")
	if err != nil {
		return 0, err
	}
	fields := strings.Fields(reply)
	if len(fields) != 2 || fields[0] != "material" {
		return 0, &ProtocolError{Request: "count", Reply: reply}
	}
	n, err := strconv.Atoi(fields[1])
	if err != nil || n < 0 {
		return 0, &ProtocolError{Request: "count", Reply: reply}
	}
	return n, nil
}

func (c *Client) RequestReplenishment(ctx context.Context, batch int) error {
	line := fmt.Sprintf("replenish %d", batch)
	reply, err := c.request(ctx, line)
	if err != nil {
		return err
	}
	switch {
	case reply == "ok":
		return nil
	case reply == "fail" || strings.HasPrefix(reply, "fail "):
		return fmt.Errorf("replenishment refused: %s", strings.TrimSpace(strings.TrimPrefix(reply, "fail")))
	}
	return &ProtocolError{Request: line, Reply: reply}
}

func (c *Client) CurrentPosition(ctx context.Context) (plan.Position, error) {
	reply, err := c.request(ctx, "where")
	if err != nil {
		return plan.Position{}, err
	}
	fields := strings.Fields(reply)
	if len(fields) != 4 || fields[0] != "pos" {
		return plan.Position{}, &ProtocolError{Request: "where", Reply: reply}
	}
	var coords [3]int
	for i, f := range fields[1:] {
		v, err := strconv.Atoi(f)
		if err != nil {
			return plan.Position{}, &ProtocolError{Request: "where", Reply: reply}
		}
		coords[i] = v
	}
	return plan.Position{X: coords[0], Y: coords[1], Z: coords[2]}, nil
}

// Close closes the connection. Later requests fail with ErrClosed.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}

var _ ritual.World = (*Client)(nil)
