package gameclient

import (
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// lineConn wraps a WebSocket connection as a line-oriented text stream.
type lineConn struct {
	conn    *websocket.Conn
	readBuf []string   // Buffer for lines when a message contains multiple lines
	mu      sync.Mutex // Protects readBuf
}

func newLineConn(conn *websocket.Conn) *lineConn {
	return &lineConn{
		conn:    conn,
		readBuf: make([]string, 0),
	}
}

// ReadLine reads a line from the connection (blocking).
// If a message contains multiple lines, they are buffered and returned one at a time.
func (c *lineConn) ReadLine() (string, error) {
	for {
		c.mu.Lock()
		if len(c.readBuf) > 0 {
			line := c.readBuf[0]
			c.readBuf = c.readBuf[1:]
			c.mu.Unlock()
			return line, nil
		}
		c.mu.Unlock()

		_, message, err := c.conn.ReadMessage()
		if err != nil {
			return "", err
		}

		lines := strings.Split(string(message), "\n")
		filtered := make([]string, 0, len(lines))
		for _, line := range lines {
			trimmed := strings.TrimSpace(line)
			if trimmed != "" {
				filtered = append(filtered, trimmed)
			}
		}
		// Empty message, read the next one
		if len(filtered) == 0 {
			continue
		}

		c.mu.Lock()
		c.readBuf = append(c.readBuf, filtered...)
		c.mu.Unlock()
	}
}

// drain returns and clears any lines buffered past the last ReadLine.
func (c *lineConn) drain() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.readBuf) == 0 {
		return nil
	}
	lines := c.readBuf
	c.readBuf = make([]string, 0)
	return lines
}

// WriteLine sends one line as a text message.
func (c *lineConn) WriteLine(line string) error {
	return c.conn.WriteMessage(websocket.TextMessage, []byte(line))
}

func (c *lineConn) SetDeadline(t time.Time) error {
	if err := c.conn.SetWriteDeadline(t); err != nil {
		return err
	}
	return c.conn.SetReadDeadline(t)
}

func (c *lineConn) Close() error {
	return c.conn.Close()
}

func (c *lineConn) RemoteAddr() string {
	return c.conn.RemoteAddr().String()
}
