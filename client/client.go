// Package client provides a synchronous, line-oriented client for the chat
// protocol. Each Call writes one request line and reads one response line;
// the protocol is strictly request/response, so no background reader is
// needed. A Client is not safe for concurrent use; callers that share one
// connection must serialize their exchanges themselves.
package client

import (
	"bufio"
	"fmt"
	"net"
	"time"

	"github.com/cyberinferno/go-chat-server/protocol"
)

// Client is one TCP connection to a chat server.
type Client struct {
	conn    net.Conn
	r       *bufio.Reader
	timeout time.Duration
}

// Dial connects to a chat server.
//
// Parameters:
//   - addr: The "host:port" of the server
//   - timeout: Per-operation deadline for connect, writes and reads;
//     0 means no deadline
//
// Returns:
//   - A connected Client, or an error if the connection failed
func Dial(addr string, timeout time.Duration) (*Client, error) {
	d := net.Dialer{Timeout: timeout}
	conn, err := d.Dial("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}

	return &Client{conn: conn, r: bufio.NewReader(conn), timeout: timeout}, nil
}

// Send writes one request line without waiting for the response. Pair with
// Recv when issuing several requests back to back.
//
// Parameters:
//   - req: The request packet
//
// Returns:
//   - An error if encoding or the write failed
func (c *Client) Send(req *protocol.Packet) error {
	line, err := protocol.Encode(req)
	if err != nil {
		return err
	}

	if c.timeout > 0 {
		_ = c.conn.SetWriteDeadline(time.Now().Add(c.timeout))
	}
	if _, err := c.conn.Write(line); err != nil {
		return fmt.Errorf("write request: %w", err)
	}

	return nil
}

// SendRaw writes arbitrary bytes followed by a newline, bypassing the
// codec. Intended for exercising the server's malformed-input handling.
//
// Parameters:
//   - raw: The line content, without the trailing newline
//
// Returns:
//   - An error if the write failed
func (c *Client) SendRaw(raw string) error {
	if c.timeout > 0 {
		_ = c.conn.SetWriteDeadline(time.Now().Add(c.timeout))
	}
	if _, err := c.conn.Write(append([]byte(raw), '\n')); err != nil {
		return fmt.Errorf("write raw line: %w", err)
	}

	return nil
}

// Recv reads and decodes one response line.
//
// Returns:
//   - The decoded response packet
//   - An error on I/O failure or if the server sent an undecodable line
func (c *Client) Recv() (*protocol.Packet, error) {
	if c.timeout > 0 {
		_ = c.conn.SetReadDeadline(time.Now().Add(c.timeout))
	}

	line, err := c.r.ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	return protocol.Decode(line)
}

// Call performs one synchronous request/response exchange.
//
// Parameters:
//   - req: The request packet
//
// Returns:
//   - The server's response packet
//   - An error on I/O or decode failure
func (c *Client) Call(req *protocol.Packet) (*protocol.Packet, error) {
	if err := c.Send(req); err != nil {
		return nil, err
	}

	return c.Recv()
}

// Close closes the connection. Safe to call multiple times.
func (c *Client) Close() error {
	return c.conn.Close()
}
