package connect

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/modelcontextprotocol/go-sdk/jsonrpc"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// wsTransport speaks the protocol over a websocket, one JSON-RPC
// message per text frame.
type wsTransport struct {
	url string
}

func (t *wsTransport) Connect(ctx context.Context) (mcp.Connection, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, t.url, nil)
	if err != nil {
		return nil, fmt.Errorf("websocket dial %s: %w", t.url, err)
	}
	return &wsConn{conn: conn}, nil
}

// wsConn adapts a websocket connection to the protocol connection
// interface. Reads are single-consumer per the websocket contract;
// writes are serialized by a mutex because the protocol layer may issue
// them concurrently.
type wsConn struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
}

func (c *wsConn) Read(ctx context.Context) (jsonrpc.Message, error) {
	if err := c.conn.SetReadDeadline(deadlineOf(ctx)); err != nil {
		return nil, err
	}
	_, data, err := c.conn.ReadMessage()
	if err != nil {
		return nil, err
	}
	return jsonrpc.DecodeMessage(data)
}

func (c *wsConn) Write(ctx context.Context, msg jsonrpc.Message) error {
	data, err := jsonrpc.EncodeMessage(msg)
	if err != nil {
		return err
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.conn.SetWriteDeadline(deadlineOf(ctx)); err != nil {
		return err
	}
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

func (c *wsConn) Close() error {
	return c.conn.Close()
}

// SessionID reports no session identifier; websocket connections are
// not resumable.
func (c *wsConn) SessionID() string { return "" }

func deadlineOf(ctx context.Context) time.Time {
	if d, ok := ctx.Deadline(); ok {
		return d
	}
	return time.Time{}
}
