package ws

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"shownames/internal/api"
	"shownames/internal/jsonrpc"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 10 * 1024 * 1024 // 10MB
)

// Client represents a WebSocket client connection
type Client struct {
	conn    *websocket.Conn
	service *api.Service
	logger  zerolog.Logger

	sendChan  chan []byte
	closeChan chan struct{}
	closeOnce sync.Once
	pending   sync.WaitGroup
}

// NewClient creates a new WebSocket client
func NewClient(conn *websocket.Conn, service *api.Service, logger zerolog.Logger) *Client {
	return &Client{
		conn:      conn,
		service:   service,
		logger:    logger,
		sendChan:  make(chan []byte, 256),
		closeChan: make(chan struct{}),
	}
}

// Run starts the client read and write loops and blocks until the connection ends
func (c *Client) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	go c.writePump(ctx)

	c.readPump(ctx)
	cancel()
	c.pending.Wait()
}

// Close closes the client connection
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.closeChan)
		c.conn.Close()
	})
}

// readPump reads messages and handles each one in its own goroutine, so
// mentions from consecutive messages can join the same search batch
func (c *Client) readPump(ctx context.Context) {
	defer c.Close()

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Debug().Err(err).Msg("read error")
			}
			return
		}

		c.pending.Add(1)
		go func() {
			defer c.pending.Done()
			c.handleMessage(ctx, data)
		}()
	}
}

// writePump writes messages to the WebSocket connection
func (c *Client) writePump(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.closeChan:
			return
		case data := <-c.sendChan:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				c.logger.Debug().Err(err).Msg("write error")
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleMessage processes an incoming message
func (c *Client) handleMessage(ctx context.Context, data []byte) {
	requests, isBatch, err := jsonrpc.ParseBatchRequest(data)
	if err != nil {
		c.sendResponse(jsonrpc.NewErrorResponse(jsonrpc.NewIDNull(), jsonrpc.ErrParse))
		return
	}

	if !isBatch {
		resp := c.service.Dispatch(ctx, requests[0])
		if !requests[0].IsNotification() {
			c.sendResponse(resp)
		}
		return
	}

	responses := c.service.DispatchBatch(ctx, requests)
	out := make([]*jsonrpc.Response, 0, len(responses))
	for i, resp := range responses {
		if !requests[i].IsNotification() {
			out = append(out, resp)
		}
	}
	if len(out) == 0 {
		return
	}

	payload, err := jsonrpc.MarshalBatchResponse(out)
	if err != nil {
		c.logger.Error().Err(err).Msg("failed to marshal batch response")
		return
	}
	c.send(payload)
}

func (c *Client) sendResponse(resp *jsonrpc.Response) {
	payload, err := json.Marshal(resp)
	if err != nil {
		c.logger.Error().Err(err).Msg("failed to marshal response")
		return
	}
	c.send(payload)
}

func (c *Client) send(payload []byte) {
	select {
	case c.sendChan <- payload:
	case <-c.closeChan:
	}
}
