package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/gorilla/websocket"

	"github.com/sprite-ai/coderev/internal/model"
	"github.com/sprite-ai/coderev/internal/stream"
)

// StreamAnalysis runs a streaming analysis over the server's WebSocket,
// calling onEvent for each event as it arrives (nil is allowed), and
// returns the accumulated review once the terminal event lands. A stream
// that ends in an error event returns the partial review alongside the
// error.
func (c *Client) StreamAnalysis(ctx context.Context, sub model.Submission, onEvent func(stream.Event)) (*model.Review, error) {
	wsURL, err := c.wsURL("/ws/analysis")
	if err != nil {
		return nil, err
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", wsURL, err)
	}
	defer conn.Close()

	data, err := json.Marshal(sub)
	if err != nil {
		return nil, fmt.Errorf("encode submission: %w", err)
	}
	start := struct {
		Type string          `json:"type"`
		Data json.RawMessage `json:"data"`
	}{Type: "start_analysis", Data: data}
	if err := conn.WriteJSON(start); err != nil {
		return nil, fmt.Errorf("send start_analysis: %w", err)
	}

	acc := stream.NewAccumulator(sub.Filename)
	for !acc.Done() {
		var ev stream.Event
		if err := conn.ReadJSON(&ev); err != nil {
			return nil, fmt.Errorf("read event: %w", err)
		}
		if onEvent != nil {
			onEvent(ev)
		}
		acc.Apply(ev)
	}

	if err := acc.Err(); err != nil {
		return acc.Review(), err
	}
	return acc.Review(), nil
}

// wsURL converts the base HTTP URL into its WebSocket equivalent.
func (c *Client) wsURL(path string) (string, error) {
	u, err := url.Parse(c.baseURL + path)
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	return u.String(), nil
}
