package realtime

import (
	"context"
	"net/http"

	"bqm/dashboard-service/internal/hub"

	"github.com/gorilla/websocket"
)

// WebsocketDialer is the default transport: one websocket connection to the
// channel service's raw websocket endpoint.
type WebsocketDialer struct{}

type websocketConn struct {
	conn *websocket.Conn
}

func (WebsocketDialer) Dial(ctx context.Context, endpoint, token string) (Conn, error) {
	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, endpoint, header)
	if err != nil {
		return nil, err
	}
	return &websocketConn{conn: conn}, nil
}

func (c *websocketConn) ReadEvent() (hub.Envelope, error) {
	var envelope hub.Envelope
	if err := c.conn.ReadJSON(&envelope); err != nil {
		return hub.Envelope{}, err
	}
	return envelope, nil
}

func (c *websocketConn) WriteFrame(frame hub.Frame) error {
	return c.conn.WriteJSON(frame)
}

func (c *websocketConn) Close() error {
	return c.conn.Close()
}
