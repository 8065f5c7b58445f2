package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/websocket"

	"github.com/alexisbeaulieu97/chameleon/internal/coordinator"
	chamerrors "github.com/alexisbeaulieu97/chameleon/pkg/errors"
)

// PathThemeWatch is the hub's websocket endpoint.
const PathThemeWatch = "/api/theme/watch"

// WatchURL derives the websocket URL of the hub from the API base URL.
func (c *Client) WatchURL() (string, error) {
	u, err := url.Parse(c.baseURL + PathThemeWatch)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	case "http", "":
		u.Scheme = "ws"
	}
	return u.String(), nil
}

// Watch streams hub snapshots to fn until ctx ends or the server closes the
// connection. A normal close returns nil.
func (c *Client) Watch(ctx context.Context, fn func(coordinator.Snapshot)) error {
	wsURL, err := c.WatchURL()
	if err != nil {
		return fmt.Errorf("build watch url: %w", err)
	}

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		status := 0
		if resp != nil {
			status = resp.StatusCode
			_ = resp.Body.Close()
		}
		return chamerrors.NewTransportError(PathThemeWatch, status, err)
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
		_ = conn.Close()
	})
	defer stop()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return chamerrors.NewTransportError(PathThemeWatch, http.StatusSwitchingProtocols, err)
		}

		var snap coordinator.Snapshot
		if err := json.Unmarshal(message, &snap); err != nil {
			c.log.WarnErr(err, "skipping malformed theme event")
			continue
		}
		fn(snap)
	}
}
