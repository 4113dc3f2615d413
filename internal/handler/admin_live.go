package handler

import (
    "context"
    "net/http"
    "time"

    "github.com/gorilla/websocket"
    "github.com/labstack/echo/v4"
    "go.uber.org/zap"
)

const (
    liveWriteWait  = 5 * time.Second
    livePongWait   = 60 * time.Second
    livePingPeriod = livePongWait * 9 / 10
)

var liveUpgrader = websocket.Upgrader{
    HandshakeTimeout: 5 * time.Second,
    ReadBufferSize:   1024,
    WriteBufferSize:  1024,
    // JWTAuth runs before the upgrade
    CheckOrigin: func(r *http.Request) bool { return true },
}

// Live: GET /v1/admin/live upgrades to a websocket and streams every
// ChangeEvent published on the feed as a JSON text frame.  Client frames
// are read only to notice pongs and close.
func (h *AdminHandler) Live(c echo.Context) error {
    if h.Feed == nil {
        return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "live feed disabled"})
    }
    conn, err := liveUpgrader.Upgrade(c.Response(), c.Request(), nil)
    if err != nil {
        // Upgrade already wrote the HTTP error
        h.Log.Debug("websocket upgrade failed", zap.Error(err))
        return nil
    }
    defer conn.Close()

    ctx, cancel := context.WithCancel(c.Request().Context())
    defer cancel()
    events, unsubscribe := h.Feed.Subscribe(ctx)
    defer unsubscribe()

    go func() {
        defer cancel()
        conn.SetReadLimit(512)
        _ = conn.SetReadDeadline(time.Now().Add(livePongWait))
        conn.SetPongHandler(func(string) error {
            return conn.SetReadDeadline(time.Now().Add(livePongWait))
        })
        for {
            if _, _, err := conn.ReadMessage(); err != nil {
                return
            }
        }
    }()

    ping := time.NewTicker(livePingPeriod)
    defer ping.Stop()
    for {
        select {
        case <-ctx.Done():
            _ = conn.WriteControl(websocket.CloseMessage,
                websocket.FormatCloseMessage(websocket.CloseGoingAway, ""), time.Now().Add(liveWriteWait))
            return nil
        case ev, ok := <-events:
            if !ok {
                return nil
            }
            _ = conn.SetWriteDeadline(time.Now().Add(liveWriteWait))
            if err := conn.WriteJSON(ev); err != nil {
                h.Log.Debug("live client gone", zap.Error(err))
                return nil
            }
        case <-ping.C:
            if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(liveWriteWait)); err != nil {
                return nil
            }
        }
    }
}
