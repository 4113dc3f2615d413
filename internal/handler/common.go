package handler // handler defines the HTTP handlers of the site API

import (
    "context"
    "errors"
    "net/http"
    "strconv"
    "strings"
    "time"

    "github.com/labstack/echo/v4"
    "go.uber.org/zap"

    "github.com/iliyamo/digital-services-site/internal/realtime"
    "github.com/iliyamo/digital-services-site/internal/repository"
)

// dbTimeout bounds every database call made from a handler.
const dbTimeout = 5 * time.Second

func dbCtx(c echo.Context) (context.Context, context.CancelFunc) {
    return context.WithTimeout(c.Request().Context(), dbTimeout)
}

// getUserID extracts the user_id stored by the JWT middleware.
func getUserID(c echo.Context) (uint64, error) {
    switch t := c.Get("user_id").(type) {
    case uint64:
        return t, nil
    case string:
        if n, err := strconv.ParseUint(t, 10, 64); err == nil {
            return n, nil
        }
    }
    return 0, errors.New("invalid user_id in context")
}

// parseID reads a positive numeric path parameter.
func parseID(c echo.Context, name string) (uint64, bool) {
    id, err := strconv.ParseUint(c.Param(name), 10, 64)
    return id, err == nil && id > 0
}

func badRequest(c echo.Context, msg string) error {
    return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
}

// storeError maps repository sentinels to HTTP responses.  Unexpected
// errors are logged and reported as 500 without details.
func storeError(c echo.Context, log *zap.Logger, op string, err error) error {
    switch {
    case errors.Is(err, repository.ErrNotFound):
        return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
    case errors.Is(err, repository.ErrConflict), errors.Is(err, repository.ErrEmailExists):
        return c.JSON(http.StatusConflict, echo.Map{"error": "conflict"})
    case errors.Is(err, repository.ErrInvalidTransition):
        return c.JSON(http.StatusConflict, echo.Map{"error": "invalid status transition"})
    case errors.Is(err, context.DeadlineExceeded):
        return c.JSON(http.StatusGatewayTimeout, echo.Map{"error": "timeout"})
    }
    if log != nil {
        log.Error(op+" failed", zap.Error(err))
    }
    return c.JSON(http.StatusInternalServerError, echo.Map{"error": op + " failed"})
}

// queryLimit parses ?limit within [1, max], defaulting to def.
func queryLimit(c echo.Context, def, max int) int {
    n, err := strconv.Atoi(c.QueryParam("limit"))
    if err != nil || n < 1 {
        return def
    }
    if n > max {
        return max
    }
    return n
}

func validEmail(s string) bool {
    at := strings.IndexByte(s, '@')
    return at > 0 && at < len(s)-1 && !strings.ContainsAny(s, " \t\r\n") && strings.Count(s, "@") == 1
}

// notify publishes a change event; failures are only logged.
func notify(feed realtime.Feed, log *zap.Logger, table, action string, id uint64) {
    if feed == nil {
        return
    }
    ev := realtime.ChangeEvent{Table: table, Action: action, ID: strconv.FormatUint(id, 10), At: time.Now().UTC()}
    ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
    defer cancel()
    if err := feed.Publish(ctx, ev); err != nil && log != nil {
        log.Warn("change event not published", zap.String("table", table), zap.Error(err))
    }
}
