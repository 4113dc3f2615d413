package middleware

import (
    "time"

    "github.com/labstack/echo/v4"
    "go.uber.org/zap"
    "go.uber.org/zap/zapcore"
)

// RequestLogger writes one structured entry per request.  Server errors log
// at error level, client errors at warn.
func RequestLogger(log *zap.Logger) echo.MiddlewareFunc {
    if log == nil {
        log = zap.NewNop()
    }
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            start := time.Now()
            err := next(c)
            if err != nil {
                c.Error(err)
            }
            req, res := c.Request(), c.Response()

            level := zapcore.InfoLevel
            switch {
            case res.Status >= 500:
                level = zapcore.ErrorLevel
            case res.Status >= 400:
                level = zapcore.WarnLevel
            }
            if ce := log.Check(level, "request"); ce != nil {
                fields := []zap.Field{
                    zap.String("method", req.Method),
                    zap.String("path", req.URL.Path),
                    zap.String("route", c.Path()),
                    zap.Int("status", res.Status),
                    zap.Int64("bytes", res.Size),
                    zap.Duration("latency", time.Since(start)),
                    zap.String("ip", c.RealIP()),
                }
                if id := res.Header().Get(echo.HeaderXRequestID); id != "" {
                    fields = append(fields, zap.String("request_id", id))
                }
                if err != nil {
                    fields = append(fields, zap.Error(err))
                }
                ce.Write(fields...)
            }
            return nil
        }
    }
}
