package handler

import (
    "context"
    "net/http"
    "net/http/httptest"
    "strings"
    "sync/atomic"
    "testing"
    "time"

    "github.com/gorilla/websocket"
    "github.com/labstack/echo/v4"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
    "go.uber.org/zap"

    "github.com/iliyamo/digital-services-site/internal/middleware"
    "github.com/iliyamo/digital-services-site/internal/model"
    "github.com/iliyamo/digital-services-site/internal/realtime"
    "github.com/iliyamo/digital-services-site/internal/throttle"
    "github.com/iliyamo/digital-services-site/internal/utils"
)

type adminFixture struct {
    e      *echo.Echo
    h      *AdminHandler
    feed   *realtime.MemoryFeed
    users  *fakeUsers
    tokens *fakeTokens
    purges atomic.Int32
    token  string
}

func newAdminFixture(t *testing.T) *adminFixture {
    t.Helper()
    f := &adminFixture{feed: realtime.NewMemoryFeed(), users: newFakeUsers(), tokens: newFakeTokens()}
    adminID, err := f.users.Create(t.Context(), "root@example.com", "longenough", model.RoleAdmin, 4)
    require.NoError(t, err)
    _, err = f.users.Create(t.Context(), "ed@example.com", "longenough", model.RoleEditor, 4)
    require.NoError(t, err)

    stats := throttle.NewMemoryStats()
    require.NoError(t, stats.Record(t.Context(), throttle.Event{Form: throttle.FormContact, Allowed: false}))
    require.NoError(t, stats.Record(t.Context(), throttle.Event{Form: throttle.FormBooking, Allowed: true}))

    f.h = &AdminHandler{
        Services: newFakeServices(model.Service{ID: 1, Slug: "web-apps", Category: model.CategorySoftware, Title: "Web apps", IsActive: true}),
        Bookings: newFakeBookings(
            model.Booking{ID: 1, TicketNumber: "TKT-00000001", ServiceID: 1, Status: model.BookingPending},
            model.Booking{ID: 2, TicketNumber: "TKT-00000002", ServiceID: 1, Status: model.BookingCancelled},
        ),
        Content:   newFakeContent(),
        Messages:  &fakeMessages{},
        Users:     f.users,
        Tokens:    f.tokens,
        Analytics: &fakeAnalytics{},
        Stats:     stats,
        Throttles: throttle.NewRegistry(throttle.DefaultPresets()),
        Feed:      f.feed,
        Purge:     func(context.Context) { f.purges.Add(1) },
        Log:       zap.NewNop(),
    }

    tok, err := utils.NewAccessToken(testSecret, adminID, model.RoleAdmin, 15)
    require.NoError(t, err)
    f.token = tok.Token

    f.e = echo.New()
    g := f.e.Group("/v1/admin", middleware.JWTAuth(testSecret))
    g.GET("/live", f.h.Live)
    g.GET("/dashboard", f.h.Dashboard)
    g.DELETE("/throttles/:form/:visitor", f.h.ReleaseThrottle)
    g.POST("/services", f.h.CreateService)
    g.PUT("/services/:id", f.h.UpdateService)
    g.DELETE("/services/:id", f.h.DeleteService)
    g.GET("/bookings", f.h.ListBookings)
    g.PATCH("/bookings/:id", f.h.UpdateBookingStatus)
    g.POST("/posts", f.h.SavePost)
    g.PUT("/posts/:id", f.h.SavePost)
    g.PUT("/settings", f.h.UpdateSettings)
    g.PATCH("/users/:id", f.h.UpdateUser)
    return f
}

func (f *adminFixture) do(method, path, body string) *httptest.ResponseRecorder {
    req := httptest.NewRequest(method, path, strings.NewReader(body))
    req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
    req.Header.Set("Authorization", "Bearer "+f.token)
    rec := httptest.NewRecorder()
    f.e.ServeHTTP(rec, req)
    return rec
}

func TestAdmin_RequiresToken(t *testing.T) {
    f := newAdminFixture(t)
    rec := doJSON(f.e, http.MethodGet, "/v1/admin/dashboard", "")
    assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdmin_BookingTransitions(t *testing.T) {
    f := newAdminFixture(t)
    sub, cancel := f.feed.Subscribe(t.Context())
    defer cancel()

    rec := f.do(http.MethodPatch, "/v1/admin/bookings/1", `{"status":"confirmed"}`)
    require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
    assert.Equal(t, model.BookingConfirmed, decode(t, rec)["status"])

    ev := <-sub
    assert.Equal(t, realtime.ChangeEvent{Table: "bookings", Action: realtime.ActionUpdated, ID: "1", At: ev.At}, ev)

    assert.Equal(t, http.StatusBadRequest, f.do(http.MethodPatch, "/v1/admin/bookings/1", `{"status":"PENDING"}`).Code)
    assert.Equal(t, http.StatusConflict, f.do(http.MethodPatch, "/v1/admin/bookings/2", `{"status":"CONFIRMED"}`).Code)
    assert.Equal(t, http.StatusNotFound, f.do(http.MethodPatch, "/v1/admin/bookings/9", `{"status":"CANCELLED"}`).Code)
    assert.Equal(t, http.StatusOK, f.do(http.MethodPatch, "/v1/admin/bookings/1", `{"status":"CANCELLED"}`).Code)

    rec = f.do(http.MethodGet, "/v1/admin/bookings?status=cancelled", "")
    require.Equal(t, http.StatusOK, rec.Code)
    assert.Contains(t, rec.Body.String(), "TKT-00000001")
    assert.Equal(t, http.StatusBadRequest, f.do(http.MethodGet, "/v1/admin/bookings?status=LOST", "").Code)
}

func TestAdmin_ServiceWritesPurgeCache(t *testing.T) {
    f := newAdminFixture(t)

    assert.Equal(t, http.StatusBadRequest,
        f.do(http.MethodPost, "/v1/admin/services", `{"slug":"Bad Slug","category":"software","title":"X"}`).Code)
    assert.Equal(t, http.StatusBadRequest,
        f.do(http.MethodPost, "/v1/admin/services", `{"slug":"seo","category":"software","title":"SEO","roi_percent":3}`).Code)
    assert.Equal(t, int32(0), f.purges.Load())

    rec := f.do(http.MethodPost, "/v1/admin/services", `{"slug":"seo","category":"digital","title":"SEO","price_cents":9900}`)
    require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
    assert.Equal(t, true, decode(t, rec)["is_active"])
    assert.Equal(t, int32(1), f.purges.Load())

    assert.Equal(t, http.StatusConflict,
        f.do(http.MethodPost, "/v1/admin/services", `{"slug":"web-apps","category":"software","title":"Dup"}`).Code)
    assert.Equal(t, http.StatusOK,
        f.do(http.MethodPut, "/v1/admin/services/1", `{"slug":"web-apps","category":"software","title":"Apps","is_active":false}`).Code)
    assert.Equal(t, http.StatusNoContent, f.do(http.MethodDelete, "/v1/admin/services/1", "").Code)
    assert.Equal(t, http.StatusNotFound, f.do(http.MethodDelete, "/v1/admin/services/1", "").Code)
    assert.Equal(t, int32(3), f.purges.Load())
}

func TestAdmin_PostsAndSettings(t *testing.T) {
    f := newAdminFixture(t)

    rec := f.do(http.MethodPost, "/v1/admin/posts", `{"slug":"hello-world","title":"Hello","is_published":true}`)
    require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
    assert.NotNil(t, decode(t, rec)["published_at"])
    assert.Equal(t, http.StatusNotFound, f.do(http.MethodPut, "/v1/admin/posts/42", `{"slug":"x","title":"X"}`).Code)

    rec = f.do(http.MethodPut, "/v1/admin/settings", `{"site_name":"Acme","support_email":"help@acme.test"}`)
    require.Equal(t, http.StatusOK, rec.Code)
    assert.Equal(t, "Acme", decode(t, rec)["site_name"])
    assert.Equal(t, http.StatusBadRequest, f.do(http.MethodPut, "/v1/admin/settings", `{}`).Code)
}

func TestAdmin_UpdateUser(t *testing.T) {
    f := newAdminFixture(t)
    require.NoError(t, f.tokens.StoreRefresh(t.Context(), 2, "hash-2", time.Now().Add(time.Hour)))

    assert.Equal(t, http.StatusForbidden, f.do(http.MethodPatch, "/v1/admin/users/1", `{"role":"CUSTOMER"}`).Code)
    assert.Equal(t, http.StatusBadRequest, f.do(http.MethodPatch, "/v1/admin/users/2", `{"role":"OWNER"}`).Code)
    assert.Equal(t, http.StatusBadRequest, f.do(http.MethodPatch, "/v1/admin/users/2", `{}`).Code)

    rec := f.do(http.MethodPatch, "/v1/admin/users/2", `{"role":"customer","is_active":false}`)
    require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
    body := decode(t, rec)
    assert.Equal(t, model.RoleCustomer, body["role"])
    assert.Equal(t, false, body["is_active"])
    assert.Equal(t, 0, f.tokens.active(2))
}

func TestAdmin_Dashboard(t *testing.T) {
    f := newAdminFixture(t)
    rec := f.do(http.MethodGet, "/v1/admin/dashboard?days=7", "")
    require.Equal(t, http.StatusOK, rec.Code)
    body := decode(t, rec)

    bookings := body["bookings"].(map[string]any)
    assert.EqualValues(t, 1, bookings[model.BookingPending])
    assert.EqualValues(t, 0, bookings[model.BookingConfirmed])
    assert.EqualValues(t, 1, bookings[model.BookingCancelled])

    rows := body["throttle"].([]any)
    require.Len(t, rows, 2)
    assert.Equal(t, throttle.FormBooking, rows[0].(map[string]any)["form"])
    contact := rows[1].(map[string]any)
    assert.Equal(t, throttle.FormContact, contact["form"])
    assert.EqualValues(t, 1, contact["denied"])
    assert.EqualValues(t, 0, contact["allowed"])
}

func TestAdmin_ReleaseThrottle(t *testing.T) {
    f := newAdminFixture(t)
    th := f.h.Throttles.Get(throttle.FormContact, "visitor-1")
    require.True(t, th.RecordSubmission())
    require.False(t, th.CanSubmit())

    rec := f.do(http.MethodDelete, "/v1/admin/throttles/contact/visitor-1", "")
    assert.Equal(t, http.StatusNoContent, rec.Code)
    assert.True(t, f.h.Throttles.Get(throttle.FormContact, "visitor-1").CanSubmit())

    rec = f.do(http.MethodDelete, "/v1/admin/throttles/contact/visitor-2", "")
    assert.Equal(t, http.StatusNotFound, rec.Code)
    rec = f.do(http.MethodDelete, "/v1/admin/throttles/newsletter/visitor-1", "")
    assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdmin_LiveFeedStreamsChanges(t *testing.T) {
    f := newAdminFixture(t)
    srv := httptest.NewServer(f.e)
    defer srv.Close()

    url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/v1/admin/live?access_token=" + f.token
    conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
    require.NoError(t, err)
    defer conn.Close()
    assert.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)

    require.Eventually(t, func() bool { return f.feed.Subscribers() == 1 }, time.Second, 5*time.Millisecond)
    require.NoError(t, f.feed.Publish(t.Context(), realtime.ChangeEvent{Table: "services", Action: realtime.ActionDeleted, ID: "3"}))

    require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
    var ev realtime.ChangeEvent
    require.NoError(t, conn.ReadJSON(&ev))
    assert.Equal(t, "services", ev.Table)
    assert.Equal(t, realtime.ActionDeleted, ev.Action)
    assert.Equal(t, "3", ev.ID)
    assert.False(t, ev.At.IsZero())

    require.NoError(t, conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")))
    assert.Eventually(t, func() bool { return f.feed.Subscribers() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestAdmin_LiveRejectsMissingToken(t *testing.T) {
    f := newAdminFixture(t)
    srv := httptest.NewServer(f.e)
    defer srv.Close()

    url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/v1/admin/live"
    _, resp, err := websocket.DefaultDialer.Dial(url, nil)
    require.Error(t, err)
    require.NotNil(t, resp)
    assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
