package throttle

import (
    "sync"
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

type fakeClock struct {
    mu  sync.Mutex
    now time.Time
}

func newFakeClock() *fakeClock {
    return &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
    c.mu.Lock()
    defer c.mu.Unlock()
    return c.now
}

// at moves the clock to base + ms milliseconds.
func (c *fakeClock) at(base time.Time, ms int64) {
    c.mu.Lock()
    defer c.mu.Unlock()
    c.now = base.Add(time.Duration(ms) * time.Millisecond)
}

func TestDefaultOptions(t *testing.T) {
    th := New(DefaultOptions())
    o := th.Options()
    assert.Equal(t, 3*time.Second, o.MinInterval)
    assert.Equal(t, 5, o.MaxSubmissions)
    assert.Equal(t, time.Minute, o.TimeWindow)
    assert.True(t, th.CanSubmit())
    assert.Equal(t, 5, th.SubmissionsRemaining())
    assert.Equal(t, time.Duration(0), th.CooldownRemaining())
    assert.Equal(t, Ready, th.State())
}

func TestCanSubmit_RepeatedCallsDoNotChangeOutcome(t *testing.T) {
    clk := newFakeClock()
    base := clk.Now()
    th := New(Options{MinInterval: time.Second, MaxSubmissions: 2, TimeWindow: time.Minute}, WithClock(clk.Now))

    require.True(t, th.RecordSubmission())
    clk.at(base, 500)
    for i := 0; i < 10; i++ {
        assert.False(t, th.CanSubmit())
    }
    assert.Equal(t, 1, th.SubmissionsRemaining())

    clk.at(base, 1000)
    for i := 0; i < 10; i++ {
        assert.True(t, th.CanSubmit())
    }
    assert.Equal(t, 1, th.SubmissionsRemaining())
    assert.True(t, th.RecordSubmission())
}

func TestRecordSubmission_EnforcesMinInterval(t *testing.T) {
    clk := newFakeClock()
    base := clk.Now()
    th := New(Options{MinInterval: 3000 * time.Millisecond, MaxSubmissions: 10, TimeWindow: time.Minute}, WithClock(clk.Now))

    require.True(t, th.RecordSubmission())

    clk.at(base, 2999)
    assert.False(t, th.CanSubmit())
    assert.False(t, th.RecordSubmission())
    assert.Equal(t, time.Millisecond, th.CooldownRemaining())

    clk.at(base, 3000)
    assert.True(t, th.CanSubmit())
    assert.True(t, th.RecordSubmission())
}

func TestRecordSubmission_EnforcesWindowCap(t *testing.T) {
    clk := newFakeClock()
    base := clk.Now()
    th := New(Options{MinInterval: 0, MaxSubmissions: 2, TimeWindow: 60 * time.Second}, WithClock(clk.Now))

    var got []bool
    for ms := int64(0); ms <= 2; ms++ {
        clk.at(base, ms)
        got = append(got, th.RecordSubmission())
    }
    assert.Equal(t, []bool{true, true, false}, got)
    assert.Equal(t, 0, th.SubmissionsRemaining())

    clk.at(base, 60001)
    assert.True(t, th.RecordSubmission(), "first instant left the window")
}

func TestPurge_KeepsInstantExactlyWindowOld(t *testing.T) {
    clk := newFakeClock()
    base := clk.Now()
    th := New(Options{MinInterval: 0, MaxSubmissions: 1, TimeWindow: time.Minute}, WithClock(clk.Now))

    require.True(t, th.RecordSubmission())
    clk.at(base, 60000)
    assert.False(t, th.CanSubmit())
    clk.at(base, 60001)
    assert.True(t, th.CanSubmit())
}

func TestReset_RestoresInitialState(t *testing.T) {
    clk := newFakeClock()
    base := clk.Now()
    th := New(Options{MinInterval: 5 * time.Second, MaxSubmissions: 2, TimeWindow: time.Hour}, WithClock(clk.Now))

    require.True(t, th.RecordSubmission())
    clk.at(base, 5000)
    require.True(t, th.RecordSubmission())
    clk.at(base, 5001)
    require.False(t, th.CanSubmit())

    th.Reset()
    assert.True(t, th.CanSubmit())
    assert.Equal(t, 2, th.SubmissionsRemaining())
    assert.Equal(t, time.Duration(0), th.CooldownRemaining())
    assert.True(t, th.LastSubmission().IsZero())
}

func TestCooldownRemaining_NonIncreasingAndStopsAtZero(t *testing.T) {
    clk := newFakeClock()
    base := clk.Now()
    th := New(Options{MinInterval: 3 * time.Second, MaxSubmissions: 10, TimeWindow: time.Minute}, WithClock(clk.Now))

    require.True(t, th.RecordSubmission())
    assert.Equal(t, 3*time.Second, th.CooldownRemaining())

    prev := th.CooldownRemaining()
    for ms := int64(100); ms <= 5000; ms += 100 {
        clk.at(base, ms)
        cur := th.CooldownRemaining()
        assert.LessOrEqual(t, cur, prev)
        assert.GreaterOrEqual(t, cur, time.Duration(0))
        prev = cur
    }
    assert.Equal(t, time.Duration(0), prev)

    clk.at(base, 3000)
    assert.Equal(t, time.Duration(0), th.CooldownRemaining())
    clk.at(base, 20000)
    assert.Equal(t, time.Duration(0), th.CooldownRemaining())

    require.True(t, th.RecordSubmission())
    assert.Equal(t, 3*time.Second, th.CooldownRemaining())
}

func TestContactFormScenario(t *testing.T) {
    a := assert.New(t)
    clk := newFakeClock()
    base := clk.Now()
    th := New(Options{MinInterval: 5000 * time.Millisecond, MaxSubmissions: 3, TimeWindow: 300000 * time.Millisecond}, WithClock(clk.Now))

    a.True(th.RecordSubmission())
    a.Equal(5*time.Second, th.CooldownRemaining())
    a.Equal(CoolingDown, th.State())

    clk.at(base, 1000)
    a.False(th.CanSubmit())
    a.False(th.RecordSubmission())
    a.Equal(4*time.Second, th.CooldownRemaining())

    clk.at(base, 5000)
    a.True(th.RecordSubmission())
    a.Equal(1, th.SubmissionsRemaining())

    clk.at(base, 10000)
    a.True(th.RecordSubmission())
    a.Equal(0, th.SubmissionsRemaining())

    clk.at(base, 15000)
    a.Equal(time.Duration(0), th.CooldownRemaining())
    a.False(th.CanSubmit())
    a.False(th.RecordSubmission())

    clk.at(base, 300001)
    a.Equal(1, th.SubmissionsRemaining())
    a.True(th.RecordSubmission())
    a.Equal(0, th.SubmissionsRemaining())
}

func TestRetryAfter_AccountsForWindow(t *testing.T) {
    clk := newFakeClock()
    base := clk.Now()
    th := New(Options{MinInterval: time.Second, MaxSubmissions: 2, TimeWindow: 10 * time.Second}, WithClock(clk.Now))

    require.True(t, th.RecordSubmission())
    assert.Equal(t, time.Second, th.RetryAfter())

    clk.at(base, 2000)
    require.True(t, th.RecordSubmission())

    clk.at(base, 4000)
    // first instant (t=0) leaves the window just after t=10000
    assert.Equal(t, 6*time.Second+time.Millisecond, th.RetryAfter())

    clk.at(base, 10001)
    assert.Equal(t, time.Duration(0), th.RetryAfter())
    assert.True(t, th.CanSubmit())
}

func TestStatus_Snapshot(t *testing.T) {
    clk := newFakeClock()
    th := New(Options{MinInterval: 2 * time.Second, MaxSubmissions: 3, TimeWindow: time.Minute}, WithClock(clk.Now))

    st := th.Status()
    assert.Equal(t, Ready, st.State)
    assert.Equal(t, 3, st.SubmissionsRemaining)

    require.True(t, th.RecordSubmission())
    st = th.Status()
    assert.Equal(t, CoolingDown, st.State)
    assert.Equal(t, 2*time.Second, st.CooldownRemaining)
    assert.Equal(t, 2, st.SubmissionsRemaining)
    assert.Equal(t, 2*time.Second, st.RetryAfter)
    assert.Equal(t, "cooling_down", st.State.String())
}

func TestNew_KeepsExplicitZeroOptions(t *testing.T) {
    clk := newFakeClock()
    th := New(Options{}, WithClock(clk.Now))
    assert.Equal(t, Options{}, th.Options())
    assert.False(t, th.CanSubmit(), "no slots")
    assert.False(t, th.RecordSubmission())
    assert.Equal(t, 0, th.SubmissionsRemaining())
    assert.Equal(t, time.Duration(0), th.CooldownRemaining())
}

func TestNegativeOptions_DoNotPanic(t *testing.T) {
    th := New(Options{MinInterval: -time.Second, MaxSubmissions: -1, TimeWindow: -time.Second})
    assert.NotPanics(t, func() {
        th.CanSubmit()
        th.RecordSubmission()
        th.CooldownRemaining()
        th.RetryAfter()
        _ = th.Status()
        th.Reset()
    })
    assert.Equal(t, 0, th.SubmissionsRemaining())
}

func TestDispose_ClearsHistory(t *testing.T) {
    th := New(DefaultOptions())
    require.True(t, th.RecordSubmission())
    th.Dispose()
    assert.True(t, th.Disposed())
    assert.True(t, th.CanSubmit())
    require.True(t, th.RecordSubmission())
    assert.False(t, th.Disposed())
}
