package health

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func passingCheck() CheckFunc {
	return func(context.Context) error { return nil }
}

func failingCheck(msg string) CheckFunc {
	return func(context.Context) error { return errors.New(msg) }
}

type probeBody struct {
	Status string
	Checks map[string]string
}

func probe(t *testing.T, endpoint http.HandlerFunc) (int, probeBody) {
	t.Helper()

	w := httptest.NewRecorder()
	endpoint(w, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var body probeBody
	err := jx.DecodeBytes(w.Body.Bytes()).Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "status":
			v, err := d.Str()
			body.Status = v
			return err
		case "checks":
			body.Checks = make(map[string]string)
			return d.Obj(func(d *jx.Decoder, name string) error {
				v, err := d.Str()
				body.Checks[name] = v
				return err
			})
		default:
			return d.Skip()
		}
	})
	require.NoError(t, err)
	return w.Code, body
}

// fail drives c past the failure threshold.
func fail(c *check) {
	for range FailureThreshold {
		c.run(context.Background())
	}
}

func TestLiveEndpoint_AllPassing(t *testing.T) {
	h := New()
	h.AddLivenessCheck("check1", time.Second, passingCheck())
	h.AddLivenessCheck("check2", time.Second, passingCheck())

	code, body := probe(t, h.LiveEndpoint)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body.Status)
	assert.Empty(t, body.Checks)
}

func TestLiveEndpoint_FailingCheck(t *testing.T) {
	h := New()
	h.AddLivenessCheck("db", time.Second, failingCheck("connection refused"))
	fail(h.checks[0])

	code, body := probe(t, h.LiveEndpoint)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "unhealthy", body.Status)
	assert.Equal(t, "connection refused", body.Checks["db"])
}

func TestLiveEndpoint_FailureBelowThreshold(t *testing.T) {
	h := New()
	h.AddLivenessCheck("flaky", time.Second, failingCheck("temporary"))
	for range FailureThreshold - 1 {
		h.checks[0].run(context.Background())
	}

	code, _ := probe(t, h.LiveEndpoint)
	assert.Equal(t, http.StatusOK, code)
}

func TestLiveEndpoint_IgnoresReadiness(t *testing.T) {
	h := New()
	h.AddReadinessCheck("postgres", time.Second, failingCheck("down"))
	fail(h.checks[0])

	code, _ := probe(t, h.LiveEndpoint)
	assert.Equal(t, http.StatusOK, code, "a dependency outage must not restart the process")
}

func TestReadyEndpoint(t *testing.T) {
	t.Run("ready and passing", func(t *testing.T) {
		h := New()
		h.AddReadinessCheck("postgres", time.Second, passingCheck())
		h.SetReady(true)

		code, body := probe(t, h.ReadyEndpoint)
		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, "ok", body.Status)
	})

	t.Run("not marked ready", func(t *testing.T) {
		h := New()
		h.AddReadinessCheck("postgres", time.Second, passingCheck())

		code, body := probe(t, h.ReadyEndpoint)
		assert.Equal(t, http.StatusServiceUnavailable, code)
		assert.Contains(t, body.Checks, "_readiness")
	})

	t.Run("draining", func(t *testing.T) {
		h := New()
		h.SetReady(true)
		code, _ := probe(t, h.ReadyEndpoint)
		require.Equal(t, http.StatusOK, code)

		h.SetReady(false)
		code, _ = probe(t, h.ReadyEndpoint)
		assert.Equal(t, http.StatusServiceUnavailable, code)
	})

	t.Run("one failing", func(t *testing.T) {
		h := New()
		h.AddReadinessCheck("postgres", time.Second, passingCheck())
		h.AddReadinessCheck("orders-api", time.Second, failingCheck("timeout"))
		h.SetReady(true)
		fail(h.checks[1])

		code, body := probe(t, h.ReadyEndpoint)
		assert.Equal(t, http.StatusServiceUnavailable, code)
		assert.Equal(t, "timeout", body.Checks["orders-api"])
		assert.NotContains(t, body.Checks, "postgres")
	})
}

func TestIsReady(t *testing.T) {
	h := New()
	h.AddReadinessCheck("postgres", time.Second, passingCheck())
	assert.False(t, h.IsReady())

	h.SetReady(true)
	assert.True(t, h.IsReady())

	fail(h.checks[0])
	assert.False(t, h.IsReady())
}

func TestCheckRecovery(t *testing.T) {
	var failing atomic.Bool
	failing.Store(true)
	h := New()
	h.AddLivenessCheck("flaky", time.Second, func(context.Context) error {
		if failing.Load() {
			return errors.New("down")
		}
		return nil
	})
	c := h.checks[0]

	fail(c)
	assert.False(t, c.healthy.Load())

	failing.Store(false)
	c.run(context.Background())
	assert.True(t, c.healthy.Load())
	assert.NoError(t, c.err())
}

func TestCheckTimeout(t *testing.T) {
	h := New()
	h.AddReadinessCheck("slow", 10*time.Millisecond, func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	c := h.checks[0]
	c.run(context.Background())
	assert.ErrorIs(t, c.err(), context.DeadlineExceeded)
}

func TestStartStop(t *testing.T) {
	var runs atomic.Int32
	h := New()
	h.AddLivenessCheck("counter", time.Second, func(context.Context) error {
		runs.Add(1)
		return nil
	})

	h.Start(context.Background(), 5*time.Millisecond)
	assert.Eventually(t, func() bool { return runs.Load() >= 2 }, time.Second, time.Millisecond)

	h.Stop()
	h.Stop()
}

func TestConcurrentAccess(t *testing.T) {
	h := New()
	h.AddLivenessCheck("live", time.Second, failingCheck("err"))
	h.AddReadinessCheck("ready", time.Second, passingCheck())
	h.SetReady(true)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h.Start(ctx, time.Millisecond)

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				h.IsReady()
				h.LiveEndpoint(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/livez", nil))
				h.ReadyEndpoint(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/readyz", nil))
			}
		}()
	}
	wg.Wait()
	h.Stop()
}

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

func TestPingCheck(t *testing.T) {
	assert.NoError(t, PingCheck(pinger{})(context.Background()))
	assert.ErrorContains(t, PingCheck(pinger{err: errors.New("refused")})(context.Background()), "refused")
}

func TestGoroutineCountCheck(t *testing.T) {
	assert.NoError(t, GoroutineCountCheck(100000)(context.Background()))
	assert.ErrorContains(t, GoroutineCountCheck(0)(context.Background()), "exceeds threshold")
}

func TestGCMaxPauseCheck(t *testing.T) {
	assert.NoError(t, GCMaxPauseCheck(time.Hour)(context.Background()))
}
