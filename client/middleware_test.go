package client

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"golang.org/x/time/rate"
)

type closeRecorder struct {
	io.Reader
	closed bool
}

func (c *closeRecorder) Close() error {
	c.closed = true
	return nil
}

func TestRateLimit_ClosesBodyOnWaitError(t *testing.T) {
	var called bool
	next := RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
		called = true
		return nil, nil
	})
	rt := RateLimit(rate.NewLimiter(rate.Every(time.Hour), 1))(next)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	body := &closeRecorder{Reader: strings.NewReader("payload")}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, "http://crab.test/", body)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := rt.RoundTrip(req); err == nil {
		t.Fatal("expected wait error")
	}
	if called {
		t.Error("next round tripper was called")
	}
	if !body.closed {
		t.Error("request body not closed")
	}
}
