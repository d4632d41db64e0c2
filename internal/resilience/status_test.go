package resilience

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "dial timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

var _ net.Error = timeoutErr{}

func TestIsTransientStatus(t *testing.T) {
	for _, code := range []int{408, 429, 500, 502, 503, 504} {
		assert.True(t, IsTransientStatus(code), code)
	}
	for _, code := range []int{200, 400, 401, 403, 404, 422, 501} {
		assert.False(t, IsTransientStatus(code), code)
	}
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain", errors.New("invalid payload"), false},
		{"503", &StatusError{StatusCode: 503}, true},
		{"404", &StatusError{StatusCode: 404}, false},
		{"wrapped 429", eris.Wrap(&StatusError{StatusCode: 429}, "salonapi: list bookings"), true},
		{"fmt wrapped 401", fmt.Errorf("call: %w", &StatusError{StatusCode: 401}), false},
		{"timeout", timeoutErr{}, true},
		{"reset", fmt.Errorf("read tcp: %w", syscall.ECONNRESET), true},
		{"refused", fmt.Errorf("dial tcp: %w", syscall.ECONNREFUSED), true},
		{"broken pipe text", errors.New("write: Broken Pipe"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTransient(tt.err))
		})
	}
}

func TestNewStatusError(t *testing.T) {
	req := &http.Request{Method: http.MethodGet, URL: &url.URL{Scheme: "https", Host: "api.example.com", Path: "/api/leads/"}}
	resp := &http.Response{
		StatusCode: 429,
		Header:     http.Header{"Retry-After": []string{"7"}},
		Request:    req,
	}

	e := NewStatusError(resp, []byte(`{"detail":"slow down"}`))
	assert.Equal(t, 7*time.Second, e.RetryAfter)
	assert.True(t, e.Transient())
	assert.Equal(t, `GET https://api.example.com/api/leads/: status 429: {"detail":"slow down"}`, e.Error())
}

func TestStatusErrorTruncatesBody(t *testing.T) {
	e := &StatusError{Method: "GET", URL: "u", StatusCode: 500, Body: strings.Repeat("x", 500)}
	assert.Less(t, len(e.Error()), 250)
	assert.True(t, strings.HasSuffix(e.Error(), "..."))
}

func TestParseRetryAfter(t *testing.T) {
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	assert.Zero(t, parseRetryAfter("", now))
	assert.Equal(t, 3*time.Second, parseRetryAfter("3", now))
	assert.Zero(t, parseRetryAfter("-5", now))
	assert.Equal(t, 30*time.Second, parseRetryAfter(now.Add(30*time.Second).Format(http.TimeFormat), now))
	assert.Zero(t, parseRetryAfter(now.Add(-time.Minute).Format(http.TimeFormat), now))
	assert.Zero(t, parseRetryAfter("soon", now))
}
