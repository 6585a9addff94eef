package netutil

import (
	"errors"
	"net"
	"testing"

	"github.com/m3rciful/botkit/core/telegram/api"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "deadline exceeded" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestKind(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"server error", &api.Error{Code: 502, Description: "bad gateway"}, "http_5xx"},
		{"client error", &api.Error{Code: 403, Description: "forbidden"}, "http_4xx"},
		{"dns", &net.DNSError{Err: "no such host", Name: "api.example.org"}, "dns"},
		{"timeout", timeoutErr{}, "timeout"},
		{"dial", &net.OpError{Op: "dial", Err: errors.New("refused")}, "dial"},
		{"plain", errors.New("boom"), "other"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Kind(tt.err); got != tt.want {
				t.Fatalf("Kind = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestShouldRetry(t *testing.T) {
	if ShouldRetry(&api.Error{Code: 400}) {
		t.Error("4xx should not retry")
	}
	if !ShouldRetry(&api.Error{Code: 500}) {
		t.Error("5xx should retry")
	}
	if !ShouldRetry(timeoutErr{}) {
		t.Error("timeouts should retry")
	}
	if ShouldRetry(errors.New("boom")) {
		t.Error("plain errors should not retry")
	}
}
