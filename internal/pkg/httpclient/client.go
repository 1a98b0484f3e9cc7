// Package httpclient builds the HTTP clients used to reach the Llamero control plane.
package httpclient

import (
	"net"
	"net/http"
	"time"
)

// Config holds transport options shared by the console's HTTP clients.
type Config struct {
	// RequestTimeout bounds a whole buffered request/response cycle.
	// Ignored by NewStreaming: model pulls and pushes run for minutes.
	RequestTimeout time.Duration

	// DialTimeout is the maximum time to wait for a TCP connect.
	DialTimeout time.Duration

	// TLSHandshakeTimeout is the maximum time to wait for the TLS handshake.
	TLSHandshakeTimeout time.Duration

	// ResponseHeaderTimeout is the time to wait for response headers after
	// the request is fully written. This is the only bound applied to
	// streaming calls.
	ResponseHeaderTimeout time.Duration

	// IdleConnTimeout closes keep-alive connections left idle this long.
	IdleConnTimeout time.Duration
}

// DefaultConfig returns transport settings sized for an interactive console
// talking to a single control plane.
func DefaultConfig() Config {
	return Config{
		RequestTimeout:        60 * time.Second,
		DialTimeout:           10 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 60 * time.Second,
		IdleConnTimeout:       90 * time.Second,
	}
}

func transport(cfg Config) *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   cfg.DialTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          10,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       cfg.IdleConnTimeout,
		TLSHandshakeTimeout:   cfg.TLSHandshakeTimeout,
		ResponseHeaderTimeout: cfg.ResponseHeaderTimeout,
		ForceAttemptHTTP2:     true,
		ExpectContinueTimeout: 1 * time.Second,
	}
}

// New returns a client for buffered request/response calls.
func New(cfg Config) *http.Client {
	return &http.Client{
		Transport: transport(cfg),
		Timeout:   cfg.RequestTimeout,
	}
}

// NewStreaming returns a client with no overall deadline, for responses that
// are consumed incrementally. ResponseHeaderTimeout still applies so a dead
// backend fails fast instead of hanging before the first byte.
func NewStreaming(cfg Config) *http.Client {
	return &http.Client{Transport: transport(cfg)}
}
