// Package http builds the outbound client used for provider API calls.
package http

import (
	"crypto/tls"
	"net"
	"net/http"
	"time"
)

// ClientConfig tunes the pooled transport for one upstream host
type ClientConfig struct {
	Timeout               time.Duration // whole request, including reading the body
	DialTimeout           time.Duration
	TLSHandshakeTimeout   time.Duration
	ResponseHeaderTimeout time.Duration
	KeepAlive             time.Duration
	IdleConnTimeout       time.Duration
	MaxIdleConnsPerHost   int
	MaxConnsPerHost       int
}

// ProviderClientConfig returns settings for the BNPL provider.
// Capture and refund calls block shipment and credit memo handling, so waits are short.
func ProviderClientConfig(timeout time.Duration) ClientConfig {
	cfg := ClientConfig{
		Timeout:               timeout,
		DialTimeout:           5 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ResponseHeaderTimeout: 20 * time.Second,
		KeepAlive:             60 * time.Second,
		IdleConnTimeout:       90 * time.Second,
		MaxIdleConnsPerHost:   50,
		MaxConnsPerHost:       100,
	}
	if timeout > 0 && cfg.ResponseHeaderTimeout > timeout {
		cfg.ResponseHeaderTimeout = timeout
	}
	return cfg
}

// NewClient creates an HTTP/2 capable client with keep-alive pooling and TLS 1.2+
func NewClient(cfg ClientConfig) *http.Client {
	dialer := &net.Dialer{
		Timeout:   cfg.DialTimeout,
		KeepAlive: cfg.KeepAlive,
	}

	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		MaxIdleConns:          cfg.MaxIdleConnsPerHost,
		MaxIdleConnsPerHost:   cfg.MaxIdleConnsPerHost,
		MaxConnsPerHost:       cfg.MaxConnsPerHost,
		IdleConnTimeout:       cfg.IdleConnTimeout,
		TLSHandshakeTimeout:   cfg.TLSHandshakeTimeout,
		ResponseHeaderTimeout: cfg.ResponseHeaderTimeout,
		ExpectContinueTimeout: time.Second,
		TLSClientConfig:       &tls.Config{MinVersion: tls.VersionTLS12},
		ForceAttemptHTTP2:     true,
	}

	return &http.Client{
		Transport: transport,
		Timeout:   cfg.Timeout,
		// Provider endpoints never redirect
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}
