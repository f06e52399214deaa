// Package backend implements the JSON HTTP clients for the external
// collaborators: tenant resolution, retrieval, intervention decisions,
// feedback storage, and insights ingest.
package backend

import (
	"net"
	"net/http"
	"time"
)

// sharedHTTPClient returns an optimized HTTP client with connection pooling.
// All backend calls share one client instead of building one per request.
func sharedHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	transport := &http.Transport{
		MaxIdleConns:        20,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: timeout,
		ExpectContinueTimeout: 1 * time.Second,
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}
