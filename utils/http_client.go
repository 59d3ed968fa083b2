package utils

import (
	"net/http"
	"sync"
	"time"

	"github.com/paycrest/cardflow/config"
)

var (
	httpClient *http.Client
	once       sync.Once
)

// GetHTTPClient returns a singleton HTTP client with proper connection
// pooling. This prevents creating new clients repeatedly and ensures
// connections are reused. The request timeout comes from ClientConfig;
// the SDK imposes no other timeouts of its own.
func GetHTTPClient() *http.Client {
	once.Do(func() {
		transport := &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		}
		httpClient = &http.Client{
			Transport: transport,
			Timeout:   config.ClientConfig().RequestTimeout,
		}
	})
	return httpClient
}

// CloseHTTPClient closes idle connections in the HTTP client.
// Call this during host application shutdown to clean up resources.
func CloseHTTPClient() {
	if httpClient != nil && httpClient.Transport != nil {
		if transport, ok := httpClient.Transport.(*http.Transport); ok {
			transport.CloseIdleConnections()
		}
	}
}
