package customHttpClient

import (
	"net/http"
	"sync"

	"github.com/ragdemo/docchat/internal/config"
)

var (
	once   sync.Once
	client *http.Client
)

// GetClient returns the process-wide pooled client shared by the model and
// embedding clients. It has no overall timeout: a generation stream ends when
// the model stops or the request context is cancelled.
func GetClient() *http.Client {
	once.Do(func() {
		transport := http.DefaultTransport.(*http.Transport).Clone()
		transport.MaxIdleConns = config.MaxIdleConns
		transport.MaxIdleConnsPerHost = config.MaxIdleConnsPerHost
		transport.IdleConnTimeout = config.IdleConnTimeout
		client = &http.Client{Transport: transport}
	})
	return client
}
