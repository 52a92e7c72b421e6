package customHttpClient

import (
	"net/http"
	"sync"

	"github.com/akolanti/RagBot/internal/config"
)

var (
	once   sync.Once
	pooled *http.Client
)

var customTransport = &http.Transport{
	MaxIdleConns:        config.MaxIdleConns,
	MaxIdleConnsPerHost: config.MaxIdleConnsPerHost,
	IdleConnTimeout:     config.IdleConnTimeout,
}

// GetPooledClient is handed to the provider SDKs so embedding and LLM
// calls reuse connections instead of re-dialing per request.
func GetPooledClient() *http.Client {
	once.Do(func() {
		pooled = &http.Client{Transport: customTransport}
	})
	return pooled
}
