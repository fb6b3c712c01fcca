package customHttpClient

import (
	"net/http"

	"github.com/AlenaSalanevich/financeadviser/internal/config"
)

var customTransport = &http.Transport{
	MaxIdleConns:        config.MaxIdleConns,
	MaxIdleConnsPerHost: config.MaxIdleConnsPerHost,
	IdleConnTimeout:     config.IdleConnTimeout,
}

// PooledClient is shared by the embedding backends so repeated batch calls
// reuse connections instead of redialing per batch.
func PooledClient() *http.Client {
	return &http.Client{Transport: customTransport}
}
