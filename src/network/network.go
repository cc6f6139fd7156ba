package network

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"market-pulse/src/interfaces"
	"market-pulse/src/logger"
	"market-pulse/src/models"
	"market-pulse/src/resilience"
)

const defaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// -----------------------------------------------------------------------------
// Network Manager
// -----------------------------------------------------------------------------

// NetworkManager performs single-shot outbound requests. Retries and circuit
// breaking live in the resilience layer; this layer only classifies failures
// as transient or permanent.
type NetworkManager struct {
	Config *models.MNetworkConfig
	Client *http.Client
	Logger *logger.Logger
}

var _ interfaces.INetworkManager = (*NetworkManager)(nil)

// -----------------------------------------------------------------------------

func NewNetworkManager(cfg *models.MNetworkConfig, log *logger.Logger) *NetworkManager {
	return &NetworkManager{
		Config: cfg,
		Client: &http.Client{
			Timeout: time.Duration(cfg.RequestTimeout) * time.Second,
		},
		Logger: log,
	}
}

// -----------------------------------------------------------------------------

// Get performs one GET request and returns the body. Connectivity failures,
// 429 and 5xx responses come back transient; other non-2xx come back
// permanent.
func (nm *NetworkManager) Get(ctx context.Context, urlStr string, params map[string]string) ([]byte, error) {
	reqUrl, err := url.Parse(urlStr)
	if err != nil {
		return nil, resilience.Permanent("parse url", err)
	}

	q := reqUrl.Query()
	for k, v := range params {
		q.Add(k, v)
	}
	reqUrl.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqUrl.String(), nil)
	if err != nil {
		return nil, resilience.Permanent("build request", err)
	}
	req.Header.Set("User-Agent", nm.userAgent())

	resp, err := nm.Client.Do(req)
	if err != nil {
		// Timeouts, DNS failures, refused connections
		return nil, resilience.Transient("http get", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resilience.Transient("read body", err)
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return body, nil
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, resilience.Transient("http get", fmt.Errorf("status %d from %s", resp.StatusCode, reqUrl.Host))
	default:
		return nil, resilience.Permanent("http get", fmt.Errorf("status %d from %s", resp.StatusCode, reqUrl.Host))
	}
}

// -----------------------------------------------------------------------------

func (nm *NetworkManager) userAgent() string {
	if nm.Config.UserAgent != "" {
		return nm.Config.UserAgent
	}
	return defaultUserAgent
}
