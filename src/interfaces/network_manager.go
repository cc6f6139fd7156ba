package interfaces

import "context"

// -----------------------------------------------------------------------------
// INetworkManager interface for outbound HTTP. Single-shot: retry policy
// belongs to the resilience layer, not here.
// -----------------------------------------------------------------------------

type INetworkManager interface {

	// Get performs one GET request and returns the response body. Failures are
	// classified as transient or permanent (see resilience package).
	Get(ctx context.Context, url string, params map[string]string) ([]byte, error)
}
