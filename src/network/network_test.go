package network

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"market-pulse/src/logger"
	"market-pulse/src/models"
	"market-pulse/src/resilience"
)

func testManager() *NetworkManager {
	return NewNetworkManager(&models.MNetworkConfig{RequestTimeout: 2}, logger.NewNop("test"))
}

func TestGet_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("symbols") != "AAPL" {
			t.Errorf("Query params not encoded: %s", r.URL.RawQuery)
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	body, err := testManager().Get(context.Background(), srv.URL, map[string]string{"symbols": "AAPL"})
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(body) != `{"ok":true}` {
		t.Errorf("Unexpected body %s", body)
	}
}

func TestGet_StatusClassification(t *testing.T) {
	cases := []struct {
		status    int
		transient bool
	}{
		{429, true},
		{500, true},
		{503, true},
		{404, false},
		{400, false},
	}

	for _, tc := range cases {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
		}))

		_, err := testManager().Get(context.Background(), srv.URL, nil)
		srv.Close()

		if err == nil {
			t.Fatalf("Status %d must be an error", tc.status)
		}
		if tc.transient && !resilience.IsTransient(err) {
			t.Errorf("Status %d must be transient, got %v", tc.status, err)
		}
		if !tc.transient && !resilience.IsPermanent(err) {
			t.Errorf("Status %d must be permanent, got %v", tc.status, err)
		}
	}
}

func TestGet_ConnectionRefusedIsTransient(t *testing.T) {
	// Grab a port nothing listens on
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := testManager().Get(context.Background(), url, nil)
	if !resilience.IsTransient(err) {
		t.Errorf("Connection failure must be transient, got %v", err)
	}
}

func TestGet_BadURLIsPermanent(t *testing.T) {
	_, err := testManager().Get(context.Background(), "://not-a-url", nil)
	if !resilience.IsPermanent(err) {
		t.Errorf("Unparseable URL must be permanent, got %v", err)
	}
}
