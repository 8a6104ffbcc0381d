package yahoo

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"intraday-lab/internal/domain"
	"intraday-lab/internal/marketdata"
)

// chartBody mimics the v8 chart payload: four timestamps where the
// third is a null bar that must be dropped.
const chartBody = `{
  "chart": {
    "result": [{
      "timestamp": [1742913000, 1742913060, 1742913120, 1742913180],
      "indicators": {
        "quote": [{
          "open":   [100.0, 100.5, null, 101.0],
          "high":   [100.6, 101.2, null, 101.4],
          "low":    [99.8, 100.1, null, 100.7],
          "close":  [100.5, 101.0, null, 101.2],
          "volume": [1200, 900, null, 1500]
        }]
      }
    }],
    "error": null
  }
}`

const errorBody = `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(ClientOptions{
		BaseURL:         srv.URL,
		RequestsPerSec:  100,
		MaxRetryElapsed: 200 * time.Millisecond,
	})
}

func TestClient_BarsByPeriod(t *testing.T) {
	var gotPath, gotQuery string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		w.Write([]byte(chartBody))
	})

	bars, err := client.BarsByPeriod(context.Background(), "AAPL", domain.Interval1Min, domain.Period5Days)
	if err != nil {
		t.Fatalf("BarsByPeriod: %v", err)
	}

	if gotPath != "/v8/finance/chart/AAPL" {
		t.Errorf("path = %q", gotPath)
	}
	if gotQuery != "interval=1m&range=5d" {
		t.Errorf("query = %q", gotQuery)
	}

	// The null bar is dropped, leaving three.
	if len(bars) != 3 {
		t.Fatalf("got %d bars, want 3", len(bars))
	}
	if bars[0].Close != 100.5 || bars[2].Close != 101.2 {
		t.Errorf("unexpected closes: %v, %v", bars[0].Close, bars[2].Close)
	}
	for i := 1; i < len(bars); i++ {
		if !bars[i-1].Time.Before(bars[i].Time) {
			t.Errorf("bars not ordered at %d", i)
		}
	}
}

func TestClient_BarsByRange_Bounds(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(chartBody))
	})

	start := time.Unix(1742913000, 0)
	end := time.Unix(1742913180, 0) // exact timestamp of the last bar

	bars, err := client.BarsByRange(context.Background(), "AAPL", domain.Interval1Min, start, end)
	if err != nil {
		t.Fatalf("BarsByRange: %v", err)
	}
	// [start, end): the bar at exactly end is excluded.
	if len(bars) != 2 {
		t.Fatalf("got %d bars, want 2", len(bars))
	}
}

func TestClient_APIError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(errorBody))
	})

	_, err := client.BarsByPeriod(context.Background(), "NOPE", domain.Interval1Day, domain.Period1Day)
	if err == nil {
		t.Fatal("expected API error")
	}
}

func TestClient_ClientErrorNotRetried(t *testing.T) {
	var calls int
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := client.BarsByPeriod(context.Background(), "AAPL", domain.Interval1Day, domain.Period1Day)
	if err == nil {
		t.Fatal("expected status error")
	}
	var statusErr *marketdata.HTTPStatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusNotFound {
		t.Fatalf("error = %v, want 404 status error", err)
	}
	if calls != 1 {
		t.Errorf("server called %d times, want 1 (no retries on 4xx)", calls)
	}
}

func TestClient_ServerErrorRetried(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(chartBody))
	}))
	defer srv.Close()

	// Default backoff starts at 500ms, so give retries room to run.
	client := NewClient(ClientOptions{
		BaseURL:         srv.URL,
		RequestsPerSec:  100,
		MaxRetryElapsed: 10 * time.Second,
	})

	bars, err := client.BarsByPeriod(context.Background(), "AAPL", domain.Interval1Min, domain.Period1Day)
	if err != nil {
		t.Fatalf("BarsByPeriod after retries: %v", err)
	}
	if calls != 3 {
		t.Errorf("server called %d times, want 3", calls)
	}
	if len(bars) != 3 {
		t.Errorf("got %d bars, want 3", len(bars))
	}
}

func TestClient_EmptyResultIsNotError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"chart":{"result":[],"error":null}}`))
	})

	bars, err := client.BarsByPeriod(context.Background(), "THIN", domain.Interval1Day, domain.Period1Day)
	if err != nil {
		t.Fatalf("empty result should not error: %v", err)
	}
	if len(bars) != 0 {
		t.Errorf("got %d bars, want 0", len(bars))
	}
}
