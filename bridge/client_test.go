package bridge

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(ts *httptest.Server) *Client {
	c := NewClient(ts.URL, time.Second, 2*time.Second, nil)
	c.HTTPClient = ts.Client()
	return c
}

func TestFetch_DecodesOutfitsAndSendsRequest(t *testing.T) {
	var got searchRequest
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/search", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"outfits":[
  {"imageUrl":"http://bridge/images/a.jpg","sourceUrl":"https://i.pinimg.com/a.jpg","captionHint":"y2k fit",
   "products":[{"id":"y2k-0-1","name":"Y2k Jacket","brand":"fitscroll edit","priceLabel":"$89"}]},
  {"imageUrl":"http://bridge/images/b.jpg","captionHint":"streetwear fit","products":[]}
]}`))
	}))
	defer ts.Close()

	out := newTestClient(ts).Fetch(context.Background(), []string{"y2k", "  ", "streetwear"}, 5, true)

	assert.Equal(t, []string{"y2k", "streetwear"}, got.Keywords)
	assert.Equal(t, 5, got.Limit)
	assert.True(t, got.Fresh)

	require.Len(t, out, 2)
	assert.Equal(t, "https://i.pinimg.com/a.jpg", out[0].SourceURL)
	assert.Equal(t, "y2k fit", out[0].Caption)
	require.Len(t, out[0].Products, 1)
	assert.Equal(t, "$89", out[0].Products[0].PriceLabel)
	assert.Equal(t, "http://bridge/images/b.jpg", out[1].ReferenceImage())
}

func TestFetch_TruncatesToLimit(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"outfits":[{"imageUrl":"a"},{"imageUrl":"b"},{"imageUrl":"c"}]}`))
	}))
	defer ts.Close()

	out := newTestClient(ts).Fetch(context.Background(), []string{"x"}, 2, false)
	assert.Len(t, out, 2)
}

func TestFetch_ErrorStatusYieldsEmpty(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"boom"}`, http.StatusInternalServerError)
	}))
	defer ts.Close()

	out := newTestClient(ts).Fetch(context.Background(), []string{"x"}, 3, false)
	require.NotNil(t, out)
	assert.Empty(t, out)
}

func TestFetch_InvalidJSONYieldsEmpty(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer ts.Close()

	assert.Empty(t, newTestClient(ts).Fetch(context.Background(), []string{"x"}, 3, false))
}

func TestFetch_NetworkFailureYieldsEmpty(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	c := NewClient(url, time.Second, time.Second, nil)
	assert.Empty(t, c.Fetch(context.Background(), []string{"x"}, 3, false))
}

func TestFetch_SlowBackendTimesOut(t *testing.T) {
	release := make(chan struct{})
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer ts.Close()
	defer close(release)

	c := newTestClient(ts)
	c.Timeout = 50 * time.Millisecond
	c.RefreshTimeout = time.Hour

	start := time.Now()
	out := c.Fetch(context.Background(), []string{"x"}, 3, false)
	assert.Empty(t, out)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestTimeoutFor(t *testing.T) {
	c := &Client{}
	assert.Equal(t, 30*time.Second, c.timeoutFor(false))
	assert.Equal(t, 2*time.Minute, c.timeoutFor(true))

	c.Timeout, c.RefreshTimeout = time.Second, time.Minute
	assert.Equal(t, time.Second, c.timeoutFor(false))
	assert.Equal(t, time.Minute, c.timeoutFor(true))
}

func TestHealthCheck(t *testing.T) {
	var unhealthy atomic.Bool
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)
		if unhealthy.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}))
	defer ts.Close()

	c := newTestClient(ts)
	assert.True(t, c.HealthCheck(context.Background()))

	unhealthy.Store(true)
	assert.False(t, c.HealthCheck(context.Background()))
}
