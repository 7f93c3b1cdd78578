package integration

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/sportscache/sportscache/internal/testutil"
	"github.com/sportscache/sportscache/pkg/cache"
	"github.com/sportscache/sportscache/pkg/codec"
	"github.com/sportscache/sportscache/pkg/proxy"
	"github.com/sportscache/sportscache/pkg/router"
	"github.com/sportscache/sportscache/pkg/upstream"
)

// setupRedis creates a Redis container for integration testing.
func setupRedis(t *testing.T) (*redis.Client, string, func()) {
	t.Helper()

	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections"),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("Failed to start Redis container: %v", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}

	port, err := container.MappedPort(ctx, "6379")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	addr := host + ":" + port.Port()
	redisClient := redis.NewClient(&redis.Options{Addr: addr})

	cleanup := func() {
		redisClient.Close()
		container.Terminate(ctx)
	}

	return redisClient, addr, cleanup
}

// setupProxy wires a full handler against a mock upstream and the given
// cache store (nil for degraded mode).
func setupProxy(mock *testutil.MockUpstream, store *cache.Store) *proxy.Handler {
	routes := router.New([]router.Route{
		{Prefix: "football-v2", BaseURL: mock.URL() + "/v2"},
		{Prefix: "football-v3", BaseURL: mock.URL() + "/v3"},
		{Prefix: "cricket-v2", BaseURL: mock.URL() + "/cricket"},
	}, "test-key")

	fetcher := upstream.New("test-key", 5*time.Second, zerolog.Nop())

	var c proxy.Cache
	if store != nil {
		c = store
	}
	return proxy.NewHandler(routes, c, fetcher, 60*time.Second, zerolog.Nop())
}

func get(handler http.Handler, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	return w
}

// TestCacheAsideFlow covers the full miss-then-hit cycle against real
// Redis: first request fetches upstream and populates the cache, the
// second is served from Redis without a new upstream call.
func TestCacheAsideFlow(t *testing.T) {
	redisClient, addr, cleanup := setupRedis(t)
	defer cleanup()

	mock := testutil.NewMockUpstream()
	defer mock.Close()
	mock.SetResponse("/v2/fixtures", testutil.MockResponse{
		Body: `{"data":[{"id":1,"home":"Arsenal","away":"Spurs"}]}`,
	})

	ctx := context.Background()
	store, err := cache.New(ctx, cache.Config{Addr: addr}, zerolog.Nop())
	if err != nil {
		t.Fatalf("cache.New failed: %v", err)
	}
	defer store.Close()

	handler := setupProxy(mock, store)

	// Request 1: cache miss.
	w1 := get(handler, "/football-v2/fixtures?date=2024-01-01")
	if w1.Code != http.StatusOK {
		t.Fatalf("request 1 status = %d, want 200", w1.Code)
	}
	body1, _ := io.ReadAll(w1.Result().Body)
	if mock.RequestCount() != 1 {
		t.Fatalf("upstream requests = %d, want 1", mock.RequestCount())
	}
	if got := mock.LastRequestHeader().Get("Authorization"); got != "test-key" {
		t.Errorf("Authorization header = %q, want test-key", got)
	}

	// The stored entry is compressed and carries a TTL of at most 60s.
	key := mock.URL() + "/v2/fixtures?date=2024-01-01&api_token=test-key"
	stored, err := redisClient.Get(ctx, key).Result()
	if err != nil {
		t.Fatalf("entry not in Redis under resolved URL: %v", err)
	}
	decoded, err := codec.Decompress(stored)
	if err != nil {
		t.Fatalf("stored entry does not decompress: %v", err)
	}
	if string(decoded) != string(body1) {
		t.Errorf("stored body = %q, served body = %q", decoded, body1)
	}
	ttl, err := redisClient.TTL(ctx, key).Result()
	if err != nil {
		t.Fatalf("TTL failed: %v", err)
	}
	if ttl <= 0 || ttl > 60*time.Second {
		t.Errorf("TTL = %v, want (0, 60s]", ttl)
	}

	// Request 2: cache hit, same body, no new upstream call.
	w2 := get(handler, "/football-v2/fixtures?date=2024-01-01")
	if w2.Code != http.StatusOK {
		t.Fatalf("request 2 status = %d, want 200", w2.Code)
	}
	body2, _ := io.ReadAll(w2.Result().Body)
	if string(body2) != string(body1) {
		t.Errorf("cached body = %q, want %q", body2, body1)
	}
	if mock.RequestCount() != 1 {
		t.Errorf("upstream requests = %d after hit, want still 1", mock.RequestCount())
	}
}

// TestDistinctQueriesGetDistinctEntries verifies the URL-as-key policy.
func TestDistinctQueriesGetDistinctEntries(t *testing.T) {
	_, addr, cleanup := setupRedis(t)
	defer cleanup()

	mock := testutil.NewMockUpstream()
	defer mock.Close()

	store, err := cache.New(context.Background(), cache.Config{Addr: addr}, zerolog.Nop())
	if err != nil {
		t.Fatalf("cache.New failed: %v", err)
	}
	defer store.Close()

	handler := setupProxy(mock, store)

	get(handler, "/football-v2/fixtures?date=2024-01-01")
	get(handler, "/football-v2/fixtures?date=2024-01-02")
	get(handler, "/football-v2/fixtures?date=2024-01-01")

	if mock.RequestCount() != 2 {
		t.Errorf("upstream requests = %d, want 2 (one per distinct query)", mock.RequestCount())
	}
}

// TestDegradedMode verifies the proxy keeps serving when Redis is gone.
func TestDegradedMode(t *testing.T) {
	mock := testutil.NewMockUpstream()
	defer mock.Close()
	mock.SetResponse("/cricket/livescores", testutil.MockResponse{
		Body: `{"data":[{"match":42}]}`,
	})

	// nil store: Redis never configured or connect failed at startup.
	handler := setupProxy(mock, nil)

	for i := 0; i < 3; i++ {
		w := get(handler, "/cricket-v2/livescores")
		if w.Code != http.StatusOK {
			t.Fatalf("request %d status = %d, want 200", i, w.Code)
		}
		body, _ := io.ReadAll(w.Result().Body)
		if string(body) != `{"data":[{"match":42}]}` {
			t.Errorf("request %d body = %q", i, body)
		}
	}

	if mock.RequestCount() != 3 {
		t.Errorf("upstream requests = %d, want 3 (every request passes through)", mock.RequestCount())
	}
}

// TestUpstreamErrorBodyIsCached verifies that upstream 4xx/5xx bodies
// are passed through and cached like any other payload.
func TestUpstreamErrorBodyIsCached(t *testing.T) {
	_, addr, cleanup := setupRedis(t)
	defer cleanup()

	mock := testutil.NewMockUpstream()
	defer mock.Close()
	mock.SetResponse("/v3/livescores", testutil.MockResponse{
		StatusCode: http.StatusTooManyRequests,
		Body:       `{"error":"rate limit"}`,
	})

	store, err := cache.New(context.Background(), cache.Config{Addr: addr}, zerolog.Nop())
	if err != nil {
		t.Fatalf("cache.New failed: %v", err)
	}
	defer store.Close()

	handler := setupProxy(mock, store)

	w1 := get(handler, "/football-v3/livescores")
	if w1.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (status not validated)", w1.Code)
	}

	w2 := get(handler, "/football-v3/livescores")
	body, _ := io.ReadAll(w2.Result().Body)
	if string(body) != `{"error":"rate limit"}` {
		t.Errorf("cached error body = %q", body)
	}
	if mock.RequestCount() != 1 {
		t.Errorf("upstream requests = %d, want 1", mock.RequestCount())
	}
}
