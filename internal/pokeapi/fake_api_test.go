// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package pokeapi

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/ManuGH/pokemon-app/internal/cache"
)

// fakeAPI serves a tiny slice of the PokeAPI and counts requests per path.
type fakeAPI struct {
	*httptest.Server
	mu   sync.Mutex
	hits map[string]int
	mux  *http.ServeMux
}

func newFakeAPI(t *testing.T) *fakeAPI {
	t.Helper()
	f := &fakeAPI{hits: make(map[string]int), mux: http.NewServeMux()}
	f.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.hits[r.URL.Path]++
		f.mu.Unlock()
		f.mux.ServeHTTP(w, r)
	}))
	t.Cleanup(f.Close)
	return f
}

func (f *fakeAPI) count(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hits[path]
}

func (f *fakeAPI) json(path string, status int, body string) {
	f.mux.HandleFunc(path, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	})
}

// servePikachu installs pokemon, species and chain documents for pikachu.
func (f *fakeAPI) servePikachu() {
	f.json("/pokemon/pikachu", http.StatusOK, fmt.Sprintf(`{
		"id": 25, "name": "pikachu", "height": 4, "weight": 60,
		"sprites": {"front_default": "https://img.example/25.png"},
		"abilities": [
			{"ability": {"name": "static", "url": ""}, "is_hidden": false, "slot": 1},
			{"ability": {"name": "lightning-rod", "url": ""}, "is_hidden": true, "slot": 3}
		],
		"species": {"name": "pikachu", "url": "%s/pokemon-species/25/"}
	}`, f.URL))
	f.json("/pokemon-species/25/", http.StatusOK, fmt.Sprintf(`{
		"id": 25, "name": "pikachu",
		"evolution_chain": {"url": "%s/evolution-chain/10/"}
	}`, f.URL))
	f.json("/evolution-chain/10/", http.StatusOK, `{
		"id": 10,
		"chain": {
			"species": {"name": "pichu"},
			"evolution_details": [],
			"evolves_to": [{
				"species": {"name": "pikachu"},
				"evolution_details": [{"min_level": null, "trigger": {"name": "level-up"}}],
				"evolves_to": [{
					"species": {"name": "raichu"},
					"evolution_details": [{"min_level": null, "trigger": {"name": "use-item"}}],
					"evolves_to": []
				}]
			}]
		}
	}`)
}

type testClient struct {
	*Client
	spans *tracetest.SpanRecorder
}

func newTestClient(t *testing.T, baseURL string, mutate ...func(*Options)) testClient {
	t.Helper()

	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = tp.Shutdown(t.Context()) })

	logger := zerolog.Nop()
	opts := Options{
		BaseURL:        baseURL,
		Timeout:        2 * time.Second,
		Backoff:        time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
		RateLimit:      1000,
		RateLimitBurst: 1000,
		Cache:          cache.NewMemoryCache(0),
		TracerProvider: tp,
		Logger:         &logger,
	}
	for _, m := range mutate {
		m(&opts)
	}

	c, err := NewClient(opts)
	require.NoError(t, err)
	return testClient{Client: c, spans: recorder}
}

// span returns the single ended span with the given name.
func (tc testClient) span(t *testing.T, name string) sdktrace.ReadOnlySpan {
	t.Helper()
	var found []sdktrace.ReadOnlySpan
	for _, s := range tc.spans.Ended() {
		if s.Name() == name {
			found = append(found, s)
		}
	}
	require.Len(t, found, 1, "spans named %q", name)
	return found[0]
}

func attrs(s sdktrace.ReadOnlySpan) map[string]string {
	out := make(map[string]string, len(s.Attributes()))
	for _, kv := range s.Attributes() {
		out[string(kv.Key)] = kv.Value.Emit()
	}
	return out
}
