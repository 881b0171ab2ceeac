// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/ManuGH/pokemon-app/internal/config"
	"github.com/ManuGH/pokemon-app/internal/history"
	"github.com/ManuGH/pokemon-app/internal/persistence/sqlite"
	"github.com/ManuGH/pokemon-app/internal/pokeapi"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

const pikachuJSON = `{
  "id": 25, "name": "pikachu", "height": 4, "weight": 60,
  "sprites": {"front_default": "https://img.example/25.png"},
  "abilities": [
    {"ability": {"name": "static"}, "is_hidden": false, "slot": 1},
    {"ability": {"name": "lightning-rod"}, "is_hidden": true, "slot": 3}
  ],
  "species": {"name": "pikachu", "url": "https://pokeapi.co/api/v2/pokemon-species/25/"}
}`

const pikachuChainJSON = `{
  "id": 10,
  "chain": {
    "species": {"name": "pichu"}, "evolution_details": [],
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
}`

const eeveeJSON = `{"id": 133, "name": "eevee", "height": 3, "weight": 65, "abilities": [],
  "species": {"name": "eevee", "url": "https://pokeapi.co/api/v2/pokemon-species/133/"}}`

const eeveeChainJSON = `{
  "id": 67,
  "chain": {
    "species": {"name": "eevee"}, "evolution_details": [],
    "evolves_to": [
      {"species": {"name": "vaporeon"}, "evolution_details": [{"trigger": {"name": "use-item"}}], "evolves_to": []},
      {"species": {"name": "jolteon"}, "evolution_details": [{"trigger": {"name": "use-item"}}], "evolves_to": []},
      {"species": {"name": "flareon"}, "evolution_details": [{"trigger": {"name": "use-item"}}], "evolves_to": []}
    ]
  }
}`

func mustDecode[T any](t *testing.T, raw string) *T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal([]byte(raw), &v))
	return &v
}

// stubClient serves fixed creatures and chains. Unknown names answer the
// way the upstream does: a 404 with a plain "Not Found" body.
type stubClient struct {
	mu         sync.Mutex
	pokemon    map[string]*pokeapi.Pokemon
	chains     map[string]*pokeapi.EvolutionChain
	pokemonErr error
	chainErr   error
}

func newStubClient(t *testing.T) *stubClient {
	t.Helper()
	return &stubClient{
		pokemon: map[string]*pokeapi.Pokemon{
			"pikachu": mustDecode[pokeapi.Pokemon](t, pikachuJSON),
			"eevee":   mustDecode[pokeapi.Pokemon](t, eeveeJSON),
		},
		chains: map[string]*pokeapi.EvolutionChain{
			"pikachu": mustDecode[pokeapi.EvolutionChain](t, pikachuChainJSON),
			"eevee":   mustDecode[pokeapi.EvolutionChain](t, eeveeChainJSON),
		},
	}
}

func (c *stubClient) Pokemon(_ context.Context, term string) (*pokeapi.Pokemon, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pokemonErr != nil {
		return nil, c.pokemonErr
	}
	name, err := pokeapi.NormalizeTerm(term)
	if err != nil {
		return nil, err
	}
	p, ok := c.pokemon[name]
	if !ok {
		return nil, &pokeapi.APIError{Sentinel: pokeapi.ErrNotFound, Operation: "pokemon", Status: 404, Message: "Not Found"}
	}
	return p, nil
}

func (c *stubClient) EvolutionChain(_ context.Context, p *pokeapi.Pokemon) (*pokeapi.EvolutionChain, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.chainErr != nil {
		return nil, c.chainErr
	}
	chain, ok := c.chains[p.Name]
	if !ok {
		return nil, fmt.Errorf("failed to fetch species: %w",
			&pokeapi.APIError{Sentinel: pokeapi.ErrNotFound, Operation: "species", Status: 404, Message: "Not Found"})
	}
	return chain, nil
}

type testEnv struct {
	server   *Server
	client   *stubClient
	history  *history.Store
	recorder *tracetest.SpanRecorder
}

type envOption func(*config.AppConfig, *Deps)

func withoutHistory() envOption {
	return func(_ *config.AppConfig, d *Deps) { d.History = nil }
}

func newTestEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()

	store, err := history.Open(context.Background(), sqlite.MemoryPath, 100)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	cfg := config.Default()
	cfg.Version = "test"
	cfg.Server.RateLimit.Enabled = false

	client := newStubClient(t)
	deps := Deps{
		Client:         client,
		History:        store,
		TracerProvider: tp,
		Metrics:        http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte("# metrics\n")) }),
	}
	for _, opt := range opts {
		opt(&cfg, &deps)
	}

	srv, err := New(cfg, deps)
	require.NoError(t, err)
	return &testEnv{server: srv, client: client, history: store, recorder: recorder}
}

func (e *testEnv) do(t *testing.T, method, target, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	e.server.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) spans(name string) []sdktrace.ReadOnlySpan {
	var out []sdktrace.ReadOnlySpan
	for _, s := range e.recorder.Ended() {
		if s.Name() == name {
			out = append(out, s)
		}
	}
	return out
}

func attrs(kvs []attribute.KeyValue) map[string]attribute.Value {
	m := make(map[string]attribute.Value, len(kvs))
	for _, kv := range kvs {
		m[string(kv.Key)] = kv.Value
	}
	return m
}
