// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package pokeapi

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"

	"github.com/ManuGH/pokemon-app/internal/evolution"
	"github.com/ManuGH/pokemon-app/internal/metrics"
	"github.com/ManuGH/pokemon-app/internal/resilience"
	"github.com/ManuGH/pokemon-app/internal/telemetry"
)

func TestPokemon_Success(t *testing.T) {
	api := newFakeAPI(t)
	api.servePikachu()
	c := newTestClient(t, api.URL)

	p, err := c.Pokemon(t.Context(), "  PikaChu ")
	require.NoError(t, err)
	assert.Equal(t, 25, p.ID)
	assert.Equal(t, "pikachu", p.Name)
	assert.Equal(t, 4, p.Height)
	require.Len(t, p.Abilities, 2)
	assert.True(t, p.Abilities[1].IsHidden)

	span := c.span(t, telemetry.SpanFetchPokemon)
	got := attrs(span)
	assert.Equal(t, "  PikaChu ", got[telemetry.SearchTermKey])
	assert.Equal(t, "pokemon-app", got[telemetry.ServiceNameKey])
	assert.Equal(t, "1.0.0", got[telemetry.ServiceVersionKey])
	assert.Equal(t, "pikachu", got[telemetry.PokemonNameKey])
	assert.Equal(t, codes.Ok, span.Status().Code)
}

func TestPokemon_NotFoundPlainText(t *testing.T) {
	api := newFakeAPI(t)
	api.mux.HandleFunc("/pokemon/missingno", func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "Not Found", http.StatusNotFound)
	})
	c := newTestClient(t, api.URL)

	_, err := c.Pokemon(t.Context(), "missingno")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, "HTTP error! status: 404, message: Not Found", err.Error())

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode())

	span := c.span(t, telemetry.SpanFetchPokemon)
	got := attrs(span)
	assert.Equal(t, "true", got[telemetry.ErrorKey])
	assert.Equal(t, "404", got[telemetry.ErrorCodeKey])
	assert.Equal(t, err.Error(), got[telemetry.ErrorMessageKey])
	assert.Equal(t, codes.Error, span.Status().Code)
	require.NotEmpty(t, span.Events())
	assert.Equal(t, telemetry.EventException, span.Events()[0].Name)

	// Not-found answers never retry and never trip the breaker.
	assert.Equal(t, 1, api.count("/pokemon/missingno"))
	assert.Equal(t, resilience.StateClosed, c.BreakerState())
}

func TestPokemon_InvalidTermSkipsNetwork(t *testing.T) {
	api := newFakeAPI(t)
	c := newTestClient(t, api.URL)

	for _, term := range []string{"", "   ", "pika/chu", "../etc", "mr. mime"} {
		_, err := c.Pokemon(t.Context(), term)
		assert.ErrorIs(t, err, ErrInvalidTerm, "term %q", term)
	}
	api.mu.Lock()
	assert.Empty(t, api.hits)
	api.mu.Unlock()
}

func TestPokemon_CachedAfterFirstFetch(t *testing.T) {
	api := newFakeAPI(t)
	api.servePikachu()
	c := newTestClient(t, api.URL)

	for i := 0; i < 3; i++ {
		_, err := c.Pokemon(t.Context(), "pikachu")
		require.NoError(t, err)
	}
	assert.Equal(t, 1, api.count("/pokemon/pikachu"))
}

func TestPokemon_ConcurrentRequestsShareOneFetch(t *testing.T) {
	api := newFakeAPI(t)
	release := make(chan struct{})
	api.mux.HandleFunc("/pokemon/eevee", func(w http.ResponseWriter, _ *http.Request) {
		<-release
		_, _ = w.Write([]byte(`{"id":133,"name":"eevee"}`))
	})
	c := newTestClient(t, api.URL)

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = c.Pokemon(context.Background(), "eevee")
		}(i)
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, 1, api.count("/pokemon/eevee"))
}

func TestPokemon_RetriesServerErrors(t *testing.T) {
	api := newFakeAPI(t)
	var calls int
	var mu sync.Mutex
	api.mux.HandleFunc("/pokemon/ditto", func(w http.ResponseWriter, _ *http.Request) {
		mu.Lock()
		calls++
		n := calls
		mu.Unlock()
		if n == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"id":132,"name":"ditto"}`))
	})
	c := newTestClient(t, api.URL)

	p, err := c.Pokemon(t.Context(), "ditto")
	require.NoError(t, err)
	assert.Equal(t, "ditto", p.Name)
	assert.Equal(t, 2, api.count("/pokemon/ditto"))
}

func TestPokemon_ServerErrorMessageFromJSON(t *testing.T) {
	api := newFakeAPI(t)
	api.json("/pokemon/mew", http.StatusInternalServerError, `{"message": "database offline"}`)
	c := newTestClient(t, api.URL, func(o *Options) { o.MaxRetries = -1 })

	_, err := c.Pokemon(t.Context(), "mew")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUpstreamError)
	assert.Equal(t, "HTTP error! status: 500, message: database offline", err.Error())
}

func TestPokemon_CircuitOpensOnRepeatedFailures(t *testing.T) {
	api := newFakeAPI(t)
	api.json("/pokemon/mewtwo", http.StatusServiceUnavailable, `{}`)
	c := newTestClient(t, api.URL, func(o *Options) {
		o.MaxRetries = -1
		o.BreakerThreshold = 2
		o.BreakerReset = time.Hour
	})

	for i := 0; i < 2; i++ {
		_, err := c.Pokemon(t.Context(), "mewtwo")
		require.ErrorIs(t, err, ErrUpstreamError)
	}
	assert.Equal(t, resilience.StateOpen, c.BreakerState())

	_, err := c.Pokemon(t.Context(), "mewtwo")
	assert.ErrorIs(t, err, resilience.ErrCircuitOpen)
	assert.ErrorIs(t, err, ErrUpstreamUnavailable)
	assert.Equal(t, 2, api.count("/pokemon/mewtwo"))
	assert.ErrorIs(t, c.Ping(t.Context()), resilience.ErrCircuitOpen)
}

func TestPokemon_TransportFailure(t *testing.T) {
	api := newFakeAPI(t)
	url := api.URL
	api.Close()
	c := newTestClient(t, url, func(o *Options) { o.MaxRetries = -1 })

	_, err := c.Pokemon(t.Context(), "pikachu")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUpstreamUnavailable)
	assert.Equal(t, metrics.OutcomeError, Outcome(err))
}

func TestEvolutionChain_Success(t *testing.T) {
	api := newFakeAPI(t)
	api.servePikachu()
	c := newTestClient(t, api.URL)

	p, err := c.Pokemon(t.Context(), "pikachu")
	require.NoError(t, err)

	chain, err := c.EvolutionChain(t.Context(), p)
	require.NoError(t, err)
	assert.Equal(t, 10, chain.ID)

	stages := chain.Stages()
	require.Len(t, stages, 3)
	assert.Equal(t, []string{"pichu", "pikachu", "raichu"}, stageNames(stages))
	assert.Equal(t, "use-item", stages[2].TriggerName())

	span := c.span(t, telemetry.SpanFetchEvolutionChain)
	got := attrs(span)
	assert.Equal(t, "pikachu", got[telemetry.PokemonNameKey])
	assert.Equal(t, "10", got[telemetry.EvolutionChainIDKey])

	// Species then chain, each exactly once.
	assert.Equal(t, 1, api.count("/pokemon-species/25/"))
	assert.Equal(t, 1, api.count("/evolution-chain/10/"))
}

func TestEvolutionChain_SpeciesFailure(t *testing.T) {
	api := newFakeAPI(t)
	api.json("/pokemon-species/25/", http.StatusNotFound, `{"detail":"Not found."}`)
	c := newTestClient(t, api.URL)

	p := &Pokemon{Name: "pikachu", Species: NamedResource{Name: "pikachu", URL: api.URL + "/pokemon-species/25/"}}
	_, err := c.EvolutionChain(t.Context(), p)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, `failed to fetch species: HTTP error! status: 404, message: {"detail":"Not found."}`, err.Error())

	got := attrs(c.span(t, telemetry.SpanFetchEvolutionChain))
	assert.Equal(t, "true", got[telemetry.ErrorKey])
}

func TestEvolutionChain_RejectsForeignHost(t *testing.T) {
	api := newFakeAPI(t)
	c := newTestClient(t, api.URL)

	p := &Pokemon{Name: "pikachu", Species: NamedResource{URL: "http://evil.example/pokemon-species/25/"}}
	_, err := c.EvolutionChain(t.Context(), p)
	assert.ErrorIs(t, err, ErrBadResponse)
}

func TestEvolutionChain_NilPokemon(t *testing.T) {
	c := newTestClient(t, "http://127.0.0.1:1")
	_, err := c.EvolutionChain(t.Context(), nil)
	assert.ErrorIs(t, err, ErrInvalidTerm)
}

func TestEvolutionChain_FallsBackToSpeciesByName(t *testing.T) {
	api := newFakeAPI(t)
	api.servePikachu()
	api.json("/pokemon-species/pikachu", http.StatusOK, `{"id":25,"name":"pikachu","evolution_chain":{"url":"/evolution-chain/10/"}}`)
	c := newTestClient(t, api.URL)

	chain, err := c.EvolutionChain(t.Context(), &Pokemon{Name: "pikachu"})
	require.NoError(t, err)
	assert.Equal(t, 10, chain.ID)
}

func TestNewClient_RejectsBadBaseURL(t *testing.T) {
	_, err := NewClient(Options{BaseURL: "ftp://pokeapi.co"})
	assert.Error(t, err)
	_, err = NewClient(Options{BaseURL: "://"})
	assert.Error(t, err)
}

func stageNames(stages []evolution.Stage) []string {
	out := make([]string, len(stages))
	for i, s := range stages {
		out[i] = s.Name
	}
	return out
}
