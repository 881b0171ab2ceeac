// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package api

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/ManuGH/pokemon-app/internal/history"
	"github.com/ManuGH/pokemon-app/internal/pokeapi"
	"github.com/ManuGH/pokemon-app/internal/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPage_Empty(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "Fetch Pokemon")
	assert.NotContains(t, rec.Body.String(), "pokemon-card")

	mounts := env.spans(telemetry.SpanComponentMount)
	require.Len(t, mounts, 1)
	assert.Equal(t, "Demo", attrs(mounts[0].Attributes())[telemetry.ComponentNameKey].AsString())
	require.Len(t, mounts[0].Events(), 1)
	assert.Equal(t, telemetry.EventComponentMounted, mounts[0].Events()[0].Name)

	// The mount span is a child of the request span.
	server := env.spans("HTTP GET /")
	require.Len(t, server, 1)
	assert.Equal(t, server[0].SpanContext().SpanID(), mounts[0].Parent().SpanID())
}

func TestPage_Search(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/?q=+Pikachu+", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()

	assert.Contains(t, body, "<h3>PIKACHU</h3>")
	assert.Contains(t, body, "Height: 0.4m")
	assert.Contains(t, body, "Weight: 6kg")
	assert.Contains(t, body, "lightning rod (Hidden)")
	assert.Contains(t, body, `name="clicks" value="1"`)

	server := env.spans("HTTP GET /?")
	require.Len(t, server, 1)
	traceID := server[0].SpanContext().TraceID().String()
	assert.Contains(t, body, `<meta name="traceparent" content="00-`+traceID)

	entries, err := env.history.Recent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Pikachu", entries[0].Term)
	assert.Equal(t, history.KindPokemon, entries[0].Kind)
	assert.Equal(t, 25, entries[0].PokemonID)
	assert.Equal(t, "ok", entries[0].Outcome)
	assert.Equal(t, traceID, entries[0].TraceID)

	// The next render lists the search under "Recent searches".
	rec = env.do(t, http.MethodGet, "/", "")
	assert.Contains(t, rec.Body.String(), "Recent searches")
	assert.Contains(t, rec.Body.String(), `href="/?q=Pikachu"`)
}

func TestPage_NotFoundShowsUpstreamMessage(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/?q=missingno", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Error: HTTP error! status: 404, message: Not Found")
	assert.NotContains(t, rec.Body.String(), "pokemon-card")

	entries, err := env.history.Recent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "not_found", entries[0].Outcome)
}

func TestPage_EvolutionChain(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/?q=pikachu&evolution=1&clicks=3", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()

	assert.Contains(t, body, "Evolution Chain:")
	for _, name := range []string{"Pichu", "Pikachu", "Raichu"} {
		assert.Contains(t, body, `<div class="pokemon-name">`+name+`</div>`)
	}
	assert.Contains(t, body, "Trigger: use-item")
	assert.NotContains(t, body, "Trigger: level-up")
	assert.Equal(t, 2, strings.Count(body, `<div class="evolution-arrow">→</div>`))
	assert.Contains(t, body, `name="clicks" value="4"`)
	assert.NotContains(t, body, "All branches:")

	clicks := env.spans(telemetry.SpanUserInteraction)
	require.Len(t, clicks, 1)
	require.Len(t, clicks[0].Events(), 1)
	ev := clicks[0].Events()[0]
	assert.Equal(t, telemetry.EventButtonClick, ev.Name)
	assert.Equal(t, int64(3), attrs(ev.Attributes)[telemetry.ClickCountKey].AsInt64())
	assert.Equal(t, "evolution-chain", attrs(ev.Attributes)[telemetry.ButtonTypeKey].AsString())

	server := env.spans("HTTP GET /?")
	require.Len(t, server, 1)
	sa := attrs(server[0].Attributes())
	assert.Equal(t, int64(10), sa[telemetry.EvolutionChainIDKey].AsInt64())
	assert.Equal(t, int64(3), sa[telemetry.EvolutionStagesKey].AsInt64())

	// Only the evolution lookup is recorded for a chain request.
	entries, err := env.history.Recent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, history.KindEvolution, entries[0].Kind)
	assert.Equal(t, "pikachu", entries[0].Pokemon)
}

func TestPage_EvolutionDefaultsClickCount(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/?q=pikachu&evolution=1&clicks=bogus", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `name="clicks" value="2"`)

	clicks := env.spans(telemetry.SpanUserInteraction)
	require.Len(t, clicks, 1)
	assert.Equal(t, int64(1), attrs(clicks[0].Events()[0].Attributes)[telemetry.ClickCountKey].AsInt64())
}

func TestPage_BranchingChainListsAllPaths(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/?q=eevee&evolution=1&clicks=1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()

	assert.Contains(t, body, `<div class="pokemon-name">Vaporeon</div>`)
	assert.NotContains(t, body, `<div class="pokemon-name">Jolteon</div>`)
	assert.Contains(t, body, "All branches:")
	assert.Contains(t, body, "Eevee → Flareon")
}

func TestPage_EvolutionError(t *testing.T) {
	env := newTestEnv(t)
	env.client.chainErr = errors.New("failed to fetch evolution chain: boom")

	rec := env.do(t, http.MethodGet, "/?q=pikachu&evolution=1&clicks=1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<h3>PIKACHU</h3>")
	assert.Contains(t, rec.Body.String(), "Error: failed to fetch evolution chain: boom")
	assert.NotContains(t, rec.Body.String(), "Evolution Chain:")

	entries, err := env.history.Recent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "error", entries[0].Outcome)
}

func TestPage_InvalidTermIsEscaped(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/?q=%3Cscript%3E", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "<script>")
	assert.Contains(t, rec.Body.String(), "&lt;script&gt;")
	assert.Contains(t, rec.Body.String(), pokeapi.ErrInvalidTerm.Error())
}

func TestPage_LongTermIsRecordedAsValidUTF8(t *testing.T) {
	env := newTestEnv(t)

	term := "a" + strings.Repeat("é", 40)
	rec := env.do(t, http.MethodGet, "/?q="+url.QueryEscape(term), "")
	require.Equal(t, http.StatusOK, rec.Code)

	entries, err := env.history.Recent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	got := entries[0].Term
	assert.True(t, utf8.ValidString(got), "stored term %q is not valid UTF-8", got)
	assert.LessOrEqual(t, len(got), maxRecordedTerm)
	assert.Equal(t, "a"+strings.Repeat("é", 31), got)
}

func TestPage_WithoutHistory(t *testing.T) {
	env := newTestEnv(t, withoutHistory())

	rec := env.do(t, http.MethodGet, "/?q=pikachu", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "Recent searches")
}
