// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package api

import (
	"net/http"
	"strconv"

	"github.com/ManuGH/pokemon-app/internal/api/middleware"
	"github.com/ManuGH/pokemon-app/internal/evolution"
	"github.com/ManuGH/pokemon-app/internal/history"
	"github.com/ManuGH/pokemon-app/internal/render"
	"github.com/go-chi/chi/v5"
)

// EvolutionResponse is the body of GET /api/v1/pokemon/{name}/evolution.
type EvolutionResponse struct {
	Pokemon string               `json:"pokemon"`
	ChainID int                  `json:"chainId"`
	Stages  []evolution.Stage    `json:"stages"`
	Display []render.StageView   `json:"display"`
	Tree    *evolution.StageTree `json:"tree,omitempty"`
	Paths   [][]evolution.Stage  `json:"paths,omitempty"`
}

// HistoryResponse is the body of GET /api/v1/history.
type HistoryResponse struct {
	Entries []history.Entry `json:"entries"`
}

func (s *Server) handlePokemon(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	p, err := s.client.Pokemon(r.Context(), name)
	s.record(r.Context(), history.KindPokemon, name, p, err)
	if err != nil {
		writeLookupError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, render.NewCard(p))
}

// handleEvolution resolves the chain along the first branch. With
// branches=all the full tree and every root-to-leaf path are included.
func (s *Server) handleEvolution(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, err := s.client.Pokemon(ctx, chi.URLParam(r, "name"))
	if err != nil {
		writeLookupError(w, r, err)
		return
	}

	chain, err := s.resolveChain(ctx, p)
	if err != nil {
		writeLookupError(w, r, err)
		return
	}

	resp := EvolutionResponse{
		Pokemon: p.Name,
		ChainID: chain.id,
		Stages:  chain.stages,
		Display: render.StageViews(chain.stages),
	}
	if r.URL.Query().Get("branches") == "all" {
		resp.Tree = chain.tree
		resp.Paths = chain.tree.Paths()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		middleware.WriteJSONError(w, r, http.StatusNotFound, "history_disabled", "lookup history is disabled")
		return
	}

	limit := history.DefaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > history.MaxLimit {
			middleware.WriteJSONError(w, r, http.StatusBadRequest, "invalid_limit",
				"limit must be between 1 and "+strconv.Itoa(history.MaxLimit))
			return
		}
		limit = n
	}

	entries, err := s.history.Recent(r.Context(), limit)
	if err != nil {
		middleware.WriteJSONError(w, r, http.StatusInternalServerError, "history_unavailable", err.Error())
		return
	}
	if entries == nil {
		entries = []history.Entry{}
	}
	writeJSON(w, http.StatusOK, HistoryResponse{Entries: entries})
}
