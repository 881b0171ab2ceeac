// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package pokeapi

import (
	"strings"

	"github.com/ManuGH/pokemon-app/internal/evolution"
)

// NamedResource is the {name, url} reference the API uses for linked records.
type NamedResource struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Sprites holds image URLs; only the default front sprite is used.
type Sprites struct {
	FrontDefault string `json:"front_default"`
}

// AbilitySlot is one ability entry of a Pokemon.
type AbilitySlot struct {
	Ability  NamedResource `json:"ability"`
	IsHidden bool          `json:"is_hidden"`
	Slot     int           `json:"slot"`
}

// Pokemon is the subset of /pokemon/{name} the app displays.
// Height is in decimetres, Weight in hectograms.
type Pokemon struct {
	ID        int           `json:"id"`
	Name      string        `json:"name"`
	Height    int           `json:"height"`
	Weight    int           `json:"weight"`
	Sprites   Sprites       `json:"sprites"`
	Abilities []AbilitySlot `json:"abilities"`
	Species   NamedResource `json:"species"`
}

// Species is the subset of /pokemon-species/{name} needed to find the chain.
type Species struct {
	ID             int    `json:"id"`
	Name           string `json:"name"`
	EvolutionChain struct {
		URL string `json:"url"`
	} `json:"evolution_chain"`
}

// EvolutionChain is the /evolution-chain/{id} document.
type EvolutionChain struct {
	ID    int       `json:"id"`
	Chain ChainLink `json:"chain"`
}

// ChainLink is one node of the upstream chain tree.
type ChainLink struct {
	Species          NamedResource     `json:"species"`
	EvolutionDetails []EvolutionDetail `json:"evolution_details"`
	EvolvesTo        []ChainLink       `json:"evolves_to"`
}

// EvolutionDetail describes how a stage is entered. Both fields may be null.
type EvolutionDetail struct {
	MinLevel *int           `json:"min_level"`
	Trigger  *NamedResource `json:"trigger"`
}

// Node converts the link and its descendants into the resolver's model.
// Names are trimmed, non-positive levels and blank trigger names become absent.
func (l ChainLink) Node() *evolution.Node {
	n := &evolution.Node{
		SpeciesName: strings.TrimSpace(l.Species.Name),
	}

	if len(l.EvolutionDetails) > 0 {
		n.Details = make([]evolution.Detail, 0, len(l.EvolutionDetails))
		for _, d := range l.EvolutionDetails {
			n.Details = append(n.Details, d.detail())
		}
	}

	if len(l.EvolvesTo) > 0 {
		n.Next = make([]*evolution.Node, 0, len(l.EvolvesTo))
		for _, child := range l.EvolvesTo {
			n.Next = append(n.Next, child.Node())
		}
	}

	return n
}

func (d EvolutionDetail) detail() evolution.Detail {
	var out evolution.Detail
	if d.MinLevel != nil && *d.MinLevel > 0 {
		level := *d.MinLevel
		out.MinLevel = &level
	}
	if d.Trigger != nil {
		if name := strings.TrimSpace(d.Trigger.Name); name != "" {
			out.Trigger = &name
		}
	}
	return out
}

// Stages resolves the chain along its first branch.
func (c *EvolutionChain) Stages() []evolution.Stage {
	if c == nil {
		return evolution.Resolve(nil)
	}
	return evolution.Resolve(c.Chain.Node())
}

// Tree resolves every branch of the chain.
func (c *EvolutionChain) Tree() *evolution.StageTree {
	if c == nil {
		return nil
	}
	return evolution.ResolveTree(c.Chain.Node())
}
