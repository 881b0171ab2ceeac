// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package render turns creature data and resolved evolution stages into
// display models, the HTML page and the terminal view.
package render

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/ManuGH/pokemon-app/internal/evolution"
	"github.com/ManuGH/pokemon-app/internal/pokeapi"
)

const (
	// ImplicitTrigger is the default trigger and is never labeled.
	ImplicitTrigger = "level-up"
	// Arrow separates consecutive stages.
	Arrow = "→"
)

var upper = cases.Upper(language.Und)

// DisplayName upper-cases the first letter and leaves the rest unchanged.
func DisplayName(name string) string {
	r, size := utf8.DecodeRuneInString(name)
	if r == utf8.RuneError {
		return name
	}
	return upper.String(name[:size]) + name[size:]
}

// Headline is the card title: the whole name upper-cased.
func Headline(name string) string {
	return upper.String(name)
}

// tenths formats a value given in tenths of a unit, dropping a trailing ".0".
func tenths(v int) string {
	return strconv.FormatFloat(float64(v)/10, 'f', -1, 64)
}

// AbilityLabel replaces the first hyphen with a space and marks hidden abilities.
func AbilityLabel(name string, hidden bool) string {
	label := strings.Replace(name, "-", " ", 1)
	if hidden {
		label += " (Hidden)"
	}
	return label
}

// Card is the display model of a creature.
type Card struct {
	ID         int      `json:"id"`
	Name       string   `json:"name"`
	Headline   string   `json:"headline"`
	HeightM    float64  `json:"heightMeters"`
	WeightKG   float64  `json:"weightKilograms"`
	Height     string   `json:"height"`
	Weight     string   `json:"weight"`
	Abilities  []string `json:"abilities"`
	SpriteURL  string   `json:"sprite,omitempty"`
	SpeciesURL string   `json:"-"`
}

// NewCard builds the card for p. Height arrives in decimetres and weight in hectograms.
func NewCard(p *pokeapi.Pokemon) Card {
	abilities := make([]string, 0, len(p.Abilities))
	for _, a := range p.Abilities {
		abilities = append(abilities, AbilityLabel(a.Ability.Name, a.IsHidden))
	}
	return Card{
		ID:         p.ID,
		Name:       p.Name,
		Headline:   Headline(p.Name),
		HeightM:    float64(p.Height) / 10,
		WeightKG:   float64(p.Weight) / 10,
		Height:     tenths(p.Height) + "m",
		Weight:     tenths(p.Weight) + "kg",
		Abilities:  abilities,
		SpriteURL:  p.Sprites.FrontDefault,
		SpeciesURL: p.Species.URL,
	}
}

// StageView is one stage ready for display.
type StageView struct {
	Name    string `json:"name"`
	Display string `json:"display"`
	// Level is "Level N" or empty.
	Level string `json:"level,omitempty"`
	// Trigger is "Trigger: x" or empty for the implicit level-up trigger.
	Trigger string `json:"trigger,omitempty"`
	// Arrow is set on every stage but the last.
	Arrow bool `json:"arrow"`
}

// StageViews applies the presentation rules to resolved stages.
func StageViews(stages []evolution.Stage) []StageView {
	views := make([]StageView, 0, len(stages))
	for i, s := range stages {
		v := StageView{
			Name:    s.Name,
			Display: DisplayName(s.Name),
			Arrow:   i < len(stages)-1,
		}
		if lvl := s.Level(); lvl > 0 {
			v.Level = "Level " + strconv.Itoa(lvl)
		}
		if t := s.TriggerName(); t != "" && t != ImplicitTrigger {
			v.Trigger = "Trigger: " + t
		}
		views = append(views, v)
	}
	return views
}

// Branches renders every root-to-leaf path of a resolved tree.
func Branches(tree *evolution.StageTree) [][]StageView {
	paths := tree.Paths()
	out := make([][]StageView, 0, len(paths))
	for _, p := range paths {
		out = append(out, StageViews(p))
	}
	return out
}
