// Package stages holds the ordered pipeline stage list and maps the service's
// current-stage token onto it.
package stages

import (
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"docverify/internal/config"
)

// Definition is one entry of the ordered stage list.
type Definition struct {
	ID    string `json:"id" yaml:"id"`
	Label string `json:"label" yaml:"label"`
	Order int    `json:"order" yaml:"order"`
}

// State is the display state of a stage relative to the current token.
type State string

const (
	Pending   State = "pending"
	Active    State = "active"
	Completed State = "completed"
)

// StageState pairs a definition with its computed state.
type StageState struct {
	Definition
	State State `json:"state" yaml:"state"`
}

var defaults = []Definition{
	{ID: "upload", Label: "Upload", Order: 1},
	{ID: "forgery_detection", Label: "Forgery Detection", Order: 2},
	{ID: "forgery_localization", Label: "Forgery Localization", Order: 3},
	{ID: "qr_scanning", Label: "QR Decoding", Order: 4},
	{ID: "ocr_extraction", Label: "OCR Extraction", Order: 5},
	{ID: "validation", Label: "Cross-Validation", Order: 6},
}

// Defaults returns a copy of the built-in stage list.
func Defaults() []Definition {
	out := make([]Definition, len(defaults))
	copy(out, defaults)
	return out
}

// FromConfig returns the configured stage list, or the defaults when no
// override is present. Missing labels are derived from the id.
func FromConfig(cfg *config.Config) []Definition {
	if cfg == nil || len(cfg.Stages) == 0 {
		return Defaults()
	}
	defs := make([]Definition, 0, len(cfg.Stages))
	for _, stage := range cfg.Stages {
		label := stage.Label
		if label == "" {
			label = LabelFromID(stage.ID)
		}
		defs = append(defs, Definition{ID: stage.ID, Label: label, Order: stage.Order})
	}
	return sorted(defs)
}

// LabelFromID turns a token such as "ocr_extraction" into "Ocr Extraction".
func LabelFromID(id string) string {
	words := strings.Fields(strings.NewReplacer("_", " ", "-", " ").Replace(id))
	return cases.Title(language.Und).String(strings.Join(words, " "))
}

// Map computes the state of every stage for the server's current-stage token.
// Stages ordered before the token's stage are completed, the token's stage is
// active and the rest are pending. An empty or unknown token leaves every
// stage pending.
func Map(token string, defs []Definition) []StageState {
	ordered := sorted(defs)
	current := indexOf(strings.TrimSpace(token), ordered)

	out := make([]StageState, len(ordered))
	for i, def := range ordered {
		state := Pending
		switch {
		case current < 0:
		case i < current:
			state = Completed
		case i == current:
			state = Active
		}
		out[i] = StageState{Definition: def, State: state}
	}
	return out
}

// ActiveIndex returns the position of the active stage, or -1.
func ActiveIndex(states []StageState) int {
	for i, st := range states {
		if st.State == Active {
			return i
		}
	}
	return -1
}

// CompletedCount returns how many stages are completed.
func CompletedCount(states []StageState) int {
	n := 0
	for _, st := range states {
		if st.State == Completed {
			n++
		}
	}
	return n
}

// Percent approximates pipeline progress from the stage states.
func Percent(states []StageState) float64 {
	if len(states) == 0 {
		return 0
	}
	return float64(CompletedCount(states)) / float64(len(states)) * 100
}

// Lookup returns the definition for id.
func Lookup(id string, defs []Definition) (Definition, bool) {
	for _, def := range defs {
		if def.ID == id {
			return def, true
		}
	}
	return Definition{}, false
}

func indexOf(token string, ordered []Definition) int {
	if token == "" {
		return -1
	}
	for i, def := range ordered {
		if def.ID == token {
			return i
		}
	}
	return -1
}

func sorted(defs []Definition) []Definition {
	out := make([]Definition, len(defs))
	copy(out, defs)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}
