package stages_test

import (
	"reflect"
	"testing"

	"docverify/internal/config"
	"docverify/internal/stages"
)

func statesOf(states []stages.StageState) []stages.State {
	out := make([]stages.State, len(states))
	for i, st := range states {
		out[i] = st.State
	}
	return out
}

func TestMapKnownTokens(t *testing.T) {
	defs := stages.Defaults()
	for i, def := range defs {
		t.Run(def.ID, func(t *testing.T) {
			states := stages.Map(def.ID, defs)
			if len(states) != len(defs) {
				t.Fatalf("expected %d states, got %d", len(defs), len(states))
			}
			active := 0
			for j, st := range states {
				want := stages.Pending
				switch {
				case j < i:
					want = stages.Completed
				case j == i:
					want = stages.Active
				}
				if st.State != want {
					t.Fatalf("stage %s: got %s want %s", st.ID, st.State, want)
				}
				if st.State == stages.Active {
					active++
				}
			}
			if active != 1 {
				t.Fatalf("expected exactly one active stage, got %d", active)
			}
		})
	}
}

func TestMapUnknownTokenAllPending(t *testing.T) {
	for _, token := range []string{"", "thumbnail_generation", "FORGERY_DETECTION"} {
		states := stages.Map(token, stages.Defaults())
		for _, st := range states {
			if st.State != stages.Pending {
				t.Fatalf("token %q: stage %s is %s, want pending", token, st.ID, st.State)
			}
		}
		if stages.ActiveIndex(states) != -1 {
			t.Fatalf("token %q: expected no active stage", token)
		}
	}
}

func TestMapScenarioQRScanning(t *testing.T) {
	states := stages.Map("qr_scanning", stages.Defaults())
	want := []stages.State{
		stages.Completed, stages.Completed, stages.Completed,
		stages.Active,
		stages.Pending, stages.Pending,
	}
	if got := statesOf(states); !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v want %v", got, want)
	}
	if stages.CompletedCount(states) != 3 || stages.ActiveIndex(states) != 3 {
		t.Fatalf("unexpected progress counters")
	}
	if stages.Percent(states) != 50 {
		t.Fatalf("expected 50%%, got %v", stages.Percent(states))
	}
}

func TestMapIsIdempotentAndSortsByOrder(t *testing.T) {
	shuffled := []stages.Definition{
		{ID: "c", Order: 3},
		{ID: "a", Order: 1},
		{ID: "b", Order: 2},
	}
	first := stages.Map("b", shuffled)
	second := stages.Map("b", shuffled)
	if !reflect.DeepEqual(first, second) {
		t.Fatal("Map is not idempotent")
	}
	if first[0].ID != "a" || first[2].ID != "c" {
		t.Fatalf("expected order-sorted output, got %+v", first)
	}
	if shuffled[0].ID != "c" {
		t.Fatal("Map must not reorder its input")
	}
	if got := statesOf(first); !reflect.DeepEqual(got, []stages.State{stages.Completed, stages.Active, stages.Pending}) {
		t.Fatalf("unexpected states %v", got)
	}
}

func TestFromConfig(t *testing.T) {
	if got := stages.FromConfig(nil); !reflect.DeepEqual(got, stages.Defaults()) {
		t.Fatal("nil config should return defaults")
	}

	cfg := config.Default()
	cfg.Stages = []config.Stage{
		{ID: "liveness_check", Order: 2},
		{ID: "upload", Label: "Upload", Order: 1},
	}
	defs := stages.FromConfig(&cfg)
	if len(defs) != 2 || defs[0].ID != "upload" {
		t.Fatalf("unexpected defs %+v", defs)
	}
	if defs[1].Label != "Liveness Check" {
		t.Fatalf("expected derived label, got %q", defs[1].Label)
	}
}
