package profile

import (
	"slices"
	"testing"
)

func TestModes(t *testing.T) {
	modes := Modes()

	if !Enabled() {
		if len(modes) != 0 {
			t.Errorf("Modes() = %v, want none without the %s tag", modes, Tag)
		}

		return
	}

	if !slices.IsSorted(modes) || !slices.Contains(modes, "cpu") {
		t.Errorf("Modes() = %v, want a sorted list including cpu", modes)
	}

	if slices.Contains(modes, "quiet") {
		t.Error("quiet is an option, not a mode")
	}
}

func TestProfiler_StartNoop(t *testing.T) {
	for _, p := range []Profiler{
		{},
		{Dir: t.TempDir()},
		{Mode: "bogus", Dir: t.TempDir(), Quiet: true},
	} {
		s := p.Start()
		if s == nil {
			t.Fatalf("Start(%+v) returned nil", p)
		}

		s.Stop()
	}
}
