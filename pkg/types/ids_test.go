package types

import "testing"

func TestNodeIDDeterministic(t *testing.T) {
	id1 := NodeID("ADR-001: Use Postgres", []string{"Decision", "ADR"})
	id2 := NodeID("ADR-001: Use Postgres", []string{"ADR", "Decision"})
	if id1 != id2 {
		t.Fatalf("label order must not affect ID: %s != %s", id1, id2)
	}
	if len(id1) != 8 {
		t.Fatalf("expected 8-hex-char ID, got %q", id1)
	}

	id3 := NodeID("ADR-002: Use Redis", []string{"Decision", "ADR"})
	if id1 == id3 {
		t.Fatalf("distinct titles must not collide: %s", id1)
	}
}

func TestCodeNodeIDIncludesPath(t *testing.T) {
	a := CodeNodeID("pkg/a/foo.go", "Foo", "Function")
	b := CodeNodeID("pkg/b/foo.go", "Foo", "Function")
	if a == b {
		t.Fatalf("same symbol name in different files must not collide")
	}
	if len(a) != 16 {
		t.Fatalf("expected 16-hex-char code ID, got %q", a)
	}
}

func TestDecayRateForLabelsFirstMatchWins(t *testing.T) {
	rate := DecayRateForLabels([]string{"Episode", "Decision"})
	if rate != 0.001 {
		t.Fatalf("expected Decision's rate (first match in table), got %v", rate)
	}
	if got := DecayRateForLabels([]string{"Commit"}); got != DefaultDecayRate {
		t.Fatalf("expected default decay rate for unmatched label, got %v", got)
	}
}

func TestIsProtectedFromArchival(t *testing.T) {
	if !IsProtectedFromArchival([]string{"Episode", "Person"}) {
		t.Fatalf("Person must be protected")
	}
	if IsProtectedFromArchival([]string{"Episode", "Commit"}) {
		t.Fatalf("Episode/Commit must not be protected")
	}
}

func TestDeriveSummaryTruncates(t *testing.T) {
	long := ""
	for i := 0; i < 600; i++ {
		long += "a"
	}
	s := DeriveSummary(long)
	if len(s) > MaxSummaryLength {
		t.Fatalf("summary exceeds cap: %d", len(s))
	}
}
