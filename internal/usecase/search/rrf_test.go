package search

import (
	"math"
	"testing"
)

func TestFuseRRFBothListsOutrankSingle(t *testing.T) {
	lex := candidates("a", "b")
	vec := candidates("b", "c")

	fused := fuseRRF(lex, vec, 10)
	if len(fused) != 3 {
		t.Fatalf("got %d candidates, want 3", len(fused))
	}
	if fused[0].ChunkID() != "b" {
		t.Errorf("top candidate = %s, want b (present in both rankings)", fused[0].ChunkID())
	}

	wantTop := 1.0/float64(rrfK+2) + 1.0/float64(rrfK+1)
	if math.Abs(fused[0].Score()-wantTop) > 1e-12 {
		t.Errorf("fused score = %v, want %v", fused[0].Score(), wantTop)
	}
}

func TestFuseRRFSingleListContribution(t *testing.T) {
	lex := candidates("only")

	fused := fuseRRF(lex, nil, 10)
	if len(fused) != 1 {
		t.Fatalf("got %d candidates, want 1", len(fused))
	}
	want := 1.0 / float64(rrfK+1)
	if math.Abs(fused[0].Score()-want) > 1e-12 {
		t.Errorf("score = %v, want %v (one ranking term only)", fused[0].Score(), want)
	}
}

func TestFuseRRFTieBrokenByChunkID(t *testing.T) {
	// Same rank in each list gives identical fused scores.
	lex := candidates("zulu")
	vec := candidates("alpha")

	fused := fuseRRF(lex, vec, 10)
	if fused[0].ChunkID() != "alpha" || fused[1].ChunkID() != "zulu" {
		t.Errorf("tie order = [%s %s], want [alpha zulu]",
			fused[0].ChunkID(), fused[1].ChunkID())
	}
}

func TestFuseRRFTruncatesAndReranks(t *testing.T) {
	lex := candidates("a", "b", "c", "d")

	fused := fuseRRF(lex, nil, 2)
	if len(fused) != 2 {
		t.Fatalf("got %d candidates, want 2", len(fused))
	}
	for i, c := range fused {
		if c.Rank() != i+1 {
			t.Errorf("fused[%d].Rank() = %d, want %d", i, c.Rank(), i+1)
		}
	}
}

func TestFuseRRFEmptyInputs(t *testing.T) {
	if fused := fuseRRF(nil, nil, 5); len(fused) != 0 {
		t.Errorf("got %d candidates from empty inputs", len(fused))
	}
}

func TestTruncate(t *testing.T) {
	in := candidates("a", "b", "c")
	if got := truncate(in, 2); len(got) != 2 || got[0].ChunkID() != "a" {
		t.Errorf("truncate = %v", got)
	}
	if got := truncate(in, 5); len(got) != 3 {
		t.Errorf("truncate below length changed slice: %d", len(got))
	}
}

func TestFuseRRFDeterministic(t *testing.T) {
	lex := candidates("a", "b", "c")
	vec := candidates("c", "a", "d")

	first := fuseRRF(lex, vec, 10)
	for i := 0; i < 10; i++ {
		again := fuseRRF(lex, vec, 10)
		for j := range first {
			if again[j].ChunkID() != first[j].ChunkID() {
				t.Fatalf("run %d position %d: %s != %s",
					i, j, again[j].ChunkID(), first[j].ChunkID())
			}
		}
	}
}
