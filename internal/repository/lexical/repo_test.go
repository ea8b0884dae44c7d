package lexical

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/kailas-cloud/askdex/internal/domain"
	"github.com/kailas-cloud/askdex/internal/index"
)

func testIndex() *index.Handle {
	chunks := []domain.Chunk{
		{ID: "c1", Title: "Skills", Text: "Python Go", Frame: 1, Timestamp: 100},
		{ID: "c2", Title: "Projects", Text: "Python Python pipelines", Frame: 2, Timestamp: 200},
		{ID: "c3", Title: "Education", Text: "degree", Frame: 3, Timestamp: 300},
	}
	lengths := map[string]int{"c1": 2, "c2": 3, "c3": 1}
	postings := map[string][]index.Posting{
		"python": {{ChunkID: "c1", TF: 1}, {ChunkID: "c2", TF: 2}},
		"go":     {{ChunkID: "c1", TF: 1}},
		"degree": {{ChunkID: "c3", TF: 1}},
	}
	return index.Reconstruct(chunks, lengths, postings, nil, nil, true, false)
}

func TestRank_SortedDescending(t *testing.T) {
	repo := New(testIndex())

	got, err := repo.Rank(context.Background(), "python go", 0, 0)
	if err != nil {
		t.Fatalf("rank: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("candidates = %d, want 2", len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i].Score() > got[i-1].Score() {
			t.Errorf("scores not descending at %d: %f > %f", i, got[i].Score(), got[i-1].Score())
		}
	}
	// c1 matches both terms, c2 only one.
	if got[0].ChunkID() != "c1" {
		t.Errorf("top candidate = %s, want c1", got[0].ChunkID())
	}
	if got[0].Rank() != 1 || got[1].Rank() != 2 {
		t.Errorf("ranks = %d,%d, want 1,2", got[0].Rank(), got[1].Rank())
	}
}

func TestRank_TieBreakByChunkID(t *testing.T) {
	chunks := []domain.Chunk{
		{ID: "b", Text: "term"},
		{ID: "a", Text: "term"},
	}
	lengths := map[string]int{"a": 1, "b": 1}
	postings := map[string][]index.Posting{
		"term": {{ChunkID: "b", TF: 1}, {ChunkID: "a", TF: 1}},
	}
	repo := New(index.Reconstruct(chunks, lengths, postings, nil, nil, true, false))

	got, err := repo.Rank(context.Background(), "term", 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].ChunkID() != "a" || got[1].ChunkID() != "b" {
		t.Errorf("tie order wrong: %v", got)
	}
}

func TestRank_Disabled(t *testing.T) {
	idx := index.Reconstruct(nil, nil, nil, nil, nil, false, false)
	repo := New(idx)

	_, err := repo.Rank(context.Background(), "python", 0, 0)
	if !errors.Is(err, domain.ErrLexIndexDisabled) {
		t.Fatalf("err = %v, want ErrLexIndexDisabled", err)
	}
}

func TestRank_NoMatches(t *testing.T) {
	repo := New(testIndex())

	got, err := repo.Rank(context.Background(), "blockchain", 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("candidates = %d, want 0", len(got))
	}
}

func TestRank_EmptyQuery(t *testing.T) {
	repo := New(testIndex())

	got, err := repo.Rank(context.Background(), "!!! ??", 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Errorf("candidates = %v, want nil", got)
	}
}

func TestRank_TimeTravelCutoff(t *testing.T) {
	repo := New(testIndex())

	got, err := repo.Rank(context.Background(), "python", 1, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].ChunkID() != "c1" {
		t.Errorf("as-of frame 1 should only see c1, got %v", got)
	}

	got, err = repo.Rank(context.Background(), "python", 0, 250)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Errorf("as-of ts 250 should see c1 and c2, got %d", len(got))
	}
}

func TestRank_CancelledContext(t *testing.T) {
	repo := New(testIndex())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := repo.Rank(ctx, "python", 0, 0); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"Python experience", []string{"python", "experience"}},
		{"C++ and Go!", []string{"and", "go"}},
		{"", nil},
		{"a b c", nil},
		{"AI/ML ops", []string{"ai", "ml", "ops"}},
	}
	for _, tt := range tests {
		got := Tokenize(tt.in)
		if len(got) == 0 && len(tt.want) == 0 {
			continue
		}
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("Tokenize(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
