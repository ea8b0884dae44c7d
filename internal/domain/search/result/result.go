package result

// Candidate is a single scored hit from one ranker or from fusion.
// Rank is 1-based within the source ranking that produced it.
type Candidate struct {
	chunkID string
	score   float64
	rank    int
}

// New creates a scored candidate.
func New(chunkID string, score float64, rank int) Candidate {
	return Candidate{chunkID: chunkID, score: score, rank: rank}
}

// ChunkID returns the chunk identifier.
func (c *Candidate) ChunkID() string { return c.chunkID }

// Score returns the relevance score.
func (c *Candidate) Score() float64 { return c.score }

// Rank returns the 1-based position within the source ranking.
func (c *Candidate) Rank() int { return c.rank }

// Hit is a fused result resolved to presentable chunk fields.
type Hit struct {
	ChunkID string
	Title   string
	Score   float64
	Snippet string
	Text    string
	Tags    []string
}
