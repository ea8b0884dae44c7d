package mode

// Mode is the retrieval strategy.
type Mode string

// Search mode constants.
const (
	// Hybrid fuses lexical and vector rankings via RRF.
	Hybrid Mode = "hybrid"
	// Semantic uses vector similarity only.
	Semantic Mode = "semantic"
	// Lexical uses BM25 keyword scoring only.
	Lexical Mode = "lexical"
)

// IsValid checks if the mode is one of the supported values.
func (m Mode) IsValid() bool {
	return m == Hybrid || m == Semantic || m == Lexical
}
