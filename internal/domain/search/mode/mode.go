package mode

import (
	"fmt"
	"strings"
)

// Mode is the retrieval strategy. It gates which scored clauses are compiled.
type Mode string

// Search mode constants.
const (
	// KeywordOnly scores on lexical relevance alone.
	KeywordOnly Mode = "keyword_only"
	// Hybrid combines lexical relevance with vector similarity.
	Hybrid Mode = "hybrid"
	// SemanticOnly adds vector similarity regardless of the hybrid flag.
	SemanticOnly Mode = "semantic_only"
)

// Default is the strategy used when none is configured.
const Default = Hybrid

// IsValid checks if the mode is one of the supported values.
func (m Mode) IsValid() bool {
	return m == KeywordOnly || m == Hybrid || m == SemanticOnly
}

// Parse accepts the canonical names plus the short aliases "keyword" and "semantic".
// Case and surrounding whitespace are ignored.
func Parse(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "keyword_only", "keyword":
		return KeywordOnly, nil
	case "hybrid":
		return Hybrid, nil
	case "semantic_only", "semantic":
		return SemanticOnly, nil
	default:
		return "", fmt.Errorf("unknown search strategy %q", s)
	}
}
