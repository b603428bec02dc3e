package domain

import "fmt"

// ChunkMethod selects the chunking strategy the remote pipeline applies.
type ChunkMethod string

const (
	MethodFixed           ChunkMethod = "fixed"
	MethodAdaptive        ChunkMethod = "adaptive"
	MethodSentenceDensity ChunkMethod = "sentence_density"
	MethodGradient        ChunkMethod = "gradient"
	MethodGradientFinal   ChunkMethod = "gradient_final"
)

var chunkMethods = []ChunkMethod{
	MethodFixed,
	MethodAdaptive,
	MethodSentenceDensity,
	MethodGradient,
	MethodGradientFinal,
}

// ChunkMethods returns all methods in display order.
func ChunkMethods() []ChunkMethod {
	out := make([]ChunkMethod, len(chunkMethods))
	copy(out, chunkMethods)
	return out
}

// ParseChunkMethod maps a wire name to a ChunkMethod.
func ParseChunkMethod(s string) (ChunkMethod, error) {
	for _, m := range chunkMethods {
		if string(m) == s {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown chunk method %q", s)
}

func (m ChunkMethod) index() int {
	for i, c := range chunkMethods {
		if c == m {
			return i
		}
	}
	return -1
}

// Next returns the following method in display order, wrapping around.
func (m ChunkMethod) Next() ChunkMethod {
	return chunkMethods[(m.index()+1)%len(chunkMethods)]
}

// Prev returns the preceding method in display order, wrapping around.
func (m ChunkMethod) Prev() ChunkMethod {
	i := m.index()
	if i < 0 {
		return chunkMethods[len(chunkMethods)-1]
	}
	return chunkMethods[(i-1+len(chunkMethods))%len(chunkMethods)]
}

// MethodInfo is the human-facing description of a chunking method.
type MethodInfo struct {
	Method      ChunkMethod
	Name        string
	ShortName   string
	Description string
	Features    []string
}

var methodCatalog = map[ChunkMethod]MethodInfo{
	MethodFixed: {
		Method:      MethodFixed,
		Name:        "Fixed Overlap Chunking",
		ShortName:   "Fixed",
		Description: "Simple sliding window approach with fixed chunk size and overlap",
		Features:    []string{"Fixed chunk size", "Configurable overlap", "Fast processing", "Predictable behavior"},
	},
	MethodAdaptive: {
		Method:      MethodAdaptive,
		Name:        "Adaptive Overlap Chunking",
		ShortName:   "Adaptive",
		Description: "Dynamic overlap based on semantic similarity between consecutive chunks",
		Features:    []string{"Semantic similarity analysis", "Dynamic overlap", "Context-aware boundaries", "Paragraph-based"},
	},
	MethodSentenceDensity: {
		Method:      MethodSentenceDensity,
		Name:        "Sentence Density Adaptive",
		ShortName:   "Density",
		Description: "Adapts chunk size based on sentence density and keyword importance",
		Features:    []string{"Sentence density analysis", "Keyword tracking", "Smart merging", "Dynamic sizing"},
	},
	MethodGradient: {
		Method:      MethodGradient,
		Name:        "Gradient Chunking",
		ShortName:   "Gradient",
		Description: "Uses semantic gradients to find optimal chunk boundaries",
		Features:    []string{"Gradient-based boundaries", "Semantic coherence", "Topic transitions", "Embeddings-based"},
	},
	MethodGradientFinal: {
		Method:      MethodGradientFinal,
		Name:        "Gradient Chunking Final",
		ShortName:   "Gradient+",
		Description: "Enhanced gradient chunking with optimized boundary detection",
		Features:    []string{"Advanced gradients", "Multi-scale analysis", "Optimized performance", "Quality boundaries"},
	},
}

// Describe returns catalog information for m. Unknown methods get a bare entry.
func Describe(m ChunkMethod) MethodInfo {
	if info, ok := methodCatalog[m]; ok {
		return info
	}
	return MethodInfo{Method: m, Name: string(m), ShortName: string(m)}
}
