package domain

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Input bounds of the pipeline parameters.
const (
	MinChunkSize  = 100
	MaxChunkSize  = 2000
	ChunkSizeStep = 50
	MinOverlap    = 0
	MaxOverlap    = 500
	OverlapStep   = 10
)

// PipelineConfig is the full set of pipeline parameters sent with every run.
// It is always fully populated; edits produce a new value through the With*
// builders rather than mutating fields in place.
type PipelineConfig struct {
	Method        ChunkMethod `json:"method" yaml:"method" validate:"required,oneof=fixed adaptive sentence_density gradient gradient_final"`
	ChunkSize     int         `json:"chunkSize" yaml:"chunk_size" validate:"min=100,max=2000"`
	Overlap       int         `json:"overlap" yaml:"overlap" validate:"min=0,max=500"`
	UseBM25       bool        `json:"useBM25" yaml:"use_bm25"`
	UseCosine     bool        `json:"useCosine" yaml:"use_cosine"`
	UseFaiss      bool        `json:"useFaiss" yaml:"use_faiss"`
	RerankEnabled bool        `json:"rerankEnabled" yaml:"rerank_enabled"`
	TopK          int         `json:"topK" yaml:"top_k" validate:"min=1"`
}

// DefaultPipelineConfig returns the parameters a fresh session starts with.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		Method:        MethodGradient,
		ChunkSize:     500,
		Overlap:       50,
		UseBM25:       true,
		UseCosine:     true,
		UseFaiss:      false,
		RerankEnabled: true,
		TopK:          4,
	}
}

func (c PipelineConfig) WithMethod(m ChunkMethod) PipelineConfig { c.Method = m; return c }
func (c PipelineConfig) WithChunkSize(n int) PipelineConfig      { c.ChunkSize = n; return c }
func (c PipelineConfig) WithOverlap(n int) PipelineConfig        { c.Overlap = n; return c }
func (c PipelineConfig) WithBM25(on bool) PipelineConfig         { c.UseBM25 = on; return c }
func (c PipelineConfig) WithCosine(on bool) PipelineConfig       { c.UseCosine = on; return c }
func (c PipelineConfig) WithFaiss(on bool) PipelineConfig        { c.UseFaiss = on; return c }
func (c PipelineConfig) WithRerank(on bool) PipelineConfig       { c.RerankEnabled = on; return c }
func (c PipelineConfig) WithTopK(k int) PipelineConfig           { c.TopK = k; return c }

// Clamp pulls ChunkSize and Overlap back into their input ranges.
func (c PipelineConfig) Clamp() PipelineConfig {
	c.ChunkSize = clampInt(c.ChunkSize, MinChunkSize, MaxChunkSize)
	c.Overlap = clampInt(c.Overlap, MinOverlap, MaxOverlap)
	return c
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks every field against its domain.
func (c PipelineConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
			e := verrs[0]
			return fmt.Errorf("invalid pipeline config: %s failed %q (%v)", e.Field(), e.Tag(), e.Value())
		}
		return fmt.Errorf("invalid pipeline config: %w", err)
	}
	return nil
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
