package domain

import "context"

// File is a local file selected for upload.
type File struct {
	Name string
	Data []byte
}

// Document is the text extracted from an uploaded file by the remote service.
// An empty ExtractedText means no document is loaded.
type Document struct {
	ExtractedText string `json:"extracted_text"`
	FileName      string `json:"filename"`
}

// Loaded reports whether the document carries text a pipeline can run on.
func (d Document) Loaded() bool { return d.ExtractedText != "" }

// Chunk is a contiguous span of the source document with a stable id assigned
// by the remote pipeline.
type Chunk struct {
	ID      int    `json:"id"`
	Content string `json:"content"`
}

// Metrics are the quality and resource figures computed by the remote pipeline.
// Fractions are in the range 0..1.
type Metrics struct {
	NumChunks           float64 `json:"num_chunks"`
	WeightedScore       float64 `json:"weighted_score"`
	LatencyMs           float64 `json:"latency"`
	AvgCoherence        float64 `json:"avg_coherence"`
	CPUUsagePercent     float64 `json:"cpu_usage"`
	MemoryUsageMB       float64 `json:"memory_usage"`
	ContextPreservation float64 `json:"context_preservation"`
	Coverage            float64 `json:"coverage"`
	SemanticCoverage    float64 `json:"semantic_coverage"`
}

// PipelineResult is the outcome of one remote pipeline run. RetrievedChunks
// lists chunk ids in retrieval rank order.
type PipelineResult struct {
	Response        string  `json:"response"`
	Chunks          []Chunk `json:"chunks"`
	RetrievedChunks []int   `json:"retrievedChunks"`
	Metrics         Metrics `json:"metrics"`
}

// RemoteService is the analysis service boundary: document extraction and
// pipeline execution. Neither call is cached or retried.
type RemoteService interface {
	ExtractDocument(ctx context.Context, filename string, data []byte) (Document, error)
	RunPipeline(ctx context.Context, text, query string, cfg PipelineConfig) (PipelineResult, error)
}
