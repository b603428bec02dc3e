// Package projection derives view-ready data from a pipeline result. Every
// function here is pure and never fails on malformed input.
package projection

import (
	"fmt"
	"math"
	"strings"

	"ragdash/internal/domain"
)

// Result tabs. A new result always opens on DefaultTab.
const (
	TabMetrics = 0
	TabChunks  = 1
	TabCount   = 2
	DefaultTab = TabMetrics
)

// ChunkView is a chunk annotated with its retrieval status.
type ChunkView struct {
	ID        int
	Content   string
	Retrieved bool
}

// ChunkViews returns the chunks in their original order, marking those whose
// id appears in RetrievedChunks. Retrieved ids with no matching chunk are
// ignored.
func ChunkViews(r *domain.PipelineResult) []ChunkView {
	if r == nil {
		return nil
	}
	retrieved := retrievedSet(r.RetrievedChunks)
	out := make([]ChunkView, len(r.Chunks))
	for i, c := range r.Chunks {
		_, ok := retrieved[c.ID]
		out[i] = ChunkView{ID: c.ID, Content: c.Content, Retrieved: ok}
	}
	return out
}

func retrievedSet(ids []int) map[int]struct{} {
	set := make(map[int]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

// RetrievedCount is the number of chunks that are actually highlighted.
func RetrievedCount(r *domain.PipelineResult) int {
	n := 0
	for _, v := range ChunkViews(r) {
		if v.Retrieved {
			n++
		}
	}
	return n
}

// TabLabels returns the tab titles for r.
func TabLabels(r *domain.PipelineResult) []string {
	return []string{"System Metrics", ChunksTabLabel(r)}
}

// ChunksTabLabel is the title of the chunk list tab, e.g. "Chunks (3)".
func ChunksTabLabel(r *domain.PipelineResult) string {
	n := 0
	if r != nil {
		n = len(r.Chunks)
	}
	return fmt.Sprintf("Chunks (%d)", n)
}

// ChunkSummary is the header line of the chunk list.
func ChunkSummary(r *domain.PipelineResult) string {
	if r == nil {
		return "0 chunks created • 0 retrieved"
	}
	return fmt.Sprintf("%d chunks created • %d retrieved", len(r.Chunks), len(r.RetrievedChunks))
}

// Percent renders a 0..1 fraction as a percentage with one decimal.
func Percent(f float64) string {
	return fmt.Sprintf("%.1f%%", f*100)
}

// Card is one headline metric.
type Card struct {
	Title string
	Value string
}

// MetricCards returns the headline metrics shown above the response.
func MetricCards(m domain.Metrics) []Card {
	return []Card{
		{Title: "Total Chunks", Value: fmt.Sprintf("%.0f", m.NumChunks)},
		{Title: "Quality Score", Value: Percent(m.WeightedScore)},
		{Title: "Latency", Value: fmt.Sprintf("%.0fms", m.LatencyMs)},
		{Title: "Coherence", Value: Percent(m.AvgCoherence)},
	}
}

// Performance returns the resource usage figures.
func Performance(m domain.Metrics) []Card {
	return []Card{
		{Title: "CPU Usage", Value: fmt.Sprintf("%.1f%%", m.CPUUsagePercent)},
		{Title: "Memory", Value: fmt.Sprintf("%.0fMB", m.MemoryUsageMB)},
	}
}

// QualityItem is one bar of the quality breakdown. Value is in 0..100.
type QualityItem struct {
	Label   string
	Value   float64
	Display string
}

// QualityBreakdown returns the per-dimension quality scores.
func QualityBreakdown(m domain.Metrics) []QualityItem {
	items := []struct {
		label string
		v     float64
	}{
		{"Coherence", m.AvgCoherence},
		{"Context", m.ContextPreservation},
		{"Coverage", m.Coverage},
		{"Semantic", m.SemanticCoverage},
	}
	out := make([]QualityItem, len(items))
	for i, it := range items {
		out[i] = QualityItem{Label: it.label, Value: it.v * 100, Display: Percent(it.v)}
	}
	return out
}

// OverallScore is the weighted score out of 100, rounded to an integer.
func OverallScore(m domain.Metrics) string {
	return fmt.Sprintf("%d", int(math.Round(m.WeightedScore*100)))
}

// WordCount counts whitespace-separated words in extracted text.
func WordCount(text string) int {
	return len(strings.Fields(text))
}
