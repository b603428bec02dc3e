package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"ragdash/internal/domain"
	"ragdash/internal/preview"
	"ragdash/internal/projection"
)

const (
	sidebarWidth  = 38
	digestLength  = 3
	scoreBarWidth = 20
)

var (
	headerStyle    = lipgloss.NewStyle().Bold(true)
	dimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	sectionStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	statusStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	highlightStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	badgeStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("0")).Background(lipgloss.Color("10")).Padding(0, 1)
	activeTabStyle = lipgloss.NewStyle().Bold(true).Underline(true).Padding(0, 1)
	tabStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Padding(0, 1)
	sidebarStyle   = lipgloss.NewStyle().Width(sidebarWidth).Border(lipgloss.RoundedBorder()).Padding(0, 1)
	mainBoxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	inputBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	focusedBorder  = lipgloss.Color("12")
)

// View renders the whole dashboard.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}
	header := headerStyle.Render("RAG Pipeline") + dimStyle.Render("  Intelligent Document Analysis")
	if m.remote != "" {
		header += dimStyle.Render("  [" + m.remote + "]")
	}

	banner := ""
	if m.snap.Error != "" {
		banner = errorStyle.Render("✗ "+m.snap.Error) + dimStyle.Render("  (esc to dismiss)")
	}

	main := lipgloss.JoinVertical(lipgloss.Left,
		m.renderTabs(),
		mainBoxStyle.Render(m.viewport.View()),
	)
	body := lipgloss.JoinHorizontal(lipgloss.Top, m.renderSidebar(), " ", main)

	path := inputBoxStyle
	query := inputBoxStyle
	switch m.focus {
	case focusPath:
		path = path.BorderForeground(focusedBorder)
	case focusQuery:
		query = query.BorderForeground(focusedBorder)
	}

	help := dimStyle.Render("tab focus • enter upload/run • ctrl+r execute • ctrl+t tabs • esc dismiss • ctrl+c quit")
	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		banner,
		body,
		path.Render(m.pathInput.View()),
		query.Render(m.queryInput.View()),
		statusStyle.Render(m.status)+"  "+help,
	)
}

func (m Model) renderTabs() string {
	labels := projection.TabLabels(m.snap.Result)
	parts := make([]string, len(labels))
	for i, l := range labels {
		if i == m.snap.ActiveTab {
			parts[i] = activeTabStyle.Render(l)
		} else {
			parts[i] = tabStyle.Render(l)
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m Model) renderSidebar() string {
	var b strings.Builder
	cfg := m.snap.Config

	b.WriteString(sectionStyle.Render("DOCUMENT") + "\n")
	switch {
	case m.snap.Uploading():
		b.WriteString(m.spinner.View() + " Uploading...\n")
	case m.snap.Document.Loaded():
		b.WriteString(m.snap.Document.FileName + "\n")
		chip := fmt.Sprintf("%d words extracted", projection.WordCount(m.snap.Document.ExtractedText))
		if m.pages > 0 {
			chip += fmt.Sprintf(" • %d pages", m.pages)
		}
		b.WriteString(dimStyle.Render(chip) + "\n")
	default:
		b.WriteString(dimStyle.Render("No file loaded") + "\n")
	}

	info := domain.Describe(cfg.Method)
	b.WriteString("\n" + sectionStyle.Render("CHUNKING STRATEGY") + "\n")
	b.WriteString(m.row(fieldMethod, "Method", "‹ "+info.ShortName+" › "+methodPosition(cfg.Method)) + "\n")
	if info.Description != "" {
		b.WriteString(dimStyle.Width(sidebarWidth-4).Render(info.Description) + "\n")
	}

	b.WriteString("\n" + sectionStyle.Render("PARAMETERS") + "\n")
	b.WriteString(m.row(fieldChunkSize, "Chunk Size", fmt.Sprintf("%d", cfg.ChunkSize)) + "\n")
	b.WriteString(m.row(fieldOverlap, "Overlap", fmt.Sprintf("%d", cfg.Overlap)) + "\n")

	b.WriteString("\n" + sectionStyle.Render("RETRIEVAL ENGINES") + "\n")
	b.WriteString(m.row(fieldBM25, "BM25", checkbox(cfg.UseBM25)) + "\n")
	b.WriteString(m.row(fieldCosine, "Cosine", checkbox(cfg.UseCosine)) + "\n")
	b.WriteString(m.row(fieldFaiss, "FAISS", checkbox(cfg.UseFaiss)) + "\n")
	b.WriteString(m.row(fieldRerank, "Rerank", checkbox(cfg.RerankEnabled)) + "\n")
	b.WriteString(m.row(fieldTopK, "Top K", fmt.Sprintf("%d", cfg.TopK)) + "\n")

	b.WriteString("\n")
	switch {
	case m.snap.Processing():
		b.WriteString(m.spinner.View() + " Processing...")
	case m.snap.CanRun():
		b.WriteString(highlightStyle.Render("ctrl+r  Execute Pipeline"))
	default:
		b.WriteString(dimStyle.Render("Execute Pipeline (upload a PDF first)"))
	}
	return sidebarStyle.Render(b.String())
}

func (m Model) row(f configField, label, value string) string {
	marker := "  "
	if m.focus == focusConfig && m.cursor == f {
		marker = highlightStyle.Render("> ")
	}
	return fmt.Sprintf("%s%-12s %s", marker, label, value)
}

// methodPosition renders where m sits in the method cycle, e.g. "4/5".
func methodPosition(m domain.ChunkMethod) string {
	methods := domain.ChunkMethods()
	for i, c := range methods {
		if c == m {
			return fmt.Sprintf("%d/%d", i+1, len(methods))
		}
	}
	return fmt.Sprintf("?/%d", len(methods))
}

func checkbox(on bool) string {
	if on {
		return "[x]"
	}
	return "[ ]"
}

// renderContent builds the scrollable result pane.
func (m Model) renderContent() string {
	if m.snap.Result == nil {
		return m.renderPlaceholder()
	}
	if m.snap.ActiveTab == projection.TabChunks {
		return m.renderChunks()
	}
	return m.renderMetrics()
}

func (m Model) renderPlaceholder() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Ready to Analyze") + "\n")
	b.WriteString(dimStyle.Render("Upload a PDF document and enter a query to start the analysis.") + "\n\n")

	info := domain.Describe(m.snap.Config.Method)
	b.WriteString(sectionStyle.Render(info.Name) + "\n")
	b.WriteString(m.wrap(info.Description) + "\n")
	for _, f := range info.Features {
		b.WriteString("  • " + f + "\n")
	}

	if m.digest != "" {
		b.WriteString("\n" + sectionStyle.Render("Document Preview") + "\n")
		b.WriteString(m.wrap(m.digest) + "\n")
	}
	return b.String()
}

func (m Model) renderMetrics() string {
	r := m.snap.Result
	var b strings.Builder

	cards := projection.MetricCards(r.Metrics)
	line := make([]string, len(cards))
	for i, c := range cards {
		line[i] = dimStyle.Render(c.Title+": ") + headerStyle.Render(c.Value)
	}
	b.WriteString(strings.Join(line, "   ") + "\n\n")

	b.WriteString(sectionStyle.Render("AI Response") + "\n")
	b.WriteString(m.wrap(r.Response) + "\n\n")

	b.WriteString(sectionStyle.Render("Performance") + "\n")
	for _, c := range projection.Performance(r.Metrics) {
		b.WriteString(fmt.Sprintf("  %-12s %s\n", c.Title, c.Value))
	}

	b.WriteString("\n" + sectionStyle.Render("Quality Breakdown") + "\n")
	for _, q := range projection.QualityBreakdown(r.Metrics) {
		b.WriteString(fmt.Sprintf("  %-10s %s %s\n", q.Label, bar(q.Value), q.Display))
	}
	b.WriteString(fmt.Sprintf("\n  Overall Score %s out of 100\n", headerStyle.Render(projection.OverallScore(r.Metrics))))
	return b.String()
}

func (m Model) renderChunks() string {
	r := m.snap.Result
	var b strings.Builder
	b.WriteString(dimStyle.Render(projection.ChunkSummary(r)) + "\n")
	if missing := len(r.RetrievedChunks) - projection.RetrievedCount(r); missing > 0 {
		b.WriteString(dimStyle.Render(fmt.Sprintf("%d retrieved ids match no chunk", missing)) + "\n")
	}
	b.WriteString("\n")
	for _, c := range projection.ChunkViews(r) {
		title := fmt.Sprintf("Chunk #%d", c.ID)
		content := c.Content
		if c.Retrieved {
			title += " " + badgeStyle.Render("✓ Retrieved")
			content = highlightBestSentence(content, m.snap.ResultQuery)
		}
		b.WriteString(headerStyle.Render(title) + "\n")
		b.WriteString(m.wrap(content) + "\n\n")
	}
	return b.String()
}

func (m Model) wrap(s string) string {
	if m.viewport.Width <= 0 {
		return s
	}
	return lipgloss.NewStyle().Width(m.viewport.Width).Render(s)
}

// bar draws a 0..100 value as a fixed-width gauge.
func bar(v float64) string {
	n := int(v / 100 * scoreBarWidth)
	n = min(max(n, 0), scoreBarWidth)
	return strings.Repeat("█", n) + dimStyle.Render(strings.Repeat("░", scoreBarWidth-n))
}

// highlightBestSentence styles the sentence that best matches query in place;
// everything else in text is left exactly as received.
func highlightBestSentence(text, query string) string {
	start, end := preview.BestMatch(text, query)
	if start < 0 {
		return text
	}
	return text[:start] + highlightStyle.Render(text[start:end]) + text[end:]
}

func documentDigest(text string) string {
	if text == "" {
		return ""
	}
	return preview.Digest(text, digestLength)
}
