package usecase

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"pharmarag/internal/adapter/monitor"
	"pharmarag/internal/domain"
	"pharmarag/internal/port"
)

const (
	passageSeparator = "\n\n---\n\n"
	previewLimit     = 200

	// Answers are generated in Polish, matching the leaflet corpus.
	promptTemplate = `Odpowiedz na pytanie tylko na podstawie poniższych informacji:
%s
---
Odpowiedz na pytanie tylko na podstawie powyższego kontekstu: %s

Jeśli w kontekście nie ma istotnych informacji na temat pytania, grzecznie poinformuj o tym użytkownika i zasugeruj, aby zadał pytanie związane z lekami lub farmacją, na które mogę odpowiedzieć na podstawie dostępnych informacji.`

	fallbackContext = "Nie znaleziono żadnych istotnych informacji w bazie danych na temat tego zapytania. " +
		"Baza danych zawiera informacje o lekach i farmacji, ale to konkretne zapytanie nie pasuje do dostępnych danych."
)

// AskUseCase answers a question in one pass: retrieve top-k passages, apply
// the relevance threshold, assemble a context (or the fixed fallback),
// generate, and report sources and per-passage metadata. Retries, if any,
// belong to the collaborators.
type AskUseCase struct {
	backend      port.DocumentBackend
	generator    port.Generator
	topK         int
	minRelevance float64
	monitor      *monitor.Monitor
	logger       *slog.Logger
}

func NewAskUseCase(backend port.DocumentBackend, generator port.Generator, topK int, minRelevance float64, mon *monitor.Monitor, logger *slog.Logger) *AskUseCase {
	if topK <= 0 {
		topK = 3
	}
	if minRelevance <= 0 {
		minRelevance = 0.7
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AskUseCase{
		backend:      backend,
		generator:    generator,
		topK:         topK,
		minRelevance: minRelevance,
		monitor:      mon,
		logger:       logger,
	}
}

// Ask answers the question. The generated text is returned verbatim.
func (u *AskUseCase) Ask(question string) (domain.Answer, error) {
	if u.monitor != nil {
		defer u.monitor.Track("ask")()
	}

	start := time.Now()
	passages, err := u.backend.SimilaritySearch(question, u.topK)
	if err != nil {
		return domain.Answer{}, domain.NewUpstreamError("ask", "store", time.Since(start), err)
	}

	// A best score exactly at the threshold still counts as relevant.
	relevant := len(passages) > 0 && passages[0].Score >= u.minRelevance

	var context string
	var sources []string
	var metadata []domain.PassageMetadata

	if relevant {
		context = assembleContext(passages)
		sources = dedupeSources(passages)
		metadata = passageMetadata(passages)
	} else {
		best := "no results"
		if len(passages) > 0 {
			best = fmt.Sprintf("%.4f", passages[0].Score)
		}
		u.logger.Info("no relevant passages, using fallback context",
			"question_length", len(question), "best_score", best)
		context = fallbackContext
		sources = []string{}
		metadata = []domain.PassageMetadata{}
	}

	prompt := fmt.Sprintf(promptTemplate, context, question)

	genStart := time.Now()
	response, err := u.generator.Generate(prompt)
	if err != nil {
		return domain.Answer{}, domain.NewUpstreamError("ask", "generation", time.Since(genStart), err)
	}

	return domain.Answer{
		Response: response,
		Sources:  sources,
		Metadata: metadata,
	}, nil
}

// assembleContext formats each passage as a titled block and joins them with
// a visible separator.
func assembleContext(passages []domain.ScoredPassage) string {
	blocks := make([]string, 0, len(passages))
	for _, p := range passages {
		titleParts := make([]string, 0, 2)
		if p.Chunk.Name != "" {
			titleParts = append(titleParts, p.Chunk.Name)
		}
		if p.Chunk.Section != "" {
			titleParts = append(titleParts, p.Chunk.Section)
		}
		title := "Fragment"
		if len(titleParts) > 0 {
			title = strings.Join(titleParts, " > ")
		}

		header := "## " + title
		if p.Chunk.Source != "" {
			header += "\n[Source: " + p.Chunk.Source + "]"
		}

		blocks = append(blocks, header+"\n"+strings.TrimSpace(p.Chunk.Content))
	}
	return strings.Join(blocks, passageSeparator)
}

// dedupeSources extracts one source per passage, dropping empties and
// duplicates while preserving first-seen order.
func dedupeSources(passages []domain.ScoredPassage) []string {
	seen := make(map[string]struct{})
	sources := make([]string, 0, len(passages))
	for _, p := range passages {
		src := p.Chunk.Source
		if src == "" {
			continue
		}
		if _, ok := seen[src]; ok {
			continue
		}
		seen[src] = struct{}{}
		sources = append(sources, src)
	}
	return sources
}

func passageMetadata(passages []domain.ScoredPassage) []domain.PassageMetadata {
	metadata := make([]domain.PassageMetadata, 0, len(passages))
	for _, p := range passages {
		metadata = append(metadata, domain.PassageMetadata{
			Name:           p.Chunk.Name,
			Section:        p.Chunk.Section,
			Source:         p.Chunk.Source,
			RelevanceScore: p.Score,
			Preview:        preview(p.Chunk.Content),
		})
	}
	return metadata
}

// preview truncates content to previewLimit characters with an ellipsis.
func preview(content string) string {
	runes := []rune(content)
	if len(runes) <= previewLimit {
		return content
	}
	return string(runes[:previewLimit]) + "..."
}
