package core

import (
	"encoding/binary"

	"github.com/go-crypt/x/blake2b"
)

// ID is a content-derived identifier for a document.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// DocumentID derives the identity of a scraped document from its URL and raw text.
// Two search hits pointing at the same page with the same body collapse to one ID.
func DocumentID(url, rawText string) ID {
	return IDFromContent(url + "\x00" + rawText)
}

// Unranked marks a Document that has not been placed by the reranker.
const Unranked = -1

// Document is a scraped web page or search result moving through curation.
// FilteredText is populated by the quality filter and RelevanceRank by the reranker.
type Document struct {
	ID            ID
	URL           string
	Title         string
	RawText       string
	FilteredText  string
	RelevanceRank int
}

// NewDocument creates a Document with its ID computed and no rank assigned.
func NewDocument(url, title, rawText string) *Document {
	return &Document{
		ID:            DocumentID(url, rawText),
		URL:           url,
		Title:         title,
		RawText:       rawText,
		RelevanceRank: Unranked,
	}
}

// ScoreSource identifies which classifier variant produced a score.
type ScoreSource string

const (
	// ScoreSourceModel marks scores produced by a loaded classification model.
	ScoreSourceModel ScoreSource = "model"
	// ScoreSourceFallback marks scores synthesized by the statistical fallback.
	ScoreSourceFallback ScoreSource = "fallback"
)

// TextSegment is a paragraph of a document together with its quality score.
type TextSegment struct {
	Text         string
	QualityScore float64
	ScoreSource  ScoreSource
}

// Prediction is a single (label, probability) pair.
type Prediction struct {
	Label       string
	Probability float64
}

// ClassificationResult holds the ranked predictions for one input text.
// Predictions are ordered by descending probability.
type ClassificationResult struct {
	Predictions []Prediction
	Source      ScoreSource
}

// Top returns the highest-probability prediction, or false if there is none.
func (r ClassificationResult) Top() (Prediction, bool) {
	if len(r.Predictions) == 0 {
		return Prediction{}, false
	}
	return r.Predictions[0], true
}

// RerankRequest asks a rerank service to order Documents by relevance to Query.
type RerankRequest struct {
	Query     string   `json:"query"`
	Documents []string `json:"documents"`
	TopK      int      `json:"top_k"`
}

// NewRerankRequest builds a request with TopK = min(maxResults, len(documents)).
func NewRerankRequest(query string, documents []string, maxResults int) *RerankRequest {
	return &RerankRequest{
		Query:     query,
		Documents: documents,
		TopK:      min(maxResults, len(documents)),
	}
}

// RerankResult places one request document at a position in the ranked output.
type RerankResult struct {
	Index   int
	Score   float64
	Content string
}

// RerankResponse is the ordered outcome of a rerank call, best match first.
type RerankResponse struct {
	Results []RerankResult
}
