package core

import (
	"fmt"
	"strings"
)

// ValidateDocument validates a Document according to domain rules.
//
// Validation rules:
//   - RawText must contain non-whitespace characters
//
// NOT validated:
//   - URL and Title (search providers may omit either)
//   - FilteredText and RelevanceRank (populated during curation)
func ValidateDocument(doc *Document) error {
	if doc == nil {
		return fmt.Errorf("%w: document is nil", ErrInvalidDocument)
	}

	if strings.TrimSpace(doc.RawText) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrEmptyContent)
	}

	return nil
}

// ValidateClassificationResults checks that a classifier produced one result per
// input text and that every probability lies within [0,1].
func ValidateClassificationResults(inputs int, results []ClassificationResult) error {
	if len(results) != inputs {
		return fmt.Errorf("%w: expected %d, got %d", ErrResultCountMismatch, inputs, len(results))
	}

	for i, res := range results {
		for _, p := range res.Predictions {
			if p.Probability < 0 || p.Probability > 1 {
				return fmt.Errorf("%w: result %d label %q has %f", ErrInvalidProbability, i, p.Label, p.Probability)
			}
		}
	}

	return nil
}

// ValidateRerankResponse checks a response against the request it answers.
//
// Validation rules:
//   - at most TopK results
//   - every Index within [0, len(Documents)) and unique
//   - scores in descending order
func ValidateRerankResponse(req *RerankRequest, resp *RerankResponse) error {
	if req == nil || resp == nil {
		return fmt.Errorf("%w: nil request or response", ErrInvalidRerankResponse)
	}

	if len(resp.Results) > req.TopK {
		return fmt.Errorf("%w: %w: %d > %d", ErrInvalidRerankResponse, ErrTooManyResults, len(resp.Results), req.TopK)
	}

	seen := make(map[int]bool, len(resp.Results))
	for i, res := range resp.Results {
		if res.Index < 0 || res.Index >= len(req.Documents) {
			return fmt.Errorf("%w: %w: %d", ErrInvalidRerankResponse, ErrIndexOutOfRange, res.Index)
		}
		if seen[res.Index] {
			return fmt.Errorf("%w: %w: %d", ErrInvalidRerankResponse, ErrDuplicateIndex, res.Index)
		}
		seen[res.Index] = true

		if i > 0 && res.Score > resp.Results[i-1].Score {
			return fmt.Errorf("%w: %w at position %d", ErrInvalidRerankResponse, ErrScoresNotDescending, i)
		}
	}

	return nil
}
