// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package rerank

import (
	"context"

	"github.com/poiesic/sieve/core"
)

// Reranker orders documents by relevance to a query.
// Implementations must be safe for concurrent use.
type Reranker interface {
	// Rerank returns at most min(maxResults, len(documents)) documents, best
	// match first. On service failure the original order is returned.
	Rerank(ctx context.Context, query string, documents []string, maxResults int) []string

	// RerankIndexed is Rerank with original positions and scores, so callers
	// can map the order back onto their own records.
	RerankIndexed(ctx context.Context, query string, documents []string, maxResults int) Outcome
}

// Embedder generates vector embeddings for text.
// Implementations must be safe for concurrent use.
type Embedder interface {
	// Embed returns one vector per text, in input order.
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Outcome is the result of one rerank call.
type Outcome struct {
	// Results in ranked order.
	Results []core.RerankResult

	// Degraded is set when Results is the original order because the ranking
	// service failed.
	Degraded bool

	// Err is the failure behind a degraded outcome.
	Err error

	// Requests counts calls made to the ranking service.
	Requests int
}

// Indices returns the original document positions in ranked order.
func (o Outcome) Indices() []int {
	indices := make([]int, len(o.Results))
	for i, r := range o.Results {
		indices[i] = r.Index
	}
	return indices
}

// originalOrder is the fail-soft answer: the first maxResults documents as given.
func originalOrder(documents []string, maxResults int) []core.RerankResult {
	n := min(max(maxResults, 0), len(documents))
	results := make([]core.RerankResult, n)
	for i := range results {
		results[i] = core.RerankResult{Index: i, Content: documents[i]}
	}
	return results
}

func contents(results []core.RerankResult) []string {
	docs := make([]string, len(results))
	for i, r := range results {
		docs[i] = r.Content
	}
	return docs
}
