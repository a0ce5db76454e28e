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


// Package rerank orders candidate documents by relevance to a query.
//
// Two operations with different failure contracts live here:
//
//   - Rerank and RerankIndexed never fail. When the remote service times out,
//     answers with a non-2xx status, or returns a malformed or inconsistent
//     body, the error is logged and the documents come back in their original
//     order, truncated to maxResults. The reranker enforces its own request
//     timeout regardless of the caller's context deadline.
//   - Embed returns errors to the caller. It is a building block for callers
//     that want raw similarity scores and have their own recovery strategy.
//
// Implementations:
//
//   - Jina: the Jina AI rerank and embeddings endpoints.
//   - EmbeddingReranker: cosine similarity over vectors from any Embedder,
//     such as Jina or an OpenAI-compatible host (package rerank/openai).
package rerank
