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

import "errors"

var (
	// ErrAPIKeyRequired is returned when no API key is configured.
	ErrAPIKeyRequired = errors.New("rerank: API key is required (set JINA_API_KEY)")

	// ErrEmbedderRequired is returned when an EmbeddingReranker has no Embedder.
	ErrEmbedderRequired = errors.New("rerank: embedder is required")

	// ErrRequestFailed is returned for non-2xx responses.
	ErrRequestFailed = errors.New("rerank: request failed")

	// ErrMalformedResponse is returned when a response body cannot be used.
	ErrMalformedResponse = errors.New("rerank: malformed response")

	// ErrTimeout is returned when a request exceeds the configured timeout.
	ErrTimeout = errors.New("rerank: request timed out")
)
