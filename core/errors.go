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


package core

import "errors"

// Domain validation errors
var (
	// ErrInvalidDocument indicates a Document failed validation.
	ErrInvalidDocument = errors.New("invalid document")

	// ErrEmptyContent indicates a document carries no raw text.
	ErrEmptyContent = errors.New("content cannot be empty")

	// ErrInvalidProbability indicates a prediction probability outside [0,1].
	ErrInvalidProbability = errors.New("probability must be within [0,1]")

	// ErrResultCountMismatch indicates a classifier returned a different number
	// of results than it was given texts.
	ErrResultCountMismatch = errors.New("result count does not match input count")

	// ErrInvalidRerankResponse indicates a rerank response violated its ordering contract.
	ErrInvalidRerankResponse = errors.New("invalid rerank response")

	// ErrIndexOutOfRange indicates a rerank result referenced a document that was not sent.
	ErrIndexOutOfRange = errors.New("document index out of range")

	// ErrDuplicateIndex indicates a rerank result referenced the same document twice.
	ErrDuplicateIndex = errors.New("duplicate document index")

	// ErrTooManyResults indicates a rerank response returned more than TopK results.
	ErrTooManyResults = errors.New("more results than requested")

	// ErrScoresNotDescending indicates rerank results were not sorted best-first.
	ErrScoresNotDescending = errors.New("scores not in descending order")
)
