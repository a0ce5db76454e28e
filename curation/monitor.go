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


package curation

import (
	"time"

	"github.com/poiesic/sieve/core"
	"github.com/poiesic/sieve/rerank"
)

// Stats summarizes one Curate call.
type Stats struct {
	RunID          string
	DocumentsIn    int
	Duplicates     int
	DocumentsOut   int
	RerankRequests int
	FallbackRerank bool
	Elapsed        time.Duration
}

// Monitor provides hooks to observe curation.
// Implement this interface to track intermediate steps and results.
// Hooks are called from the goroutine running Curate, never concurrently
// within one call.
type Monitor interface {
	Start(runID, query string, documents int)
	AfterDeduplicate(unique []*core.Document, duplicates int)
	AfterFilter(filtered []string)
	AfterRerank(outcome rerank.Outcome)
	Finish(results []*core.Document, stats Stats)
}

// noopMonitor is a no-op implementation of Monitor
type noopMonitor struct{}

var _ Monitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_, _ string, _ int)                  {}
func (n *noopMonitor) AfterDeduplicate(_ []*core.Document, _ int) {}
func (n *noopMonitor) AfterFilter(_ []string)                     {}
func (n *noopMonitor) AfterRerank(_ rerank.Outcome)               {}
func (n *noopMonitor) Finish(_ []*core.Document, _ Stats)         {}
