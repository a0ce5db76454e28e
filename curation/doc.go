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


// Package curation turns raw search results into a short, ranked, filtered
// candidate list for a downstream agent.
//
// A Pipeline filters every document's text concurrently on a bounded worker
// pool, then makes one rerank call over the filtered texts and maps the ranking
// back onto the documents. Duplicate documents (same URL and body) are curated
// once. The pipeline keeps no state between calls: given a non-empty input it
// always returns a non-empty result, even when the rerank service is down.
package curation
