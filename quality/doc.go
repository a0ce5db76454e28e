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


// Package quality keeps the informative paragraphs of a document.
//
// Text is split into paragraphs on blank lines, every paragraph is scored with a
// single batched call to a classify.Classifier, and paragraphs whose top score
// reaches the threshold are joined back together in their original order. A
// document never comes back empty: when no paragraph passes, the original text
// is returned.
package quality
