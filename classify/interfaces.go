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


package classify

import "github.com/poiesic/sieve/core"

// Classifier scores texts with ranked (label, probability) predictions.
//
// Implementations must be safe for concurrent use. Predict returns exactly one
// ClassificationResult per input text, in input order, with every probability
// within [0,1]. k is the number of predictions requested per text; values below
// 1 are treated as 1.
type Classifier interface {
	Predict(texts []string, k int) []core.ClassificationResult
}
