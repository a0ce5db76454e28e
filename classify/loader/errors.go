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


package loader

import "errors"

var (
	// ErrModelNotFound is returned when no model file exists and downloading is disabled.
	ErrModelNotFound = errors.New("classifier model not found")

	// ErrNotClassifier is returned when a loaded model cannot make predictions.
	ErrNotClassifier = errors.New("loaded model has no predict capability")

	// ErrDownloadFailed is returned when the model artifact could not be fetched.
	ErrDownloadFailed = errors.New("model download failed")

	// ErrInvalidMaxAttempts is returned when retry attempts is not positive.
	ErrInvalidMaxAttempts = errors.New("maxAttempts must be greater than 0")
)
