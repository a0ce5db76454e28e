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


package fasttext

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"strings"

	"github.com/poiesic/sieve/classify"
	"github.com/poiesic/sieve/core"
)

// Model is a loaded supervised fastText model. It is immutable after loading and
// safe for concurrent use.
type Model struct {
	args   *args
	dict   *dictionary
	input  *matrix
	output outputLayer
}

var _ classify.Classifier = (*Model)(nil)

// Load reads a model from a .bin file on disk.
func Load(path string) (*Model, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	m, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	return m, nil
}

// CheckFile reports whether path starts with a fastText header this package
// can read. It does not decode the rest of the file.
func CheckFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = readHeader(f)
	return err
}

// Read decodes a model from r.
func Read(r io.Reader) (*Model, error) {
	br := bufio.NewReaderSize(r, 1<<20)

	version, err := readHeader(br)
	if err != nil {
		return nil, err
	}

	a, err := readArgs(br, version)
	if err != nil {
		return nil, err
	}
	if a.Model != modelSupervised {
		return nil, ErrNotSupervised
	}

	dict, err := readDictionary(br, a)
	if err != nil {
		return nil, err
	}
	if dict.nlabels == 0 {
		return nil, fmt.Errorf("%w: no labels", ErrInvalidModel)
	}

	quantInput, err := br.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("reading input matrix flag: %w", err)
	}
	if quantInput != 0 {
		return nil, ErrQuantizedModel
	}
	if dict.isPruned() {
		return nil, fmt.Errorf("%w: pruned dictionary without quantization", ErrInvalidModel)
	}

	input, err := readMatrix(br, int64(a.Dim))
	if err != nil {
		return nil, fmt.Errorf("input matrix: %w", err)
	}
	if input.rows < int64(dict.nwords)+int64(max(a.Bucket, 0)) {
		return nil, fmt.Errorf("%w: input matrix %dx%d does not fit dictionary", ErrInvalidModel, input.rows, input.cols)
	}

	// output quantization flag; only meaningful for quantized models
	if _, err := br.ReadByte(); err != nil {
		return nil, fmt.Errorf("reading output matrix flag: %w", err)
	}

	wo, err := readMatrix(br, int64(a.Dim))
	if err != nil {
		return nil, fmt.Errorf("output matrix: %w", err)
	}

	var output outputLayer
	switch a.Loss {
	case lossHS:
		if wo.rows < int64(dict.nlabels)-1 {
			return nil, fmt.Errorf("%w: output matrix has %d rows for %d labels", ErrInvalidModel, wo.rows, dict.nlabels)
		}
		output = newHSLayer(wo, dict.labelCounts())
	case lossSoftmax, lossNS, lossOVA:
		if wo.rows < int64(dict.nlabels) {
			return nil, fmt.Errorf("%w: output matrix has %d rows for %d labels", ErrInvalidModel, wo.rows, dict.nlabels)
		}
		output = &flatLayer{wo: wo, softmax: a.Loss == lossSoftmax}
	default:
		return nil, fmt.Errorf("%w: unknown loss %s", ErrInvalidModel, a.Loss)
	}

	slog.Debug("fastText model decoded",
		"dim", a.Dim, "words", dict.nwords, "labels", dict.nlabels, "loss", a.Loss.String(), "bucket", a.Bucket)

	return &Model{args: a, dict: dict, input: input, output: output}, nil
}

// Labels returns every label the model can predict.
func (m *Model) Labels() []string {
	labels := make([]string, m.dict.nlabels)
	for i := range labels {
		labels[i] = m.dict.label(int32(i))
	}
	return labels
}

// Dimension returns the width of the model's hidden layer.
func (m *Model) Dimension() int {
	return int(m.args.Dim)
}

// Predict returns the k most likely labels for each text.
func (m *Model) Predict(texts []string, k int) []core.ClassificationResult {
	if k < 1 {
		k = 1
	}
	results := make([]core.ClassificationResult, len(texts))
	for i, text := range texts {
		results[i] = core.ClassificationResult{
			Predictions: m.PredictLine(text, k, 0),
			Source:      core.ScoreSourceModel,
		}
	}
	return results
}

// PredictLine returns up to k labels for one text whose probability is at least
// threshold. Newlines are treated as spaces. The result is empty when the text
// yields no model input.
func (m *Model) PredictLine(text string, k int, threshold float32) []core.Prediction {
	text = strings.ReplaceAll(text, "\n", " ")
	ids := m.dict.line(text)
	if len(ids) == 0 {
		return []core.Prediction{}
	}

	hidden := make([]float32, m.args.Dim)
	for _, id := range ids {
		for j, v := range m.input.row(id) {
			hidden[j] += v
		}
	}
	inv := 1 / float32(len(ids))
	for j := range hidden {
		hidden[j] *= inv
	}

	best := m.output.predict(hidden, k, threshold)
	predictions := make([]core.Prediction, len(best))
	for i, b := range best {
		predictions[i] = core.Prediction{
			Label:       m.dict.label(b.id),
			Probability: min(math.Exp(float64(b.score)), 1),
		}
	}
	return predictions
}
