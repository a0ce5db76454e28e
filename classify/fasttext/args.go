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
	"encoding/binary"
	"fmt"
	"io"
)

const (
	fileMagic         int32 = 793712314
	fileFormatVersion int32 = 12
)

type lossName int32

const (
	lossHS lossName = iota + 1
	lossNS
	lossSoftmax
	lossOVA
)

func (l lossName) String() string {
	switch l {
	case lossHS:
		return "hs"
	case lossNS:
		return "ns"
	case lossSoftmax:
		return "softmax"
	case lossOVA:
		return "one-vs-all"
	default:
		return fmt.Sprintf("loss(%d)", int32(l))
	}
}

type modelName int32

const (
	modelCBOW modelName = iota + 1
	modelSkipgram
	modelSupervised
)

// args mirrors the training arguments stored in the model header.
// Field order matches the on-disk layout.
type args struct {
	Dim          int32
	WS           int32
	Epoch        int32
	MinCount     int32
	Neg          int32
	WordNgrams   int32
	Loss         lossName
	Model        modelName
	Bucket       int32
	Minn         int32
	Maxn         int32
	LRUpdateRate int32
	T            float64
}

func readHeader(r io.Reader) (int32, error) {
	var header struct {
		Magic   int32
		Version int32
	}
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return 0, fmt.Errorf("%w: reading header: %w", ErrInvalidModel, err)
	}
	if header.Magic != fileMagic {
		return 0, fmt.Errorf("%w: bad magic %d", ErrInvalidModel, header.Magic)
	}
	if header.Version > fileFormatVersion {
		return 0, fmt.Errorf("%w: %d", ErrUnsupportedVersion, header.Version)
	}
	return header.Version, nil
}

// maxDim is far above any published fastText model.
const maxDim = 1 << 16

func readArgs(r io.Reader, version int32) (*args, error) {
	a := &args{}
	if err := binary.Read(r, binary.LittleEndian, a); err != nil {
		return nil, fmt.Errorf("reading args: %w", err)
	}
	if a.Dim <= 0 || a.Dim > maxDim {
		return nil, fmt.Errorf("%w: dimension %d", ErrInvalidModel, a.Dim)
	}
	// version 11 supervised models were trained without character n-grams
	if version == 11 && a.Model == modelSupervised {
		a.Maxn = 0
	}
	return a, nil
}
