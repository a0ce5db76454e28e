package fasttext

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

const (
	// readChunk bounds the scratch buffer used while decoding matrix rows.
	readChunk = 1 << 16

	// maxMatrixElems caps a matrix at 4 GiB of float32s. lid.176.bin holds
	// about 64M.
	maxMatrixElems = 1 << 30
)

type matrix struct {
	rows int64
	cols int64
	data []float32
}

// readMatrix decodes a dense matrix whose rows must be cols wide. The shape is
// checked before anything is allocated and the data slice grows as rows
// arrive, so a corrupt header fails on the first short read.
func readMatrix(r io.Reader, cols int64) (*matrix, error) {
	var dims [2]int64
	if err := binary.Read(r, binary.LittleEndian, &dims); err != nil {
		return nil, fmt.Errorf("reading matrix shape: %w", err)
	}
	m, n := dims[0], dims[1]
	if m < 0 || n <= 0 || m > math.MaxInt32 {
		return nil, fmt.Errorf("%w: matrix shape %dx%d", ErrInvalidModel, m, n)
	}
	if n != cols {
		return nil, fmt.Errorf("%w: matrix width %d != %d", ErrInvalidModel, n, cols)
	}
	if m > maxMatrixElems/n {
		return nil, fmt.Errorf("%w: matrix shape %dx%d too large", ErrInvalidModel, m, n)
	}

	total := int(m * n)
	data := make([]float32, 0, min(total, 64*readChunk))
	buf := make([]byte, 4*readChunk)
	for off := 0; off < total; off += readChunk {
		end := min(off+readChunk, total)
		raw := buf[:4*(end-off)]
		if _, err := io.ReadFull(r, raw); err != nil {
			return nil, fmt.Errorf("reading matrix data: %w", err)
		}
		for i := 0; i < end-off; i++ {
			data = append(data, math.Float32frombits(binary.LittleEndian.Uint32(raw[4*i:])))
		}
	}

	return &matrix{rows: m, cols: n, data: data}, nil
}

func (m *matrix) row(i int32) []float32 {
	start := int64(i) * m.cols
	return m.data[start : start+m.cols]
}

func (m *matrix) dotRow(v []float32, i int32) float32 {
	var sum float32
	for j, x := range m.row(i) {
		sum += x * v[j]
	}
	return sum
}
