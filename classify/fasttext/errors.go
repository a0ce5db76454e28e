package fasttext

import "errors"

var (
	// ErrInvalidModel is returned when the input is not a fastText model file.
	ErrInvalidModel = errors.New("not a fastText model")

	// ErrUnsupportedVersion is returned for model files newer than this reader understands.
	ErrUnsupportedVersion = errors.New("unsupported fastText model version")

	// ErrQuantizedModel is returned for quantized (.ftz) models.
	ErrQuantizedModel = errors.New("quantized fastText models are not supported")

	// ErrNotSupervised is returned when the model was trained without labels.
	ErrNotSupervised = errors.New("fastText model is not supervised")
)
