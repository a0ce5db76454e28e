// Package loader resolves the classifier used for quality scoring.
//
// Load tries, in order, an explicit model path, the default artifact
// (lid.176.bin) in the model directory, and finally downloading that artifact.
// Any failure along the way is logged at WARN and Load returns a Handle backed
// by the statistical fallback classifier instead. Load never returns an error.
//
// A Handle is immutable and safe to share. Once guards a single load attempt so
// that concurrent first callers all receive the same Handle:
//
//	once := loader.NewOnce(loader.NewConfig(loader.WithModelDir("/var/lib/sieve")))
//	handle := once.Get(ctx)
//	results := handle.Predict(texts, 1)
package loader
