// Package fasttext reads supervised fastText models (.bin) and predicts labels
// for text in pure Go.
//
// The reader understands the dense binary format written by fastText 0.9.x
// (magic 793712314, format version 11 or 12), including character n-gram
// buckets, word n-grams and the softmax, hierarchical softmax, negative sampling
// and one-vs-all output layers. Quantized models (.ftz) are not supported.
//
// The language identification model lid.176.bin is the primary target:
//
//	model, err := fasttext.Load("lid.176.bin")
//	if err != nil {
//	    return err
//	}
//	results := model.Predict([]string{"This is English."}, 1)
//	// results[0].Predictions[0] == {Label: "__label__en", Probability: 0.97...}
package fasttext
