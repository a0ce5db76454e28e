// Package mock provides a test double for classify.Classifier.
//
// # Usage
//
//	classifier := mock.NewScoringClassifier(map[string]float64{
//	    "Good paragraph.": 0.9,
//	    "Bad paragraph.":  0.1,
//	}, 0.5)
//
//	// Or inject behavior directly
//	classifier.PredictFunc = func(texts []string, k int) []core.ClassificationResult {
//	    ...
//	}
//
//	// Check call counts
//	count := classifier.CallCount()
//
// The mock is deterministic and safe for concurrent use, which makes it the
// classifier of choice for filter idempotence and pipeline tests.
package mock
