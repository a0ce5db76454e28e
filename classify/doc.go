// Package classify defines the text classification capability used to score
// scraped content.
//
// Two production variants implement Classifier:
//   - fasttext.Model, a supervised fastText model read from a .bin artifact
//   - fallback.Classifier, a statistical stand-in used when no model can be loaded
//
// The loader subpackage chooses between them once per process and hands out an
// immutable Handle. Callers only ever use Predict and never branch on which
// variant is active; the ScoreSource carried by each ClassificationResult records
// where a score came from.
package classify
