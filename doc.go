// Package sieve curates web search results before they reach a language model.
//
// A Sieve splits each scraped page into paragraphs, keeps the paragraphs a
// text classifier scores as high quality, and reranks the surviving pages by
// relevance to the query. The classifier is a fastText model when one can be
// found or downloaded and a statistical stand-in otherwise; the reranker is
// the Jina rerank API or an embedding model behind an OpenAI-compatible
// endpoint. Neither dependency failing stops curation.
package sieve
