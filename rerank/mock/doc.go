// Package mock provides test doubles for the rerank interfaces.
package mock
