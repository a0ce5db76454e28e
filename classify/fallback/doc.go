// Package fallback provides the statistical stand-in used when the real
// classifier model cannot be loaded.
//
// The fallback keeps the shape of real predictions (one synthesized label and k
// scores per text) but its scores carry no information about the text: they are
// drawn uniformly from a configured range. Downstream filtering therefore keeps
// working, just without quality signal. Every call logs a warning so a degraded
// deployment is visible in the logs.
package fallback
