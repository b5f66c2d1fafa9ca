// Package analysis computes statistics over a filtered row stream and
// compares them with precomputed reference distributions. The aggregator
// folds every row into fixed counters in one pass; the comparator measures
// each metric's share against its baseline and ranks the deviations.
package analysis
