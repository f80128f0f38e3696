// Package search implements the concurrent date-range search core: the
// response classifier, the per-worker sequential date loop, and the
// coordinator that partitions the range, owns the shared stop signal and
// counters, and reports the final outcome.
package search
