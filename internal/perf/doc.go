// Package perf holds the helpers that keep the virtualized history list
// responsive: a bounded LRU cache for memoized rows, a scroll velocity
// tracker feeding dynamic overscan, a row height cache with suffix
// invalidation, a throttled batch processor and a lightweight timing
// monitor.
//
// BoundedCache and RowHeightCache are not safe for concurrent use; they are
// owned by the list model and only touched from the UI goroutine.
package perf
