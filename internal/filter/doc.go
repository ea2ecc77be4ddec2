// Package filter defines the item filter IR and sort orders used by fetch
// requests.
//
// Filter is a sealed interface: only types in this package implement it, so
// backends (the in-memory matcher here, the SQL compiler in querysql) can
// switch over it exhaustively. Each backend must give identical results for
// the same filter; tests in both packages share the same cases.
package filter
