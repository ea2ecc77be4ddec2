// Package store provides SQLite-backed storage for organizer items.
//
// One database may hold the items of several managers; every Store is scoped
// to one manager URI and never sees the rows of another.
//
// Recurring items are stored once with their rule. Exception occurrences
// (occurrences that were edited) are stored as their own rows carrying the
// parent key and the original start the rule generated; at most one exception
// exists per parent and original start.
//
// # Query Results
//
// Every SELECT ends with "id COLLATE BINARY ASC" so equal sort keys come back
// in a stable order. WHERE clauses come from querysql and select a superset;
// List applies filter.Query.Match and filter.Sort to the rows before
// returning them.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Details and recurrence rules are stored as RFC 8785 canonical JSON via
// internal/ir, so equal values produce identical rows.
package store
