// Package itemid provides backend-opaque item identifiers.
//
// An ItemID is a small value type wrapping a polymorphic EngineID supplied by
// the backend that named the item. EngineIDs are immutable after construction,
// so an ItemID can be copied freely and the wrapped object is shared by every
// copy until the last one becomes unreachable.
//
// Ordering across backends is total and deterministic:
//  1. the null ItemID sorts before every other id
//  2. ids from different managers compare by manager URI (byte order)
//  3. ids from the same manager compare with the backend's IsLessThan
//
// Ids from different managers are never equal.
//
// The string form (String / Parse) is for logs, debugging and CLI arguments.
// It round-trips within one backend but is NOT a durable key: backends may
// change their payload encoding between versions.
package itemid
