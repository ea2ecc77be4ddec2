// Package compiler turns item documents into items.
//
// A document is a CUE or YAML file with a top-level items struct keyed by
// local key:
//
//	items: standup: {
//		type:  "event"
//		label: "Standup"
//		start: "2026-03-01T09:00:00Z"
//		end:   "2026-03-01T09:15:00Z"
//		recurrence: {frequency: "daily", count: 10}
//	}
//	items: "standup-moved": {
//		type:           "event-occurrence"
//		parent:         "standup"
//		original_start: "2026-03-03T09:00:00Z"
//		start:          "2026-03-03T11:00:00Z"
//	}
//
// CUE documents are unified with an embedded schema before compilation.
// YAML documents are decoded strictly and checked by Validate only.
// Keys become local item ids in the manager the caller names. A parent is
// referenced by its key and must be defined in the same document.
package compiler
