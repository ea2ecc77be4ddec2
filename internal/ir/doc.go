// Package ir provides the constrained value types used for free-form item
// details and the canonical JSON encoding used wherever a value must hash or
// compare identically across processes.
//
// Key design constraints:
//   - NO float types (use int64); floats make canonical encoding ambiguous
//   - Object keys are ordered by UTF-16 code units (RFC 8785)
//   - Strings are NFC normalized at the canonical serialization boundary
//
// ir imports nothing internal. Every other internal package may import it.
package ir
