// Package ir provides the in-memory representation shared by every other
// cinemad package: the compiled specification document, the constrained
// value types used for record fields and structure arguments, and records.
//
// This package contains type definitions and serialization only. All other
// internal packages import ir; ir imports nothing internal.
//
// Key design constraints:
//   - Records are compared by identity (*Record), never by value
//   - Document slices preserve declaration order from the specification
//   - Canonical JSON is the only serialization used for hashing and snapshots
package ir
