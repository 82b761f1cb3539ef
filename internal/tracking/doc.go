// Package tracking stores the location fixes reported by the tracked device.
//
// Fixes are immutable once inserted. The repository serves three read paths:
// the fixes of one UTC day for classification and maps, keyset pages of the
// raw table (newest first), and batched streaming of a day for exports.
package tracking
