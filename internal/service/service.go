// Package service is the business orchestration layer. Every method follows
// the same shape: load current state through a repository interface, resolve
// the caller's roles, ask the policy package for a decision, then commit
// through the repository. Services never touch HTTP and never run SQL.
//
// Two conventions hold everywhere:
//
//   - A failed visibility check returns apperror.NotFound, never Forbidden,
//     so callers cannot distinguish "hidden from you" from "does not exist".
//   - A passed visibility check followed by a failed permission check
//     returns apperror.Forbidden.
package service

// Pagination clamps shared by all list operations.
const (
	DefaultListLimit = 20
	MaxListLimit     = 100

	// Message listings page larger: threads are read linearly.
	DefaultMessageLimit = 50
	MaxMessageLimit     = 200
)

// clampPage normalizes limit/offset into the allowed range.
func clampPage(limit, offset, def, max int) (int, int) {
	if limit <= 0 {
		limit = def
	}
	if limit > max {
		limit = max
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
