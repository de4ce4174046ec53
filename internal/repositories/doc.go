// Package repositories implements SQLite persistence for the catalog.
//
// Key Implementations:
//   - [CourseRepository] : course listings with soft deletes and filtered listing
//   - [CategoryRepository] : catalog sections keyed by slug
//   - [LikeRepository] : per-user course bookmarks, unique per user and course
//   - [Store] : adapts the repositories to [models.Store] for the "sqlite" backend driver
//
// Sequence numbers provide stable ordering among courses created in the same instant.
// The [NextSequence] function atomically increments per-table sequence counters in dedicated sequence tables.
//
// Constraint failures surface as shared.ErrDuplicate or shared.ErrConstraint so callers can
// treat the local store and the hosted backend alike.
package repositories
