// Package services implements the catalog's data backends behind the [Backend] interface.
//
// # Supabase
//
// [SupabaseService] speaks PostgREST over HTTP: inserts with Prefer: return=representation,
// equality filters (id=eq.1), id lists (id=in.(1,2)), substring search through an or=() tree,
// PATCH for updates and DELETE with filters. The service role key is sent as the apikey header and
// as a bearer token supplied by an oauth2 static token source. A rate limiter shared by all calls
// keeps bulk jobs under the project's request quota.
//
// PostgREST error bodies decode into [PostgrestError], which unwraps to the shared sentinels:
//   - 23505 : [shared.ErrDuplicate]
//   - 23503, 23502, 23514 : [shared.ErrConstraint]
//   - PGRST116, HTTP 404 : [shared.ErrNotFound]
//   - HTTP 401/403 : [shared.ErrMissingCredentials]
//   - HTTP 5xx : [shared.ErrServiceUnavailable]
//
// [SupabaseService.Raw] exposes unmapped requests for the CLI's api commands.
//
// # Local
//
// [LocalBackend] wraps the SQLite repositories so the server can run without network access.
//
// The client is built once at startup and passed to whoever needs it; nothing in this package
// holds global state.
package services
