// Package tasks runs long catalog jobs with real-time progress reporting.
//
// # Operations
//
//  1. [Engine.Renormalize] : rewrite stored video references into canonical form
//     - Lists every course regardless of status
//     - Resolves each stored reference with the configured [embed.Normalizer]
//     - Writes back only values that resolve and differ from what is stored
//     - Counts unchanged, rewritten, unparseable and failed rows; dry runs write nothing
//
//  2. [Engine.BulkExport] : export the catalog one file (or directory) per category
//     - Formats: json, csv, txt, markdown (optionally with cover images)
//     - Writes export_manifest.json summarizing every category
//
// # Concurrency
//
// Both operations use a fixed worker pool fed by an unbuffered jobs channel. Renormalize throttles
// store writes with a [rate.Limiter] so a large backfill does not trip the backend's rate limits.
//
// # Progress Reporting
//
// All operations use non-blocking channels for progress updates.
//
// The [ProgressUpdate] struct contains phase, step counters, messages, and optional data for advanced UI rendering.
// Updates use select with default to prevent blocking, so a slow consumer misses updates rather than stalling a job.
package tasks
