// Package tasks runs long collection operations with progress reporting.
//
// # Bulk import
//
// [ImportEngine.Import] adds every row of a parsed CSV file to the collection:
//
//  1. Rows that failed to parse are recorded as failures and never sent
//  2. Valid rows are submitted to a bounded worker pool, throttled by a rate limiter
//  3. Each row is one POST to the backend; a failed row is reported, not retried
//  4. The run's counts and status are stored in the import_runs table
//
// # Progress Reporting
//
// Operations send [ProgressUpdate] values on an optional channel. Sends never block:
// when the channel is full the update is dropped.
package tasks
