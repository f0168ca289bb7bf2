// Package repositories implements SQLite persistence for client-side state.
//
// Collection data always comes from the backend. The local database only holds what the client
// needs between runs.
//
// Key Implementations:
//   - [LocalStorage] : A string key/value store for session tokens
//   - [ImportRunRepository] : Bulk import history with status tracking
//
// Tables are created by the embedded migrations in [shared.RunMigrations].
package repositories
