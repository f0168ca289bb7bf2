// Package collection turns a user's owned-card instances into a grouped, filterable view.
//
// # Grouping
//
// [Group] partitions a flat instance list by (card, expansion) in first-seen order.
// [Normalize] accepts a pre-grouped server response as-is and only recomputes each group's
// derived totals. The Replace/Remove/Insert helpers patch a group list after a single
// mutation without touching the order of unrelated groups.
//
// # Filtering
//
// A [Selector] is either [All] or one expansion id. [ParseSelector] accepts ids as numbers
// or numeric strings so "1" and 1 select the same groups.
//
// # View model
//
// [ViewModel] owns the loaded groups, the active filter and the load state machine
// (Idle, Loading, Ready, Error). Loads carry a generation number and a response from a
// superseded load is dropped. Mutations go to the backend first and are applied locally
// only on success; they never reset the filter or re-enter Loading.
// Readers work from immutable [Snapshot] values.
package collection
