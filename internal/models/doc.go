// Package models defines the domain entities for the tcgtrack collection client.
//
// The package contains two categories of types:
//
// 1. Data Transfer Objects (DTOs): structs decoded from and encoded to the collection backend
//   - [Instance] : One owned copy of a card with its physical attributes
//   - [CardGroup] : All instances sharing a (card, expansion) key with derived totals
//   - [ExpansionSummary] : An expansion the user owns cards in, with an instance count
//   - [Expansion], [Card] : Catalog entries used to pick cards when adding
//   - [NewInstance], [InstancePatch] : Create and partial-update payloads
//
// 2. Persistent Entities: rows kept in the local SQLite store
//   - [ImportRun] : A bulk import and its outcome
//
// Persistent entities implement the Model interface providing ID, timestamps and validation.
package models
