// Package models defines the catalog's records and persistence interfaces.
//
// The package contains two kinds of types:
//
// 1. Boundary records: values exchanged with the backing store, with JSON tags matching its columns
//   - [Course] : a course listing with its stored video reference
//   - [Category] : a catalog section keyed by slug
//   - [Like] : a user's bookmark of a course
//
// 2. Contracts
//   - [Store] : the create/read operations the catalog needs, implemented by the hosted backend client
//     and by the local SQLite repositories
//   - [Repository] : the CRUD shape shared by the local repositories
//
// Nothing here talks to the network or the disk.
package models
