// Package sqlite provides the default ChunkStore, backed by a single SQLite
// database file.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that
// requires no CGO, enabling easy cross-compilation.
//
// # Schema
//
// Documents and chunks live in ordinary tables; chunk text is mirrored into
// an FTS5 table by triggers and ranked with bm25 for lexical search.
// Embeddings are stored as little-endian float32 blobs and compared in Go.
// The schema is managed through versioned migrations embedded from the
// migrations/ directory.
//
// # Data Location
//
// By default, the database is stored at ~/.lexground/data/lexground.db
//
// # Thread Safety
//
// All operations are thread-safe. The store relies on SQLite's own locking
// in WAL mode.
package sqlite
