// Package store reads tables out of SQLite databases for
// application/x-sqlite3 sources.
//
// Databases are opened read-only with query_only set; nothing in cinemad
// ever writes to a source database.
//
// # Table Access
//
//   - Table names are checked against sqlite_master before use and then
//     quoted as identifiers; a name is never interpolated unchecked
//   - Tables are read in rowid order, so repeated loads return records in
//     the same order; views are read in the order SQLite returns them
//   - INTEGER and REAL columns become numbers, TEXT and BLOB become
//     strings, NULL becomes null
package store
