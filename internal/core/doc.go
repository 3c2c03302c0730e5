// Package core imports translation CSV exports into per-locale translation
// documents.
//
// The package holds all domain logic independent of any UI or transport
// layer. The CLI and the web handlers both drive it through [Service].
//
// # Import Flow
//
// An import replaces whole documents, never patches them:
//
//  1. [StateLoader] discovers the locale directories under the output
//     directory and flattens every existing document into a [keypath.FlatMap]
//  2. [RowSource] streams the CSV (BOM skipped, input encoding decoded) into
//     a [Reconciler], which overlays each row onto the matching locales
//  3. [Writer] unflattens and renders every non-excluded locale, then
//     replaces each locale's file
//
// Rendering happens for all locales before the first write, so a key
// conflict or sparse array aborts the run with nothing written.
//
// # Column Mapping
//
// CSV headers name locales case-insensitively ("EN" is locale "en"). An
// [AliasMap] maps a locale to a differently named column, such as
// {"en": "ENGLISH"}. The translation key column defaults to SYSTEM_KEY.
//
// # Concurrency
//
// [ImportLimiter] caps concurrent runs globally and serializes runs that
// target the same output directory.
//
// # Error Handling
//
// Failures are [*Error] values classified by [ErrorKind]. [MapError] turns
// any error into a user-facing message with a support code:
//
//   - CFG001-CFG006: configuration errors (missing input, key column, encoding, locale name)
//   - PARSE001-PARSE003: existing documents that cannot be read
//   - KEY001-KEY002: key sets that cannot be rendered as a document
//   - UPL001-UPL004: upload errors (busy, too large, no file, cancelled)
//   - IO001-IO003: filesystem errors
//   - HIST001, LOC001: history disabled, unknown locale
package core
