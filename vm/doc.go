// Package vm implements the Petrel runtime kernel.
//
// This package contains:
//   - Tagged value representation
//   - Dictionary, class, compiled-method and function objects
//   - Per-kind watcher tables and mutation-event dispatch
//   - Version-tagged class attribute caching
package vm
