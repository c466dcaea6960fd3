// Package cli provides the interactive toofer command-line client.
//
// It wires configuration, the local SQLite store, the vault services and an
// interactive REPL. On start it repairs the vault index, offers to migrate a
// legacy single vault, and asks to unlock when vaults exist.
//
// Key features:
//   - Create, unlock, lock, rename and delete vaults
//   - Add accounts by hand or from otpauth:// URIs
//   - Show current codes once or refresh them on a timer (watch)
//   - Export accounts as otpauth:// URIs or QR codes
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
// See App and runREPL for details.
package cli
