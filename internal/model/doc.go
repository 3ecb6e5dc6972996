// Package model defines the record types shared by every shipledger package.
//
// This package contains type definitions and the detail payload parser only.
// It imports nothing internal, so store, match, and engine can all depend on it
// without cycles.
//
// Key design constraints:
//   - NO float types in stored or matched values - money is int64 game currency
//   - Source records are immutable once read; only LookupEntry is mutated, and
//     only by the ledger store
//   - All JSON tags use snake_case, except payload fields mirrored from the game API
package model
