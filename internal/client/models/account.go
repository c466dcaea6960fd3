// Package models defines the client-side records stored inside and alongside
// encrypted vaults.
package models

import "time"

// Account is one two-factor authentication entry. Secret is the shared key
// as base32, upper-cased with whitespace removed.
type Account struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Issuer string `json:"issuer"`
	Secret string `json:"secret"`
}

// VaultInfo is the plaintext metadata kept in the vault index. CreatedAt is
// in Unix milliseconds.
type VaultInfo struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CreatedAt int64  `json:"createdAt"`
}

// Created returns CreatedAt as a time.Time.
func (v VaultInfo) Created() time.Time {
	return time.UnixMilli(v.CreatedAt)
}

// CloneAccounts returns a copy of src that shares no backing array with it.
func CloneAccounts(src []Account) []Account {
	if src == nil {
		return []Account{}
	}
	dst := make([]Account, len(src))
	copy(dst, src)
	return dst
}
