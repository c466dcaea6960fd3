// Package services contains the application services of the vault client:
// the multi-vault store and the unlocked session built on top of it.
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/dmitrijs2005/toofer/internal/client/models"
	"github.com/dmitrijs2005/toofer/internal/client/repositories/kv"
	"github.com/dmitrijs2005/toofer/internal/common"
	"github.com/dmitrijs2005/toofer/internal/cryptox"
	"github.com/dmitrijs2005/toofer/internal/logging"
	"github.com/google/uuid"
)

// Storage keys. Blob keys are BlobPrefix + vault id.
const (
	IndexKey   = "toofer_vaults"
	BlobPrefix = "toofer_vault_"
	LegacyKey  = "toofer_vault"

	// MigratedVaultName labels the vault produced by MigrateLegacy.
	MigratedVaultName = "My Vault"
)

// VaultCipher is the subset of cryptox.Cipher the store needs.
type VaultCipher interface {
	Encrypt(plaintext string, passphrase []byte) (cryptox.EncryptedVault, error)
	Decrypt(v cryptox.EncryptedVault, passphrase []byte) (string, error)
}

// ReconcileReport lists what Reconcile found. Dropped entries were removed
// from the index; orphan blobs are only reported.
type ReconcileReport struct {
	Dropped []models.VaultInfo
	Orphans []string
}

// Clean reports whether nothing was found.
func (r ReconcileReport) Clean() bool {
	return len(r.Dropped) == 0 && len(r.Orphans) == 0
}

// VaultStore manages the lifecycle of encrypted vaults.
//
// Contract:
//   - ListVaults never fails on a missing or corrupt index; it returns an empty list.
//   - LoadVault returns common.ErrorNotFound for an unknown id and
//     common.ErrAuthentication for a wrong passphrase.
//   - A failed decrypt never writes.
//   - CreateVault, DeleteVault and MigrateLegacy write the blob before the
//     index, inside one transaction when the repository supports it.
type VaultStore interface {
	ListVaults(ctx context.Context) ([]models.VaultInfo, error)
	GetVaultInfo(ctx context.Context, vaultID string) (models.VaultInfo, error)
	HasVault(ctx context.Context) (bool, error)
	HasLegacy(ctx context.Context) (bool, error)
	CreateVault(ctx context.Context, name string, accounts []models.Account, passphrase []byte) (string, error)
	SaveVault(ctx context.Context, vaultID string, accounts []models.Account, passphrase []byte) error
	LoadVault(ctx context.Context, vaultID string, passphrase []byte) ([]models.Account, error)
	DeleteVault(ctx context.Context, vaultID string) error
	RenameVault(ctx context.Context, vaultID, name string) error
	MigrateLegacy(ctx context.Context, passphrase []byte) (string, error)
	Reconcile(ctx context.Context) (ReconcileReport, error)
	Clear(ctx context.Context) error
}

type vaultStore struct {
	repo   kv.Repository
	cipher VaultCipher
	log    logging.Logger
	now    func() time.Time
	newID  func() string
}

// NewVaultStore returns a VaultStore persisting into repo.
func NewVaultStore(repo kv.Repository, cipher VaultCipher, log logging.Logger) VaultStore {
	return &vaultStore{
		repo:   repo,
		cipher: cipher,
		log:    log,
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

func blobKey(vaultID string) string {
	return BlobPrefix + vaultID
}

// update runs fn atomically when the repository supports transactions.
func (s *vaultStore) update(ctx context.Context, fn func(ctx context.Context, repo kv.Repository) error) error {
	if tx, ok := s.repo.(kv.Transactional); ok {
		return tx.WithTx(ctx, fn)
	}
	return fn(ctx, s.repo)
}

func (s *vaultStore) readIndex(ctx context.Context, repo kv.Repository) ([]models.VaultInfo, error) {
	raw, err := repo.Get(ctx, IndexKey)
	if err != nil {
		return nil, fmt.Errorf("error reading vault index: %w", err)
	}
	if len(raw) == 0 {
		return []models.VaultInfo{}, nil
	}

	var vaults []models.VaultInfo
	if err := json.Unmarshal(raw, &vaults); err != nil {
		s.log.Warn(ctx, "vault index is unreadable, treating as empty", "error", err)
		return []models.VaultInfo{}, nil
	}
	if vaults == nil {
		vaults = []models.VaultInfo{}
	}
	return vaults, nil
}

func writeIndex(ctx context.Context, repo kv.Repository, vaults []models.VaultInfo) error {
	if vaults == nil {
		vaults = []models.VaultInfo{}
	}
	raw, err := json.Marshal(vaults)
	if err != nil {
		return fmt.Errorf("error encoding vault index: %w", err)
	}
	if err := repo.Set(ctx, IndexKey, raw); err != nil {
		return fmt.Errorf("error writing vault index: %w", err)
	}
	return nil
}

func (s *vaultStore) seal(accounts []models.Account, passphrase []byte) ([]byte, error) {
	data, err := json.Marshal(models.CloneAccounts(accounts))
	if err != nil {
		return nil, fmt.Errorf("error encoding accounts: %w", err)
	}

	vault, err := s.cipher.Encrypt(string(data), passphrase)
	if err != nil {
		return nil, fmt.Errorf("encryption error: %w", err)
	}

	return vault.Marshal()
}

func (s *vaultStore) open(raw []byte, passphrase []byte) ([]models.Account, error) {
	vault, err := cryptox.ParseEncryptedVault(raw)
	if err != nil {
		return nil, err
	}

	plaintext, err := s.cipher.Decrypt(vault, passphrase)
	if err != nil {
		return nil, err
	}

	var accounts []models.Account
	if err := json.Unmarshal([]byte(plaintext), &accounts); err != nil {
		return nil, fmt.Errorf("%w: vault payload: %v", common.ErrFormat, err)
	}
	return models.CloneAccounts(accounts), nil
}

func (s *vaultStore) ListVaults(ctx context.Context) ([]models.VaultInfo, error) {
	return s.readIndex(ctx, s.repo)
}

func (s *vaultStore) GetVaultInfo(ctx context.Context, vaultID string) (models.VaultInfo, error) {
	vaults, err := s.readIndex(ctx, s.repo)
	if err != nil {
		return models.VaultInfo{}, err
	}
	i := slices.IndexFunc(vaults, func(v models.VaultInfo) bool { return v.ID == vaultID })
	if i < 0 {
		return models.VaultInfo{}, fmt.Errorf("vault %s: %w", vaultID, common.ErrorNotFound)
	}
	return vaults[i], nil
}

func (s *vaultStore) HasVault(ctx context.Context) (bool, error) {
	vaults, err := s.readIndex(ctx, s.repo)
	if err != nil {
		return false, err
	}
	if len(vaults) > 0 {
		return true, nil
	}
	return s.HasLegacy(ctx)
}

func (s *vaultStore) HasLegacy(ctx context.Context) (bool, error) {
	raw, err := s.repo.Get(ctx, LegacyKey)
	if err != nil {
		return false, fmt.Errorf("error reading legacy vault: %w", err)
	}
	return raw != nil, nil
}

func (s *vaultStore) CreateVault(ctx context.Context, name string, accounts []models.Account, passphrase []byte) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", common.ErrEmptyName
	}

	blob, err := s.seal(accounts, passphrase)
	if err != nil {
		return "", err
	}

	info := models.VaultInfo{ID: s.newID(), Name: name, CreatedAt: s.now().UnixMilli()}

	err = s.update(ctx, func(ctx context.Context, repo kv.Repository) error {
		return s.insert(ctx, repo, info, blob)
	})
	if err != nil {
		return "", err
	}

	s.log.Info(ctx, "vault created", "vault_id", info.ID, "accounts", len(accounts))
	return info.ID, nil
}

// insert writes the blob and then appends info to the index.
func (s *vaultStore) insert(ctx context.Context, repo kv.Repository, info models.VaultInfo, blob []byte) error {
	if err := repo.Set(ctx, blobKey(info.ID), blob); err != nil {
		return fmt.Errorf("error writing vault %s: %w", info.ID, err)
	}

	vaults, err := s.readIndex(ctx, repo)
	if err != nil {
		return err
	}
	return writeIndex(ctx, repo, append(vaults, info))
}

func (s *vaultStore) SaveVault(ctx context.Context, vaultID string, accounts []models.Account, passphrase []byte) error {
	existing, err := s.repo.Get(ctx, blobKey(vaultID))
	if err != nil {
		return fmt.Errorf("error reading vault %s: %w", vaultID, err)
	}
	if existing == nil {
		return fmt.Errorf("vault %s: %w", vaultID, common.ErrorNotFound)
	}

	blob, err := s.seal(accounts, passphrase)
	if err != nil {
		return err
	}

	if err := s.repo.Set(ctx, blobKey(vaultID), blob); err != nil {
		return fmt.Errorf("error writing vault %s: %w", vaultID, err)
	}

	s.log.Debug(ctx, "vault saved", "vault_id", vaultID, "accounts", len(accounts))
	return nil
}

func (s *vaultStore) LoadVault(ctx context.Context, vaultID string, passphrase []byte) ([]models.Account, error) {
	raw, err := s.repo.Get(ctx, blobKey(vaultID))
	if err != nil {
		return nil, fmt.Errorf("error reading vault %s: %w", vaultID, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("vault %s: %w", vaultID, common.ErrorNotFound)
	}

	accounts, err := s.open(raw, passphrase)
	if err != nil {
		if errors.Is(err, common.ErrAuthentication) {
			s.log.Warn(ctx, "vault unlock failed", "vault_id", vaultID)
		}
		return nil, err
	}
	return accounts, nil
}

func (s *vaultStore) DeleteVault(ctx context.Context, vaultID string) error {
	err := s.update(ctx, func(ctx context.Context, repo kv.Repository) error {
		if err := repo.Delete(ctx, blobKey(vaultID)); err != nil {
			return fmt.Errorf("error deleting vault %s: %w", vaultID, err)
		}

		vaults, err := s.readIndex(ctx, repo)
		if err != nil {
			return err
		}
		kept := slices.DeleteFunc(vaults, func(v models.VaultInfo) bool { return v.ID == vaultID })
		return writeIndex(ctx, repo, kept)
	})
	if err != nil {
		return err
	}

	s.log.Info(ctx, "vault deleted", "vault_id", vaultID)
	return nil
}

func (s *vaultStore) RenameVault(ctx context.Context, vaultID, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return common.ErrEmptyName
	}

	vaults, err := s.readIndex(ctx, s.repo)
	if err != nil {
		return err
	}

	i := slices.IndexFunc(vaults, func(v models.VaultInfo) bool { return v.ID == vaultID })
	if i < 0 {
		return nil
	}
	vaults[i].Name = name

	if err := writeIndex(ctx, s.repo, vaults); err != nil {
		return err
	}
	s.log.Info(ctx, "vault renamed", "vault_id", vaultID)
	return nil
}

func (s *vaultStore) MigrateLegacy(ctx context.Context, passphrase []byte) (string, error) {
	raw, err := s.repo.Get(ctx, LegacyKey)
	if err != nil {
		return "", fmt.Errorf("error reading legacy vault: %w", err)
	}
	if raw == nil {
		return "", fmt.Errorf("legacy vault: %w", common.ErrorNotFound)
	}

	accounts, err := s.open(raw, passphrase)
	if err != nil {
		return "", err
	}

	blob, err := s.seal(accounts, passphrase)
	if err != nil {
		return "", err
	}

	info := models.VaultInfo{ID: s.newID(), Name: MigratedVaultName, CreatedAt: s.now().UnixMilli()}

	err = s.update(ctx, func(ctx context.Context, repo kv.Repository) error {
		if err := s.insert(ctx, repo, info, blob); err != nil {
			return err
		}
		if err := repo.Delete(ctx, LegacyKey); err != nil {
			return fmt.Errorf("error deleting legacy vault: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	s.log.Info(ctx, "legacy vault migrated", "vault_id", info.ID, "accounts", len(accounts))
	return info.ID, nil
}

// Reconcile repairs a crash between the two writes of create or delete.
// Index entries without a blob are dropped. Blobs without an index entry
// are reported and left in place.
func (s *vaultStore) Reconcile(ctx context.Context) (ReconcileReport, error) {
	var report ReconcileReport

	err := s.update(ctx, func(ctx context.Context, repo kv.Repository) error {
		all, err := repo.List(ctx)
		if err != nil {
			return fmt.Errorf("error listing store: %w", err)
		}

		vaults, err := s.readIndex(ctx, repo)
		if err != nil {
			return err
		}

		indexed := make(map[string]struct{}, len(vaults))
		kept := make([]models.VaultInfo, 0, len(vaults))
		for _, v := range vaults {
			indexed[v.ID] = struct{}{}
			if _, ok := all[blobKey(v.ID)]; ok {
				kept = append(kept, v)
				continue
			}
			report.Dropped = append(report.Dropped, v)
		}

		for key := range all {
			id, ok := strings.CutPrefix(key, BlobPrefix)
			if !ok {
				continue
			}
			if _, ok := indexed[id]; !ok {
				report.Orphans = append(report.Orphans, id)
			}
		}
		sort.Strings(report.Orphans)

		if len(report.Dropped) == 0 {
			return nil
		}
		return writeIndex(ctx, repo, kept)
	})
	if err != nil {
		return ReconcileReport{}, err
	}

	for _, v := range report.Dropped {
		s.log.Warn(ctx, "dropped index entry without vault data", "vault_id", v.ID)
	}
	for _, id := range report.Orphans {
		s.log.Warn(ctx, "vault data without index entry", "vault_id", id)
	}
	return report, nil
}

// Clear removes the index, every vault blob and the legacy record. Other
// keys in the repository are left alone.
func (s *vaultStore) Clear(ctx context.Context) error {
	err := s.update(ctx, func(ctx context.Context, repo kv.Repository) error {
		all, err := repo.List(ctx)
		if err != nil {
			return fmt.Errorf("error listing store: %w", err)
		}
		for key := range all {
			if key != IndexKey && key != LegacyKey && !strings.HasPrefix(key, BlobPrefix) {
				continue
			}
			if err := repo.Delete(ctx, key); err != nil {
				return fmt.Errorf("error deleting %s: %w", key, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.log.Info(ctx, "all vaults cleared")
	return nil
}
