package services

import (
	"bytes"
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/dmitrijs2005/toofer/internal/client/models"
	"github.com/dmitrijs2005/toofer/internal/common"
	"github.com/dmitrijs2005/toofer/internal/logging"
	"github.com/dmitrijs2005/toofer/internal/otp"
	"github.com/dmitrijs2005/toofer/internal/otpauth"
	"github.com/google/uuid"
)

// Session is the unlocked state of one vault: its id, the passphrase it was
// opened with, and the decrypted accounts. Every mutation is persisted
// before it becomes visible; a failed save leaves the session unchanged.
type Session struct {
	mu    sync.Mutex
	store VaultStore
	log   logging.Logger

	vaultID    string
	passphrase []byte
	accounts   []models.Account
	unlocked   bool
}

func NewSession(store VaultStore, log logging.Logger) *Session {
	return &Session{store: store, log: log}
}

// Unlock decrypts vaultID and makes it the current vault. Any previously
// unlocked vault is locked first, even if unlocking fails.
func (s *Session) Unlock(ctx context.Context, vaultID string, passphrase []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.reset()

	if len(passphrase) == 0 {
		return common.ErrEmptyPassphrase
	}

	log := s.log.With("vault_id", vaultID)
	accounts, err := s.store.LoadVault(ctx, vaultID, passphrase)
	if err != nil {
		log.Debug(ctx, "unlock failed", "error", err)
		return err
	}

	s.open(vaultID, passphrase, accounts)
	log.Info(ctx, "vault unlocked", "accounts", len(accounts))
	return nil
}

// Create makes a new empty vault and unlocks it.
func (s *Session) Create(ctx context.Context, name string, passphrase, confirm []byte) (string, error) {
	if len(passphrase) == 0 {
		return "", common.ErrEmptyPassphrase
	}
	if !bytes.Equal(passphrase, confirm) {
		return "", common.ErrPassphraseMismatch
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.store.CreateVault(ctx, name, []models.Account{}, passphrase)
	if err != nil {
		return "", err
	}

	s.reset()
	s.open(id, passphrase, []models.Account{})
	return id, nil
}

// Lock forgets everything the session holds.
func (s *Session) Lock() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset()
}

func (s *Session) open(vaultID string, passphrase []byte, accounts []models.Account) {
	s.vaultID = vaultID
	s.passphrase = append([]byte(nil), passphrase...)
	s.accounts = models.CloneAccounts(accounts)
	s.unlocked = true
}

func (s *Session) reset() {
	common.WipeByteArray(s.passphrase)
	s.passphrase = nil
	s.accounts = nil
	s.vaultID = ""
	s.unlocked = false
}

func (s *Session) IsUnlocked() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unlocked
}

// VaultID returns the id of the unlocked vault, or "" when locked.
func (s *Session) VaultID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.vaultID
}

func (s *Session) Accounts() ([]models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.unlocked {
		return nil, common.ErrVaultLocked
	}
	return models.CloneAccounts(s.accounts), nil
}

func (s *Session) AccountByID(id string) (models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.unlocked {
		return models.Account{}, common.ErrVaultLocked
	}
	i := s.indexOf(id)
	if i < 0 {
		return models.Account{}, fmt.Errorf("account %s: %w", id, common.ErrorNotFound)
	}
	return s.accounts[i], nil
}

func (s *Session) indexOf(id string) int {
	return slices.IndexFunc(s.accounts, func(a models.Account) bool { return a.ID == id })
}

// commit persists next and adopts it on success.
func (s *Session) commit(ctx context.Context, next []models.Account) error {
	if err := s.store.SaveVault(ctx, s.vaultID, next, s.passphrase); err != nil {
		return err
	}
	s.accounts = next
	return nil
}

// AddAccount validates a, assigns an id when missing and appends it.
// The issuer defaults to otpauth.DefaultIssuer.
func (s *Session) AddAccount(ctx context.Context, a models.Account) (models.Account, error) {
	a.Name = strings.TrimSpace(a.Name)
	a.Issuer = strings.TrimSpace(a.Issuer)
	a.Secret = otp.NormalizeSecret(a.Secret)

	if a.Name == "" {
		return models.Account{}, common.ErrEmptyName
	}
	if err := otp.ValidateSecret(a.Secret); err != nil {
		return models.Account{}, err
	}
	if a.Issuer == "" {
		a.Issuer = otpauth.DefaultIssuer
	}
	if a.ID == "" {
		a.ID = uuid.NewString()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.unlocked {
		return models.Account{}, common.ErrVaultLocked
	}

	next := append(models.CloneAccounts(s.accounts), a)
	if err := s.commit(ctx, next); err != nil {
		return models.Account{}, err
	}
	return a, nil
}

// UpdateAccount changes the display fields of an account. An empty issuer
// keeps the current one.
func (s *Session) UpdateAccount(ctx context.Context, id, name, issuer string) error {
	name = strings.TrimSpace(name)
	issuer = strings.TrimSpace(issuer)
	if name == "" {
		return common.ErrEmptyName
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.unlocked {
		return common.ErrVaultLocked
	}

	i := s.indexOf(id)
	if i < 0 {
		return fmt.Errorf("account %s: %w", id, common.ErrorNotFound)
	}

	next := models.CloneAccounts(s.accounts)
	next[i].Name = name
	if issuer != "" {
		next[i].Issuer = issuer
	}
	return s.commit(ctx, next)
}

func (s *Session) DeleteAccount(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.unlocked {
		return common.ErrVaultLocked
	}

	if s.indexOf(id) < 0 {
		return fmt.Errorf("account %s: %w", id, common.ErrorNotFound)
	}

	next := slices.DeleteFunc(models.CloneAccounts(s.accounts), func(a models.Account) bool { return a.ID == id })
	return s.commit(ctx, next)
}

// Save re-encrypts the current account list.
func (s *Session) Save(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.unlocked {
		return common.ErrVaultLocked
	}
	return s.commit(ctx, models.CloneAccounts(s.accounts))
}

// ChangePassphrase re-encrypts the vault under a new passphrase.
func (s *Session) ChangePassphrase(ctx context.Context, passphrase, confirm []byte) error {
	if len(passphrase) == 0 {
		return common.ErrEmptyPassphrase
	}
	if !bytes.Equal(passphrase, confirm) {
		return common.ErrPassphraseMismatch
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.unlocked {
		return common.ErrVaultLocked
	}

	if err := s.store.SaveVault(ctx, s.vaultID, s.accounts, passphrase); err != nil {
		return err
	}

	common.WipeByteArray(s.passphrase)
	s.passphrase = append([]byte(nil), passphrase...)
	s.log.Info(ctx, "vault passphrase changed", "vault_id", s.vaultID)
	return nil
}
