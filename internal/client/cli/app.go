package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/toofer/internal/client/config"
	"github.com/dmitrijs2005/toofer/internal/client/models"
	"github.com/dmitrijs2005/toofer/internal/client/services"
	"github.com/dmitrijs2005/toofer/internal/client/storage"
	"github.com/dmitrijs2005/toofer/internal/common"
	"github.com/dmitrijs2005/toofer/internal/cryptox"
	"github.com/dmitrijs2005/toofer/internal/filex"
	"github.com/dmitrijs2005/toofer/internal/logging"
	"github.com/dmitrijs2005/toofer/internal/otp"
)

// getSimpleText, getPassword and confirm are indirections used to
// facilitate testing.
var (
	getSimpleText = GetSimpleText
	getPassword   = GetPassword
	confirm       = Confirm
)

type App struct {
	config  *config.Config
	store   services.VaultStore
	session *services.Session
	codes   *otp.Generator
	log     logging.Logger
	reader  *bufio.Reader
	out     io.Writer
	closer  io.Closer
}

// NewApp prepares the data directory, opens the vault database and wires
// the services.
func NewApp(ctx context.Context, c *config.Config, log logging.Logger) (*App, error) {
	dir, err := filex.EnsureDir(c.DataDir)
	if err != nil {
		return nil, fmt.Errorf("error preparing data dir: %w", err)
	}
	c.DataDir = dir

	repo, db, err := storage.InitRepository(ctx, c.DSN())
	if err != nil {
		return nil, fmt.Errorf("error initializing database: %w", err)
	}
	log.Debug(ctx, "database opened", "dsn", c.DSN())

	store := services.NewVaultStore(repo, cryptox.New(), log)
	gen := otp.NewGenerator(otp.SystemClock{}, c.TimeStep, c.Digits)

	a := newApp(c, store, gen, log, os.Stdin, os.Stdout)
	a.closer = db
	return a, nil
}

func newApp(c *config.Config, store services.VaultStore, gen *otp.Generator, log logging.Logger, in io.Reader, out io.Writer) *App {
	return &App{
		config:  c,
		store:   store,
		session: services.NewSession(store, log),
		codes:   gen,
		log:     log,
		reader:  bufio.NewReader(in),
		out:     out,
	}
}

// Run performs startup checks and then serves the REPL until exit or EOF.
func (a *App) Run(ctx context.Context) error {
	defer func() {
		a.session.Lock()
		if a.closer != nil {
			_ = a.closer.Close()
		}
	}()

	fmt.Fprintln(a.out, "Welcome to toofer (type 'help' for commands)")
	a.startup(ctx)

	runREPL(ctx, a, a.getStatus, a.reader)
	return nil
}

// startup repairs the index, migrates a legacy vault and offers to unlock.
// Failures are reported and never stop the REPL from starting.
func (a *App) startup(ctx context.Context) {
	if err := a.reconcile(ctx, true); err != nil {
		a.printErr(err)
	}

	legacy, err := a.store.HasLegacy(ctx)
	if err != nil {
		a.printErr(err)
	} else if legacy {
		fmt.Fprintln(a.out, "Found a vault from an older version.")
		if err := a.Migrate(ctx, nil); err != nil {
			a.printErr(err)
			fmt.Fprintln(a.out, "Run 'migrate' to try again.")
		}
	}

	vaults, err := a.store.ListVaults(ctx)
	if err != nil {
		a.printErr(err)
		return
	}
	if len(vaults) == 0 {
		fmt.Fprintln(a.out, "No vaults yet. Run 'create' to make one.")
		return
	}
	if a.session.IsUnlocked() {
		return
	}
	if err := a.Unlock(ctx, nil); err != nil {
		a.printErr(err)
	}
}

func (a *App) isUnlocked() bool {
	return a.session.IsUnlocked()
}

func (a *App) getStatus() string {
	id := a.session.VaultID()
	if id == "" {
		return "(locked)"
	}
	info, err := a.store.GetVaultInfo(context.Background(), id)
	if err != nil {
		return "(unlocked)"
	}
	return fmt.Sprintf("(%s)", info.Name)
}

func (a *App) printErr(err error) {
	fmt.Fprintln(a.out, "Error:", describe(err))
}

// describe turns service errors into messages for the user. Wrong
// passphrases and malformed input stay distinguishable; ciphertext details
// are never shown.
func describe(err error) string {
	switch {
	case errors.Is(err, common.ErrAuthentication):
		return "invalid passphrase or corrupted vault"
	case errors.Is(err, common.ErrInvalidSecret):
		return "invalid secret key format"
	case errors.Is(err, common.ErrFormat):
		return "invalid otpauth URI"
	case errors.Is(err, common.ErrPassphraseMismatch):
		return "passphrases do not match"
	case errors.Is(err, common.ErrEmptyPassphrase):
		return "passphrase must not be empty"
	case errors.Is(err, common.ErrEmptyName):
		return "name must not be empty"
	case errors.Is(err, common.ErrVaultLocked):
		return "vault is locked, run 'unlock' first"
	case errors.Is(err, common.ErrorNotFound):
		return "not found"
	case errors.Is(err, common.ErrPrecondition):
		return "cryptography provider unavailable"
	default:
		return err.Error()
	}
}

// pick resolves ref as a 1-based position or an id.
func pick[T any](items []T, ref string, id func(T) string) (T, error) {
	var zero T
	if n, err := strconv.Atoi(ref); err == nil {
		if n >= 1 && n <= len(items) {
			return items[n-1], nil
		}
		return zero, fmt.Errorf("#%d: %w", n, common.ErrorNotFound)
	}
	for _, it := range items {
		if id(it) == ref {
			return it, nil
		}
	}
	return zero, fmt.Errorf("%s: %w", ref, common.ErrorNotFound)
}

// argOrPrompt returns the joined args or, when there are none, asks.
func (a *App) argOrPrompt(args []string, prompt string) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	return getSimpleText(a.reader, prompt, a.out)
}

func (a *App) resolveVault(ctx context.Context, args []string) (models.VaultInfo, error) {
	vaults, err := a.store.ListVaults(ctx)
	if err != nil {
		return models.VaultInfo{}, err
	}
	if len(vaults) == 0 {
		return models.VaultInfo{}, fmt.Errorf("no vaults: %w", common.ErrorNotFound)
	}
	if len(args) == 0 && len(vaults) == 1 {
		return vaults[0], nil
	}

	ref, err := a.argOrPrompt(args, "Enter vault number or id")
	if err != nil {
		return models.VaultInfo{}, err
	}
	return pick(vaults, ref, func(v models.VaultInfo) string { return v.ID })
}

func (a *App) resolveAccount(args []string) (models.Account, error) {
	accounts, err := a.session.Accounts()
	if err != nil {
		return models.Account{}, err
	}

	ref, err := a.argOrPrompt(args, "Enter account number or id")
	if err != nil {
		return models.Account{}, err
	}
	return pick(accounts, ref, func(acc models.Account) string { return acc.ID })
}

func (a *App) tickInterval() time.Duration {
	if a.config == nil || a.config.TickInterval <= 0 {
		return time.Second
	}
	return a.config.TickInterval
}

func (a *App) qrSize() int {
	if a.config == nil {
		return 0
	}
	return a.config.QRSize
}
