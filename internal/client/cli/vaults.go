package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/toofer/internal/client/services"
	"github.com/dmitrijs2005/toofer/internal/common"
)

func (a *App) Vaults(ctx context.Context, _ []string) error {
	vaults, err := a.store.ListVaults(ctx)
	if err != nil {
		return err
	}
	if len(vaults) == 0 {
		fmt.Fprintln(a.out, "No vaults.")
		return nil
	}

	current := a.session.VaultID()
	for i, v := range vaults {
		mark := " "
		if v.ID == current {
			mark = "*"
		}
		fmt.Fprintf(a.out, "%s %d. %s  created %s  [%s]\n", mark, i+1, v.Name, v.Created().Format("2006-01-02"), v.ID)
	}
	return nil
}

// Create asks for a name and a passphrase twice, then creates and unlocks
// an empty vault.
func (a *App) Create(ctx context.Context, args []string) error {
	name, err := a.argOrPrompt(args, "Enter vault name")
	if err != nil {
		return err
	}

	pass, err := getPassword(a.reader, "Enter passphrase", a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(pass)

	again, err := getPassword(a.reader, "Repeat passphrase", a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(again)

	if _, err := a.session.Create(ctx, name, pass, again); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Vault %q created and unlocked.\n", name)
	return nil
}

func (a *App) Unlock(ctx context.Context, args []string) error {
	v, err := a.resolveVault(ctx, args)
	if err != nil {
		return err
	}

	pass, err := getPassword(a.reader, fmt.Sprintf("Passphrase for %q", v.Name), a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(pass)

	if err := a.session.Unlock(ctx, v.ID, pass); err != nil {
		return err
	}

	accounts, err := a.session.Accounts()
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Unlocked %q (%d accounts).\n", v.Name, len(accounts))
	return nil
}

func (a *App) Lock(_ context.Context, _ []string) error {
	a.session.Lock()
	fmt.Fprintln(a.out, "Locked.")
	return nil
}

// RenameVault renames the unlocked vault, or the one named in args.
func (a *App) RenameVault(ctx context.Context, args []string) error {
	id := a.session.VaultID()
	if id == "" || len(args) > 0 {
		v, err := a.resolveVault(ctx, args)
		if err != nil {
			return err
		}
		id = v.ID
	}

	name, err := getSimpleText(a.reader, "Enter new vault name", a.out)
	if err != nil {
		return err
	}
	if err := a.store.RenameVault(ctx, id, name); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Vault renamed.")
	return nil
}

func (a *App) DeleteVault(ctx context.Context, args []string) error {
	v, err := a.resolveVault(ctx, args)
	if err != nil {
		return err
	}

	ok, err := confirm(a.reader, fmt.Sprintf("Delete vault %q and all its accounts?", v.Name), a.out)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintln(a.out, "Cancelled.")
		return nil
	}

	if a.session.VaultID() == v.ID {
		a.session.Lock()
	}
	if err := a.store.DeleteVault(ctx, v.ID); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Vault %q deleted.\n", v.Name)
	return nil
}

func (a *App) Passwd(ctx context.Context, _ []string) error {
	if !a.session.IsUnlocked() {
		return common.ErrVaultLocked
	}

	pass, err := getPassword(a.reader, "Enter new passphrase", a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(pass)

	again, err := getPassword(a.reader, "Repeat new passphrase", a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(again)

	if err := a.session.ChangePassphrase(ctx, pass, again); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Passphrase changed.")
	return nil
}

// Migrate converts the legacy single vault into a regular one. Nothing to
// migrate is not an error.
func (a *App) Migrate(ctx context.Context, _ []string) error {
	legacy, err := a.store.HasLegacy(ctx)
	if err != nil {
		return err
	}
	if !legacy {
		fmt.Fprintln(a.out, "Nothing to migrate.")
		return nil
	}

	pass, err := getPassword(a.reader, "Passphrase of the old vault", a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(pass)

	id, err := a.store.MigrateLegacy(ctx, pass)
	if errors.Is(err, common.ErrorNotFound) {
		fmt.Fprintln(a.out, "Nothing to migrate.")
		return nil
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Old vault migrated as %q.\n", services.MigratedVaultName)
	if !a.session.IsUnlocked() {
		if err := a.session.Unlock(ctx, id, pass); err != nil {
			return err
		}
	}
	return nil
}

func (a *App) Reconcile(ctx context.Context, _ []string) error {
	return a.reconcile(ctx, false)
}

func (a *App) reconcile(ctx context.Context, quiet bool) error {
	report, err := a.store.Reconcile(ctx)
	if err != nil {
		return err
	}
	if report.Clean() && !quiet {
		fmt.Fprintln(a.out, "Vault list is consistent.")
	}
	for _, v := range report.Dropped {
		fmt.Fprintf(a.out, "Removed vault %q from the list: its data is missing.\n", v.Name)
	}
	for _, id := range report.Orphans {
		fmt.Fprintf(a.out, "Warning: found vault data %s that is not in the vault list.\n", id)
	}
	return nil
}
