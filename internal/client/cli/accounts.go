package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/dmitrijs2005/toofer/internal/client/models"
	"github.com/dmitrijs2005/toofer/internal/common"
	"github.com/dmitrijs2005/toofer/internal/otpauth"
)

func accountLabel(acc models.Account) string {
	return fmt.Sprintf("%s (%s)", acc.Issuer, acc.Name)
}

func (a *App) List(_ context.Context, _ []string) error {
	accounts, err := a.session.Accounts()
	if err != nil {
		return err
	}
	if len(accounts) == 0 {
		fmt.Fprintln(a.out, "No accounts. Use 'add' or 'import'.")
		return nil
	}
	for i, acc := range accounts {
		fmt.Fprintf(a.out, "%d. %s  [%s]\n", i+1, accountLabel(acc), acc.ID)
	}
	return nil
}

// Add asks for the account fields one by one.
func (a *App) Add(ctx context.Context, _ []string) error {
	if !a.session.IsUnlocked() {
		return common.ErrVaultLocked
	}

	name, err := getSimpleText(a.reader, "Account name (e.g. user@example.com)", a.out)
	if err != nil {
		return err
	}
	issuer, err := getSimpleText(a.reader, "Issuer (optional)", a.out)
	if err != nil {
		return err
	}
	secret, err := getSimpleText(a.reader, "Secret key (base32)", a.out)
	if err != nil {
		return err
	}

	acc, err := a.session.AddAccount(ctx, models.Account{Name: name, Issuer: issuer, Secret: secret})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Added %s.\n", accountLabel(acc))
	return nil
}

// Import adds the account described by an otpauth:// URI.
func (a *App) Import(ctx context.Context, args []string) error {
	if !a.session.IsUnlocked() {
		return common.ErrVaultLocked
	}

	uri, err := a.argOrPrompt(args, "Paste otpauth:// URI")
	if err != nil {
		return err
	}

	parsed, err := otpauth.ImportURI(uri)
	if err != nil {
		return err
	}

	acc, err := a.session.AddAccount(ctx, parsed)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Imported %s.\n", accountLabel(acc))
	return nil
}

func (a *App) Export(_ context.Context, args []string) error {
	acc, err := a.resolveAccount(args)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, otpauth.Serialize(acc))
	return nil
}

// QR prints the account QR code in the terminal. A file name after the
// account reference writes a PNG instead, and --data-uri prints the PNG as a
// data: URI for pasting into a browser.
func (a *App) QR(_ context.Context, args []string) error {
	var file string
	dataURI := false
	var refs []string
	for _, arg := range args {
		switch {
		case arg == "--data-uri":
			dataURI = true
		case len(refs) == 0:
			refs = append(refs, arg)
		default:
			file = arg
		}
	}

	acc, err := a.resolveAccount(refs)
	if err != nil {
		return err
	}

	switch {
	case dataURI:
		uri, err := otpauth.QRCodeDataURI(acc, a.qrSize())
		if err != nil {
			return err
		}
		fmt.Fprintln(a.out, uri)
		return nil

	case file == "":
		art, err := otpauth.QRCodeTerminal(acc)
		if err != nil {
			return err
		}
		fmt.Fprint(a.out, art)
		return nil
	}

	png, err := otpauth.QRCode(acc, a.qrSize())
	if err != nil {
		return err
	}
	if err := os.WriteFile(file, png, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", file, err)
	}
	fmt.Fprintf(a.out, "QR code written to %s.\n", file)
	return nil
}

func (a *App) Rename(ctx context.Context, args []string) error {
	acc, err := a.resolveAccount(args)
	if err != nil {
		return err
	}

	name, err := getSimpleText(a.reader, fmt.Sprintf("New name [%s]", acc.Name), a.out)
	if err != nil {
		return err
	}
	if name == "" {
		name = acc.Name
	}
	issuer, err := getSimpleText(a.reader, fmt.Sprintf("New issuer [%s]", acc.Issuer), a.out)
	if err != nil {
		return err
	}

	if err := a.session.UpdateAccount(ctx, acc.ID, name, issuer); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Account updated.")
	return nil
}

func (a *App) Delete(ctx context.Context, args []string) error {
	acc, err := a.resolveAccount(args)
	if err != nil {
		return err
	}

	ok, err := confirm(a.reader, fmt.Sprintf("Delete %s?", accountLabel(acc)), a.out)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintln(a.out, "Cancelled.")
		return nil
	}

	if err := a.session.DeleteAccount(ctx, acc.ID); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Deleted %s.\n", accountLabel(acc))
	return nil
}
