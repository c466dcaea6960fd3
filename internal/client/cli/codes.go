package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/toofer/internal/otp"
)

const (
	progressWidth      = 10
	defaultWatchRounds = 30

	// verifySkew accepts the previous and next window as well.
	verifySkew = 1
)

// progressBar renders p in (0,1] as filled blocks for the time left.
func progressBar(p float64) string {
	filled := int(p*progressWidth + 0.5)
	filled = min(max(filled, 0), progressWidth)
	return "[" + strings.Repeat("#", filled) + strings.Repeat(".", progressWidth-filled) + "]"
}

// printCodes writes one line per account with its current code.
func (a *App) printCodes() error {
	accounts, err := a.session.Accounts()
	if err != nil {
		return err
	}
	if len(accounts) == 0 {
		fmt.Fprintln(a.out, "No accounts. Use 'add' or 'import'.")
		return nil
	}

	for i, acc := range accounts {
		code, err := a.codes.Code(acc.Secret)
		if err != nil {
			fmt.Fprintf(a.out, "%d. %-32s  %s\n", i+1, accountLabel(acc), describe(err))
			continue
		}
		fmt.Fprintf(a.out, "%d. %-32s  %s  %s %2ds\n",
			i+1, accountLabel(acc), otp.FormatCode(code.Value), progressBar(code.Progress), code.Remaining)
	}
	return nil
}

func (a *App) Codes(_ context.Context, _ []string) error {
	return a.printCodes()
}

// Watch reprints the codes every tick interval, n times (default 30), or
// until ctx is done.
func (a *App) Watch(ctx context.Context, args []string) error {
	rounds := defaultWatchRounds
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n <= 0 {
			return fmt.Errorf("watch: expected a positive number of refreshes, got %q", args[0])
		}
		rounds = n
	}

	if err := a.printCodes(); err != nil {
		return err
	}

	ticker := time.NewTicker(a.tickInterval())
	defer ticker.Stop()

	for i := 1; i < rounds; i++ {
		select {
		case <-ticker.C:
			fmt.Fprintln(a.out)
			if err := a.printCodes(); err != nil {
				return err
			}
		case <-ctx.Done():
			return nil
		}
	}
	return nil
}

// Verify checks a code against an account, e.g. one read off another device.
func (a *App) Verify(_ context.Context, args []string) error {
	var code string
	if len(args) > 1 {
		code = strings.Join(args[1:], "")
		args = args[:1]
	}

	acc, err := a.resolveAccount(args)
	if err != nil {
		return err
	}
	if code == "" {
		if code, err = getSimpleText(a.reader, "Enter code", a.out); err != nil {
			return err
		}
	}

	ok, err := a.codes.Verify(acc.Secret, code, verifySkew)
	if err != nil {
		return err
	}
	if ok {
		fmt.Fprintf(a.out, "Code is valid for %s.\n", accountLabel(acc))
	} else {
		fmt.Fprintf(a.out, "Code is not valid for %s.\n", accountLabel(acc))
	}
	return nil
}
