package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isUnlocked() bool

	Vaults(ctx context.Context, args []string) error
	Create(ctx context.Context, args []string) error
	Unlock(ctx context.Context, args []string) error
	Lock(ctx context.Context, args []string) error
	RenameVault(ctx context.Context, args []string) error
	DeleteVault(ctx context.Context, args []string) error
	Passwd(ctx context.Context, args []string) error
	Migrate(ctx context.Context, args []string) error
	Reconcile(ctx context.Context, args []string) error

	List(ctx context.Context, args []string) error
	Codes(ctx context.Context, args []string) error
	Watch(ctx context.Context, args []string) error
	Verify(ctx context.Context, args []string) error
	Add(ctx context.Context, args []string) error
	Import(ctx context.Context, args []string) error
	Export(ctx context.Context, args []string) error
	QR(ctx context.Context, args []string) error
	Rename(ctx context.Context, args []string) error
	Delete(ctx context.Context, args []string) error
}

const (
	helpLocked   = "Available commands: vaults, create, unlock, renamevault, deletevault, migrate, reconcile, exit"
	helpUnlocked = "Available commands: (l)ist, (c)odes, watch [n], add, import [uri], export <n>, qr <n> [file.png|--data-uri], " +
		"verify <n> [code], rename <n>, delete <n>, vaults, renamevault, deletevault, passwd, lock, exit"
)

// runREPL starts a simple read-eval-print loop for the toofer CLI.
//
// It reads a line from reader, parses the first token as the
// command and passes the remaining tokens to the handler on 'a'. Handler
// errors are printed and the loop continues. Handlers prompt through the
// same reader, so no input is buffered away from them. The loop exits on EOF
// or when the user types "exit" or "quit".
//
// Prompt & Commands
//
// The prompt shows the current status (from statusFn) and accepts commands:
//
//	Any time:
//	  - help                 show available commands
//	  - vaults               list vaults
//	  - create [name]        create a vault and unlock it
//	  - unlock [n|id]        unlock a vault
//	  - renamevault [n|id]   rename a vault
//	  - deletevault [n|id]   delete a vault and its accounts
//	  - migrate              import the pre-multi-vault vault
//	  - reconcile            repair the vault index
//	  - exit | quit          leave the program
//
//	Unlocked:
//	  - list | l             list accounts
//	  - codes | c            show current codes
//	  - watch [n]            refresh codes n times
//	  - add                  add an account by hand
//	  - import [uri]         add an account from an otpauth:// URI
//	  - export <n|id>        print the otpauth:// URI of an account
//	  - qr <n|id> [file]     show a QR code or write it as PNG
//	  - qr <n|id> --data-uri print the QR code as a data: URI
//	  - verify <n|id> [code] check a code from another device
//	  - rename <n|id>        rename an account
//	  - delete <n|id>        delete an account
//	  - passwd               change the vault passphrase
//	  - lock                 forget the passphrase and accounts
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		printlnFn(fmt.Sprintf("toofer %s > ", statusFn()))
		line, err := reader.ReadString('\n')
		if err != nil && !(errors.Is(err, io.EOF) && line != "") {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		err = nil
		switch cmd {
		case "help":
			if a.isUnlocked() {
				printlnFn(helpUnlocked)
			} else {
				printlnFn(helpLocked)
			}

		case "vaults":
			err = a.Vaults(ctx, args)
		case "create":
			err = a.Create(ctx, args)
		case "unlock":
			err = a.Unlock(ctx, args)
		case "lock":
			err = a.Lock(ctx, args)
		case "renamevault":
			err = a.RenameVault(ctx, args)
		case "deletevault":
			err = a.DeleteVault(ctx, args)
		case "passwd":
			err = a.Passwd(ctx, args)
		case "migrate":
			err = a.Migrate(ctx, args)
		case "reconcile":
			err = a.Reconcile(ctx, args)

		case "l", "list":
			err = a.List(ctx, args)
		case "c", "codes":
			err = a.Codes(ctx, args)
		case "watch":
			err = a.Watch(ctx, args)
		case "add":
			err = a.Add(ctx, args)
		case "import":
			err = a.Import(ctx, args)
		case "export":
			err = a.Export(ctx, args)
		case "verify":
			err = a.Verify(ctx, args)
		case "qr":
			err = a.QR(ctx, args)
		case "rename":
			err = a.Rename(ctx, args)
		case "delete":
			err = a.Delete(ctx, args)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}

		if err != nil {
			printlnFn("Error:", describe(err))
		}
	}
}
