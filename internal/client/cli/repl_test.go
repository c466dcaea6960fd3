package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/dmitrijs2005/toofer/internal/common"
	"github.com/stretchr/testify/assert"
)

type fakeExec struct {
	unlocked bool

	calls []string
	args  [][]string
	fail  map[string]error
}

func (f *fakeExec) record(name string, args []string) error {
	f.calls = append(f.calls, name)
	f.args = append(f.args, args)
	return f.fail[name]
}

func (f *fakeExec) isUnlocked() bool { return f.unlocked }

func (f *fakeExec) Vaults(_ context.Context, a []string) error { return f.record("vaults", a) }
func (f *fakeExec) Create(_ context.Context, a []string) error { return f.record("create", a) }
func (f *fakeExec) Unlock(_ context.Context, a []string) error {
	f.unlocked = true
	return f.record("unlock", a)
}
func (f *fakeExec) Lock(_ context.Context, a []string) error {
	f.unlocked = false
	return f.record("lock", a)
}
func (f *fakeExec) RenameVault(_ context.Context, a []string) error {
	return f.record("renamevault", a)
}
func (f *fakeExec) DeleteVault(_ context.Context, a []string) error {
	return f.record("deletevault", a)
}
func (f *fakeExec) Passwd(_ context.Context, a []string) error    { return f.record("passwd", a) }
func (f *fakeExec) Migrate(_ context.Context, a []string) error   { return f.record("migrate", a) }
func (f *fakeExec) Reconcile(_ context.Context, a []string) error { return f.record("reconcile", a) }
func (f *fakeExec) List(_ context.Context, a []string) error      { return f.record("list", a) }
func (f *fakeExec) Codes(_ context.Context, a []string) error     { return f.record("codes", a) }
func (f *fakeExec) Watch(_ context.Context, a []string) error     { return f.record("watch", a) }
func (f *fakeExec) Add(_ context.Context, a []string) error       { return f.record("add", a) }
func (f *fakeExec) Import(_ context.Context, a []string) error    { return f.record("import", a) }
func (f *fakeExec) Export(_ context.Context, a []string) error    { return f.record("export", a) }
func (f *fakeExec) Verify(_ context.Context, a []string) error    { return f.record("verify", a) }
func (f *fakeExec) QR(_ context.Context, a []string) error        { return f.record("qr", a) }
func (f *fakeExec) Rename(_ context.Context, a []string) error    { return f.record("rename", a) }
func (f *fakeExec) Delete(_ context.Context, a []string) error    { return f.record("delete", a) }

func capturePrintln(t *testing.T) *strings.Builder {
	t.Helper()
	var sb strings.Builder
	orig := printlnFn
	printlnFn = func(a ...any) (int, error) { return fmt.Fprintln(&sb, a...) }
	t.Cleanup(func() { printlnFn = orig })
	return &sb
}

func TestRunREPL_DispatchesCommands(t *testing.T) {
	out := capturePrintln(t)

	input := strings.Join([]string{
		"help",
		"unlock 2",
		"help",
		"l",
		"codes",
		"watch 3",
		"import otpauth://totp/x?secret=AAAA",
		"export 1",
		"qr 1 out.png",
		"verify 1 123 456",
		"rename 1",
		"delete 1",
		"add",
		"",
		"vaults",
		"create Work",
		"renamevault",
		"deletevault 1",
		"passwd",
		"migrate",
		"reconcile",
		"lock",
		"foobar",
		"exit",
		"list",
	}, "\n")

	exec := &fakeExec{}
	runREPL(context.Background(), exec, func() string { return "status" }, bufio.NewReader(strings.NewReader(input)))

	assert.Equal(t, []string{
		"unlock", "list", "codes", "watch", "import", "export", "qr", "verify", "rename", "delete", "add",
		"vaults", "create", "renamevault", "deletevault", "passwd", "migrate", "reconcile", "lock",
	}, exec.calls, "nothing runs after exit")

	assert.Equal(t, []string{"2"}, exec.args[0])
	assert.Equal(t, []string{"3"}, exec.args[3])
	assert.Equal(t, []string{"1", "out.png"}, exec.args[6])
	assert.Equal(t, []string{"1", "123", "456"}, exec.args[7])

	s := out.String()
	assert.Contains(t, s, helpLocked)
	assert.Contains(t, s, helpUnlocked)
	assert.Contains(t, s, "Unknown command: foobar")
	assert.Contains(t, s, "toofer status > ")
	assert.Contains(t, s, "Bye!")
}

func TestRunREPL_PrintsHandlerErrors(t *testing.T) {
	out := capturePrintln(t)

	exec := &fakeExec{fail: map[string]error{
		"unlock": common.ErrAuthentication,
		"import": fmt.Errorf("parse: %w", common.ErrFormat),
		"add":    common.ErrInvalidSecret,
	}}
	runREPL(context.Background(), exec, func() string { return "" }, bufio.NewReader(strings.NewReader("unlock\nimport x\nadd")))

	s := out.String()
	assert.Contains(t, s, "Error: invalid passphrase or corrupted vault")
	assert.Contains(t, s, "Error: invalid otpauth URI")
	assert.Contains(t, s, "Error: invalid secret key format")
	assert.Equal(t, []string{"unlock", "import", "add"}, exec.calls, "last line without newline still runs")
}

func TestRunREPL_EOFEndsLoop(t *testing.T) {
	capturePrintln(t)

	exec := &fakeExec{}
	runREPL(context.Background(), exec, func() string { return "" }, bufio.NewReader(strings.NewReader("")))
	assert.Empty(t, exec.calls)
}
