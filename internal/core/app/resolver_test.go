package app

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"nsresolver/internal/core/config"
	"nsresolver/internal/core/errors"
	"nsresolver/internal/core/ports"
	"nsresolver/internal/data/workspace"
	"nsresolver/internal/engine/php"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type answer struct {
	value string
	ok    bool
}

type fakePrompter struct {
	picks   []answer
	texts   []answer
	options [][]string
	asked   []string
}

func (p *fakePrompter) PickOne(_ context.Context, options []string) (string, bool, error) {
	p.options = append(p.options, append([]string(nil), options...))
	if len(p.picks) == 0 {
		return "", false, nil
	}
	a := p.picks[0]
	p.picks = p.picks[1:]
	return a.value, a.ok, nil
}

func (p *fakePrompter) PromptText(_ context.Context, placeholder string) (string, bool, error) {
	p.asked = append(p.asked, placeholder)
	if len(p.texts) == 0 {
		return "", false, nil
	}
	a := p.texts[0]
	p.texts = p.texts[1:]
	return a.value, a.ok, nil
}

type message struct {
	text    string
	isError bool
}

type fakeNotifier struct {
	messages  []message
	statusBar []string
	durations []time.Duration
}

func (n *fakeNotifier) Notify(text string, isError bool) {
	n.messages = append(n.messages, message{text: text, isError: isError})
}

func (n *fakeNotifier) StatusBar(text string, d time.Duration) {
	n.statusBar = append(n.statusBar, text)
	n.durations = append(n.durations, d)
}

type fixture struct {
	root     string
	ws       *workspace.Workspace
	prompter *fakePrompter
	notifier *fakeNotifier
	cfg      *config.Config
	resolver *Resolver
}

func newFixture(t *testing.T, files map[string]string) *fixture {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		writeFile(t, root, rel, content)
	}

	ws, err := workspace.New(root)
	require.NoError(t, err)

	f := &fixture{
		root:     root,
		ws:       ws,
		prompter: &fakePrompter{},
		notifier: &fakeNotifier{},
		cfg:      config.DefaultConfig(),
	}
	f.resolver, err = New(f.cfg, ws, f.prompter, f.notifier)
	require.NoError(t, err)
	return f
}

func writeFile(t *testing.T, root, rel, content string) string {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func (f *fixture) open(t *testing.T, rel, content string) *workspace.Buffer {
	t.Helper()
	path := writeFile(t, f.root, rel, content)
	buf, err := f.ws.Load(path)
	require.NoError(t, err)
	return buf
}

// posOf returns the position of the first occurrence of needle.
func posOf(t *testing.T, buf ports.Buffer, needle string) ports.Position {
	t.Helper()
	for i, line := range buf.Lines() {
		if col := strings.Index(line, needle); col >= 0 {
			return ports.Position{Line: i, Character: col}
		}
	}
	t.Fatalf("%q not found in buffer", needle)
	return ports.Position{}
}

const controller = "<?php\n\nnamespace App\\Http;\n\nclass Controller\n{\n    public function show(User $user) {}\n}\n"

func TestNew_RequiresCollaborators(t *testing.T) {
	cfg := config.DefaultConfig()
	ws, err := workspace.New(t.TempDir())
	require.NoError(t, err)

	_, err = New(nil, ws, &fakePrompter{}, &fakeNotifier{})
	assert.Error(t, err)
	_, err = New(cfg, nil, &fakePrompter{}, &fakeNotifier{})
	assert.Error(t, err)
	_, err = New(cfg, ws, nil, &fakeNotifier{})
	assert.Error(t, err)
	_, err = New(cfg, ws, &fakePrompter{}, nil)
	assert.Error(t, err)
}

func TestImportCommand_SingleCandidate(t *testing.T) {
	f := newFixture(t, map[string]string{
		"src/Models/User.php": "<?php\n\nnamespace App\\Models;\n\nclass User {}\n",
	})
	buf := f.open(t, "src/Http/Controller.php", controller)

	err := f.resolver.ImportCommand(context.Background(), buf, posOf(t, buf, "User"))
	require.NoError(t, err)

	assert.Equal(t,
		"<?php\n\nnamespace App\\Http;\n\nuse App\\Models\\User;\n\nclass Controller\n{\n    public function show(User $user) {}\n}\n",
		buf.Content())
	assert.Empty(t, f.prompter.options, "single candidate skips the picker")
	assert.Equal(t, []message{{text: "Class imported."}}, f.notifier.messages)
}

func TestImportCommand_AppendsToUseBlock(t *testing.T) {
	f := newFixture(t, map[string]string{
		"src/Qux.php": "<?php\nnamespace App;\nclass Qux {}\n",
	})
	buf := f.open(t, "src/Foo.php", "<?php\nuse App\\Baz;\n\nclass Foo extends Qux {}\n")

	require.NoError(t, f.resolver.ImportCommand(context.Background(), buf, posOf(t, buf, "Qux")))

	// Auto-sort by length keeps the existing order for equal lengths.
	assert.Equal(t, "<?php\nuse App\\Baz;\nuse App\\Qux;\n\nclass Foo extends Qux {}\n", buf.Content())
}

func TestImportCommand_PicksAmongCandidates(t *testing.T) {
	f := newFixture(t, map[string]string{
		"src/Models/User.php": "<?php\nnamespace App\\Models;\nclass User {}\n",
		"src/Admin/User.php":  "<?php\nnamespace App\\Admin;\nclass User {}\n",
	})
	f.cfg.Resolver.DeterministicCandidates = true
	f.prompter.picks = []answer{{value: `App\Models\User`, ok: true}}
	buf := f.open(t, "src/Http/Controller.php", controller)

	require.NoError(t, f.resolver.ImportCommand(context.Background(), buf, posOf(t, buf, "User")))

	require.Len(t, f.prompter.options, 1)
	assert.Equal(t, []string{`App\Admin\User`, `App\Models\User`}, f.prompter.options[0])
	assert.Contains(t, buf.Content(), "use App\\Models\\User;\n")
}

func TestImportCommand_CancelledPickIsSilent(t *testing.T) {
	f := newFixture(t, map[string]string{
		"src/Models/User.php": "<?php\nnamespace App\\Models;\nclass User {}\n",
		"src/Admin/User.php":  "<?php\nnamespace App\\Admin;\nclass User {}\n",
	})
	buf := f.open(t, "src/Http/Controller.php", controller)

	err := f.resolver.ImportCommand(context.Background(), buf, posOf(t, buf, "User"))
	require.NoError(t, err)

	assert.Equal(t, controller, buf.Content())
	assert.False(t, buf.Dirty())
	assert.Empty(t, f.notifier.messages)
	assert.Empty(t, f.notifier.statusBar)
}

func TestImportCommand_AlreadyImported(t *testing.T) {
	f := newFixture(t, map[string]string{
		"src/Models/User.php": "<?php\nnamespace App\\Models;\nclass User {}\n",
	})
	content := "<?php\nnamespace App\\Http;\nuse App\\Models\\User;\nclass Controller { public function a(User $u) {} }\n"
	buf := f.open(t, "src/Http/Controller.php", content)

	err := f.resolver.ImportCommand(context.Background(), buf, posOf(t, buf, "User $u"))
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeAlreadyImported))

	assert.Equal(t, content, buf.Content())
	assert.Equal(t, []message{{text: "Class already imported.", isError: true}}, f.notifier.messages)
}

func TestImportCommand_NoSelection(t *testing.T) {
	f := newFixture(t, nil)
	buf := f.open(t, "src/Foo.php", "<?php\n\nclass Foo {}\n")

	err := f.resolver.ImportCommand(context.Background(), buf, ports.Position{Line: 1})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeNoSelection))
	assert.Equal(t, []message{{text: "No class is selected.", isError: true}}, f.notifier.messages)
}

func TestImportCommand_FallsBackToGlobalClass(t *testing.T) {
	f := newFixture(t, nil)
	buf := f.open(t, "src/Foo.php", "<?php\n\nclass Foo extends Exception {}\n")

	require.NoError(t, f.resolver.ImportCommand(context.Background(), buf, posOf(t, buf, "Exception")))
	assert.Equal(t, "<?php\n\nuse Exception;\n\nclass Foo extends Exception {}\n", buf.Content())
}

func TestImportCommand_AliasNegotiation(t *testing.T) {
	f := newFixture(t, map[string]string{
		"src/Models/User.php": "<?php\nnamespace App\\Models;\nclass User {}\n",
	})
	f.cfg.UI.StatusDuration = 5 * time.Second
	f.prompter.texts = []answer{
		{value: "User", ok: true},
		{value: "Member", ok: true},
		{value: "ModelUser", ok: true},
	}
	content := "<?php\nnamespace App\\Http;\nuse Other\\User;\nuse Other\\Person as Member;\n\nclass Controller { public function a(User $u) {} }\n"
	buf := f.open(t, "src/Http/Controller.php", content)

	require.NoError(t, f.resolver.ImportCommand(context.Background(), buf, posOf(t, buf, "User $u")))

	assert.Equal(t, []string{"Enter an alias", "Enter an alias", "Enter an alias"}, f.prompter.asked)
	assert.Equal(t, []string{"This alias is already in use.", "This alias is already in use."}, f.notifier.statusBar)
	assert.Equal(t, []time.Duration{5 * time.Second, 5 * time.Second}, f.notifier.durations)
	assert.Contains(t, buf.Content(), "use App\\Models\\User as ModelUser;\n")
	assert.Equal(t, []message{{text: "Class imported."}}, f.notifier.messages)
}

func TestCheckAlias(t *testing.T) {
	statements := []php.UseStatement{
		{Text: `use App\Models\User;`, Line: 3},
		{Text: `use App\Admin\User as Member;`, Line: 4},
	}

	require.NoError(t, checkAlias(statements, "ModelUser"))

	err := checkAlias(statements, "Member")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeAliasConflict))
	assert.Equal(t, "This alias is already in use.", errors.UserMessage(err))

	var de *errors.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "Member", de.Context[errors.CtxAlias])
}

func TestImportCommand_EmptyAliasAborts(t *testing.T) {
	f := newFixture(t, map[string]string{
		"src/Models/User.php": "<?php\nnamespace App\\Models;\nclass User {}\n",
	})
	f.prompter.texts = []answer{{value: "  ", ok: true}}
	content := "<?php\nuse Other\\User;\n\nclass Controller { public function a(User $u) {} }\n"
	buf := f.open(t, "src/Http/Controller.php", content)

	require.NoError(t, f.resolver.ImportCommand(context.Background(), buf, posOf(t, buf, "User $u")))
	assert.Equal(t, content, buf.Content())
	assert.Empty(t, f.notifier.messages)
}

func TestImportCommand_QualifiedTokenIsShortened(t *testing.T) {
	f := newFixture(t, nil)
	content := "<?php\n\nnamespace App;\n\nclass Foo\n{\n    public function make() { return new \\App\\Models\\User(); }\n}\n"
	buf := f.open(t, "src/Foo.php", content)

	require.NoError(t, f.resolver.ImportCommand(context.Background(), buf, posOf(t, buf, `\App\Models`)))

	assert.Equal(t,
		"<?php\n\nnamespace App;\n\nuse App\\Models\\User;\n\nclass Foo\n{\n    public function make() { return new User(); }\n}\n",
		buf.Content())
}

func TestImportCommand_QualifiedTokenWithAlias(t *testing.T) {
	f := newFixture(t, nil)
	f.prompter.texts = []answer{{value: "ModelUser", ok: true}}
	content := "<?php\nuse Other\\User;\n\n$u = new App\\Models\\User();\n"
	buf := f.open(t, "src/boot.php", content)

	require.NoError(t, f.resolver.ImportCommand(context.Background(), buf, posOf(t, buf, `App\Models`)))

	assert.Equal(t,
		"<?php\nuse Other\\User;\nuse App\\Models\\User as ModelUser;\n\n$u = new ModelUser();\n",
		buf.Content())
}

func TestImportCommand_AutoSortAlphabetical(t *testing.T) {
	f := newFixture(t, map[string]string{
		"src/Models/Alpha.php": "<?php\nnamespace App\\Models;\nclass Alpha {}\n",
	})
	f.cfg.Resolver.SortAlphabetically = true
	buf := f.open(t, "src/Foo.php", "<?php\nuse Zed\\Thing;\n\nclass Foo extends Alpha {}\n")

	require.NoError(t, f.resolver.ImportCommand(context.Background(), buf, posOf(t, buf, "Alpha")))
	assert.Equal(t, "<?php\nuse App\\Models\\Alpha;\nuse Zed\\Thing;\n\nclass Foo extends Alpha {}\n", buf.Content())

	// The import is saved before sorting; the sort itself is left unsaved.
	data, err := os.ReadFile(buf.Path())
	require.NoError(t, err)
	assert.Equal(t, "<?php\nuse Zed\\Thing;\nuse App\\Models\\Alpha;\n\nclass Foo extends Alpha {}\n", string(data))
	assert.True(t, buf.Dirty())
}

func TestImportCommand_AutoSortDisabled(t *testing.T) {
	f := newFixture(t, map[string]string{
		"src/Models/Alpha.php": "<?php\nnamespace App\\Models;\nclass Alpha {}\n",
	})
	disabled := false
	f.cfg.Resolver.AutoSort = &disabled
	f.cfg.Resolver.SortAlphabetically = true
	buf := f.open(t, "src/Foo.php", "<?php\nuse Zed\\Thing;\n\nclass Foo extends Alpha {}\n")

	require.NoError(t, f.resolver.ImportCommand(context.Background(), buf, posOf(t, buf, "Alpha")))
	assert.Equal(t, "<?php\nuse Zed\\Thing;\nuse App\\Models\\Alpha;\n\nclass Foo extends Alpha {}\n", buf.Content())

	data, err := os.ReadFile(buf.Path())
	require.NoError(t, err)
	assert.Equal(t, "<?php\nuse Zed\\Thing;\n\nclass Foo extends Alpha {}\n", string(data))
}

func TestImportCommand_StatusBarMessages(t *testing.T) {
	f := newFixture(t, nil)
	f.cfg.Resolver.ShowMessageOnStatusBar = true
	buf := f.open(t, "src/Foo.php", "<?php\n\nclass Foo extends Exception {}\n")

	require.NoError(t, f.resolver.ImportCommand(context.Background(), buf, posOf(t, buf, "Exception")))
	assert.Empty(t, f.notifier.messages)
	assert.Equal(t, []string{"Class imported."}, f.notifier.statusBar)
	assert.Equal(t, []time.Duration{config.DefaultStatusDuration}, f.notifier.durations)
}

func TestImportCommand_RespectsExclude(t *testing.T) {
	f := newFixture(t, map[string]string{
		"src/Models/User.php":              "<?php\nnamespace App\\Models;\nclass User {}\n",
		"node_modules/pkg/User.php":        "<?php\nnamespace Vendor\\Pkg;\nclass User {}\n",
		"src/node_modules/nested/User.php": "<?php\nnamespace Vendor\\Nested;\nclass User {}\n",
	})
	buf := f.open(t, "src/Http/Controller.php", controller)

	require.NoError(t, f.resolver.ImportCommand(context.Background(), buf, posOf(t, buf, "User")))
	assert.Empty(t, f.prompter.options)
	assert.Contains(t, buf.Content(), "use App\\Models\\User;")
}

func TestExpandCommand(t *testing.T) {
	files := map[string]string{
		"src/Models/User.php": "<?php\nnamespace App\\Models;\nclass User {}\n",
	}

	t.Run("leading separator", func(t *testing.T) {
		f := newFixture(t, files)
		buf := f.open(t, "src/Http/Controller.php", controller)

		require.NoError(t, f.resolver.ExpandCommand(context.Background(), buf, posOf(t, buf, "User")))
		assert.Contains(t, buf.Content(), "public function show(\\App\\Models\\User $user)")
		assert.Empty(t, f.notifier.messages)
	})

	t.Run("without leading separator", func(t *testing.T) {
		f := newFixture(t, files)
		disabled := false
		f.cfg.Resolver.LeadingSeparator = &disabled
		buf := f.open(t, "src/Http/Controller.php", controller)

		require.NoError(t, f.resolver.ExpandCommand(context.Background(), buf, posOf(t, buf, "User")))
		assert.Contains(t, buf.Content(), "public function show(App\\Models\\User $user)")
	})

	t.Run("qualified token skips scanning", func(t *testing.T) {
		f := newFixture(t, nil)
		buf := f.open(t, "src/Foo.php", "<?php\n$x = new Models\\User();\n")

		require.NoError(t, f.resolver.ExpandCommand(context.Background(), buf, posOf(t, buf, "Models")))
		assert.Equal(t, "<?php\n$x = new \\Models\\User();\n", buf.Content())
	})

	t.Run("cancelled pick", func(t *testing.T) {
		f := newFixture(t, map[string]string{
			"src/Models/User.php": "<?php\nnamespace App\\Models;\nclass User {}\n",
			"src/Admin/User.php":  "<?php\nnamespace App\\Admin;\nclass User {}\n",
		})
		buf := f.open(t, "src/Http/Controller.php", controller)

		require.NoError(t, f.resolver.ExpandCommand(context.Background(), buf, posOf(t, buf, "User")))
		assert.Equal(t, controller, buf.Content())
	})
}

func TestSortCommand(t *testing.T) {
	t.Run("alphabetical", func(t *testing.T) {
		f := newFixture(t, nil)
		f.cfg.Resolver.SortAlphabetically = true
		buf := f.open(t, "src/Foo.php", "<?php\nuse B;\nuse A;\n")

		require.NoError(t, f.resolver.SortCommand(context.Background(), buf))
		assert.Equal(t, "<?php\nuse A;\nuse B;\n", buf.Content())
		assert.Equal(t, []message{{text: "Imports sorted."}}, f.notifier.messages)

		require.NoError(t, f.resolver.SortCommand(context.Background(), buf))
		assert.Equal(t, "<?php\nuse A;\nuse B;\n", buf.Content(), "sorting is idempotent")
	})

	t.Run("by length", func(t *testing.T) {
		f := newFixture(t, nil)
		buf := f.open(t, "src/Foo.php", "<?php\nuse App\\Longer\\Name;\nuse App\\Short;\n\nclass Foo {}\n")

		require.NoError(t, f.resolver.SortCommand(context.Background(), buf))
		assert.Equal(t, "<?php\nuse App\\Short;\nuse App\\Longer\\Name;\n\nclass Foo {}\n", buf.Content())
	})

	t.Run("nothing to sort", func(t *testing.T) {
		f := newFixture(t, nil)
		buf := f.open(t, "src/Foo.php", "<?php\nuse A;\n")

		err := f.resolver.SortCommand(context.Background(), buf)
		require.Error(t, err)
		assert.True(t, errors.IsCode(err, errors.CodeNothingToSort))
		assert.Equal(t, []message{{text: "Nothing to sort.", isError: true}}, f.notifier.messages)
		assert.False(t, buf.Dirty())
	})
}

func TestSortFile(t *testing.T) {
	f := newFixture(t, nil)
	f.cfg.Resolver.SortAlphabetically = true
	path := writeFile(t, f.root, "src/Foo.php", "<?php\nuse B;\nuse A;\n")
	single := writeFile(t, f.root, "src/Bar.php", "<?php\nuse A;\n")

	changed, err := f.resolver.SortFile(context.Background(), path)
	require.NoError(t, err)
	assert.True(t, changed)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "<?php\nuse A;\nuse B;\n", string(data))

	changed, err = f.resolver.SortFile(context.Background(), path)
	require.NoError(t, err)
	assert.False(t, changed)

	changed, err = f.resolver.SortFile(context.Background(), single)
	require.NoError(t, err)
	assert.False(t, changed)

	_, err = f.resolver.SortFile(context.Background(), filepath.Join(f.root, "missing.php"))
	assert.Error(t, err)
}

func TestSetConfig(t *testing.T) {
	f := newFixture(t, nil)
	next := config.DefaultConfig()
	next.Resolver.SortAlphabetically = true

	f.resolver.SetConfig(nil)
	assert.Same(t, f.cfg, f.resolver.Config())
	f.resolver.SetConfig(next)
	assert.Same(t, next, f.resolver.Config())
}
