package cli

import (
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"
)

const versionString = "1.0.0"

const (
	commandImport = "import"
	commandExpand = "expand"
	commandSort   = "sort"
	commandWatch  = "watch"
)

type cliOptions struct {
	command    string
	configPath string
	position   string
	word       string
	pick       string
	aliases    []string
	root       string
	dryRun     bool
	verbose    bool
	version    bool
	args       []string
}

func parseOptions(args []string, output io.Writer) (cliOptions, error) {
	var opts cliOptions
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		opts.command = args[0]
		args = args[1:]
	}

	fs := flag.NewFlagSet("nsresolver", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.Usage = func() {
		fmt.Fprintln(output, "usage: nsresolver <import|expand|sort|watch> [flags] <file.php | root>")
		fs.PrintDefaults()
	}

	fs.StringVar(&opts.configPath, "config", "", "Path to config file (default: ./.nsresolver.toml or ./data/config/nsresolver.toml)")
	fs.StringVar(&opts.position, "pos", "", "Cursor position as line:column, both 1-based")
	fs.StringVar(&opts.word, "word", "", "Place the cursor on the first occurrence of this text instead of --pos")
	fs.StringVar(&opts.pick, "pick", "", "Candidate to choose when several classes match (verbatim or 1-based index)")
	fs.Func("alias", "Alias to offer when the class name is taken (repeatable, tried in order)", func(v string) error {
		opts.aliases = append(opts.aliases, v)
		return nil
	})
	fs.StringVar(&opts.root, "root", "", "Workspace root searched for candidate classes (overrides workspace.root)")
	fs.BoolVar(&opts.dryRun, "dry-run", false, "Print the edited file to stdout instead of saving it")
	fs.BoolVar(&opts.verbose, "verbose", false, "Enable verbose logging")
	fs.BoolVar(&opts.version, "version", false, "Print version and exit")

	if err := fs.Parse(args); err != nil {
		return cliOptions{}, err
	}

	opts.args = fs.Args()
	return opts, nil
}

func validateOptions(opts cliOptions) error {
	switch opts.command {
	case commandImport, commandExpand:
		if len(opts.args) != 1 {
			return fmt.Errorf("%s requires exactly one file argument", opts.command)
		}
		if opts.position == "" && opts.word == "" {
			return fmt.Errorf("%s requires --pos or --word", opts.command)
		}
		if opts.position != "" && opts.word != "" {
			return fmt.Errorf("--pos and --word cannot be combined")
		}
	case commandSort:
		if len(opts.args) != 1 {
			return fmt.Errorf("sort requires exactly one file argument")
		}
	case commandWatch:
		if len(opts.args) > 1 {
			return fmt.Errorf("watch accepts at most one root argument")
		}
		if opts.dryRun {
			return fmt.Errorf("--dry-run cannot be used with watch")
		}
	case "":
		return fmt.Errorf("missing command; expected one of import, expand, sort, watch")
	default:
		return fmt.Errorf("unknown command %q; expected one of import, expand, sort, watch", opts.command)
	}
	return nil
}

// parsePosition converts a 1-based "line:column" pair into 0-based values.
func parsePosition(value string) (line, column int, err error) {
	lineText, colText, ok := strings.Cut(strings.TrimSpace(value), ":")
	if !ok {
		return 0, 0, fmt.Errorf("invalid position %q: expected line:column", value)
	}
	line, err = strconv.Atoi(lineText)
	if err != nil || line < 1 {
		return 0, 0, fmt.Errorf("invalid position %q: line must be a positive number", value)
	}
	column, err = strconv.Atoi(colText)
	if err != nil || column < 1 {
		return 0, 0, fmt.Errorf("invalid position %q: column must be a positive number", value)
	}
	return line - 1, column - 1, nil
}
