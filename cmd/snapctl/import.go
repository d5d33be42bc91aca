package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/google/subcommands"
	"github.com/username/perfsnap/src/models"
	"github.com/username/perfsnap/src/security/validation"
)

type importCmd struct {
	format string
}

func (*importCmd) Name() string     { return "import" }
func (*importCmd) Synopsis() string { return "import performance rows from CSV or JSON files" }
func (*importCmd) Usage() string {
	return `snapctl import [-format csv|json] <file>...

  Imports every file in order and prints one outcome per file. Use "-" to
  read from stdin. The format defaults to the file extension.
`
}

func (c *importCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.format, "format", "", "Input format (csv or json). Guessed from the extension when empty.")
}

type fileOutcome struct {
	File string `json:"file"`
	*models.ImportOutcome
	Error string `json:"error,omitempty"`
}

func (c *importCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "import: at least one file is required")
		return subcommands.ExitUsageError
	}
	return withApp(ctx, func(a *app) error {
		var outcomes []fileOutcome
		var failed error
		for _, name := range f.Args() {
			out, err := c.importOne(ctx, a, name)
			res := fileOutcome{File: name, ImportOutcome: out}
			if err != nil {
				res.Error = err.Error()
				failed = errors.Join(failed, fmt.Errorf("%s: %w", name, err))
			}
			outcomes = append(outcomes, res)
		}
		if err := printJSON(outcomes); err != nil {
			return err
		}
		return failed
	})
}

func (c *importCmd) importOne(ctx context.Context, a *app, name string) (*models.ImportOutcome, error) {
	var r io.Reader = os.Stdin
	if name != "-" {
		file, err := os.Open(name)
		if err != nil {
			return nil, err
		}
		defer file.Close()
		r = file
	}
	format, err := validation.DetectFormat(c.format, "", name)
	if err != nil {
		return nil, err
	}
	return a.imports.ImportFile(ctx, r, format)
}
