package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
	"github.com/username/perfsnap/src/models"
)

type listCmd struct{}

func (*listCmd) Name() string     { return "snapshots" }
func (*listCmd) Synopsis() string { return "list snapshot dates with row counts, newest first" }
func (*listCmd) Usage() string {
	return `snapctl snapshots

  Prints every stored snapshot date with its fund and benchmark row counts
  and whether the date is already a month end.
`
}
func (*listCmd) SetFlags(*flag.FlagSet) {}

func (*listCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withApp(ctx, func(a *app) error {
		list, err := a.snapshots.ListSnapshots(ctx)
		if err != nil {
			return err
		}
		if list == nil {
			list = []models.SnapshotSummary{}
		}
		return printJSON(list)
	})
}

type showCmd struct {
	kind string
}

func (*showCmd) Name() string     { return "show" }
func (*showCmd) Synopsis() string { return "print the rows stored at a snapshot date" }
func (*showCmd) Usage() string {
	return `snapctl show [-kind fund|benchmark] <date>
`
}

func (c *showCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.kind, "kind", "", "Restrict to one table (fund or benchmark).")
}

func (c *showCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "show: exactly one date is required")
		return subcommands.ExitUsageError
	}
	var dest models.Destination
	if c.kind != "" {
		d, ok := models.ParseDestination(c.kind)
		if !ok {
			fmt.Fprintf(os.Stderr, "show: unknown kind %q\n", c.kind)
			return subcommands.ExitUsageError
		}
		dest = d
	}
	return withApp(ctx, func(a *app) error {
		records, err := a.snapshots.GetSnapshot(ctx, f.Arg(0), dest)
		if err != nil {
			return err
		}
		if records == nil {
			records = []models.PerformanceRecord{}
		}
		return printJSON(records)
	})
}

type convertCmd struct{}

func (*convertCmd) Name() string     { return "convert-eom" }
func (*convertCmd) Synopsis() string { return "move snapshot dates onto their month end" }
func (*convertCmd) Usage() string {
	return `snapctl convert-eom <date>...

  Moves every row stored at each date to the last day of its month. Rows
  already at the month end with the same ticker are overwritten.
`
}
func (*convertCmd) SetFlags(*flag.FlagSet) {}

func (*convertCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "convert-eom: at least one date is required")
		return subcommands.ExitUsageError
	}
	return withApp(ctx, func(a *app) error {
		var results []models.ConvertResult
		var failed error
		for _, date := range f.Args() {
			res, err := a.snapshots.ConvertToEOM(ctx, date)
			if res != nil {
				results = append(results, *res)
			}
			if err != nil {
				failed = errors.Join(failed, fmt.Errorf("%s: %w", date, err))
			}
		}
		if err := printJSON(results); err != nil {
			return err
		}
		return failed
	})
}

type reconcileCmd struct{}

func (*reconcileCmd) Name() string     { return "reconcile" }
func (*reconcileCmd) Synopsis() string { return "convert every non month-end snapshot" }
func (*reconcileCmd) Usage() string {
	return `snapctl reconcile
`
}
func (*reconcileCmd) SetFlags(*flag.FlagSet) {}

func (*reconcileCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withApp(ctx, func(a *app) error {
		results, err := a.snapshots.ReconcileAll(ctx)
		if results == nil {
			results = []models.ConvertResult{}
		}
		if perr := printJSON(results); perr != nil {
			return perr
		}
		return err
	})
}

type deleteCmd struct{}

func (*deleteCmd) Name() string     { return "delete" }
func (*deleteCmd) Synopsis() string { return "delete every row stored at the given dates" }
func (*deleteCmd) Usage() string {
	return `snapctl delete <date>...
`
}
func (*deleteCmd) SetFlags(*flag.FlagSet) {}

func (*deleteCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "delete: at least one date is required")
		return subcommands.ExitUsageError
	}
	return withApp(ctx, func(a *app) error {
		deleted := make(map[string]int64, f.NArg())
		for _, date := range f.Args() {
			n, err := a.snapshots.DeleteSnapshot(ctx, date)
			if err != nil {
				return fmt.Errorf("%s: %w", date, err)
			}
			deleted[date] = n
		}
		return printJSON(deleted)
	})
}
