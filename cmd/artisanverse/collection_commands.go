package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"
	"text/tabwriter"

	"artisanverse/internal/query"
	"artisanverse/internal/record"
	"artisanverse/internal/recordstore"
)

type command struct {
	Usage   string
	Help    string
	MinArgs int
	Handler func(ctx context.Context, s *recordstore.Store, args []string, w io.Writer) error
}

var commands = map[string]command{
	"collections": {
		Usage:   "collections",
		Help:    "list collections and their record counts",
		Handler: handleCollections,
	},
	"show": {
		Usage:   "show <collection> [field=value...]",
		Help:    "list records, optionally filtered by field substring",
		MinArgs: 1,
		Handler: handleShow,
	},
	"get": {
		Usage:   "get <collection> <id>",
		Help:    "print one record as JSON",
		MinArgs: 2,
		Handler: handleGet,
	},
	"delete": {
		Usage:   "delete <collection> <id>",
		Help:    "delete one record",
		MinArgs: 2,
		Handler: handleDelete,
	},
}

func printCommands(w io.Writer) {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	slices.Sort(names)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, name := range names {
		_, _ = fmt.Fprintf(tw, "  %s\t%s\n", commands[name].Usage, commands[name].Help)
	}
	_ = tw.Flush()
}

func runCommand(ctx context.Context, s *recordstore.Store, args []string, w io.Writer) error {
	cmd, ok := commands[args[0]]
	if !ok {
		return fmt.Errorf("unknown command %q", args[0])
	}
	rest := args[1:]
	if len(rest) < cmd.MinArgs {
		return fmt.Errorf("usage: artisanverse %s", cmd.Usage)
	}
	if cmd.MinArgs > 0 && !s.Has(rest[0]) {
		return &recordstore.CollectionNotFoundError{Collection: rest[0]}
	}
	return cmd.Handler(ctx, s, rest, w)
}

func handleCollections(_ context.Context, s *recordstore.Store, _ []string, w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "COLLECTION\tRECORDS")
	for _, name := range s.Collections() {
		_, _ = fmt.Fprintf(tw, "%s\t%d\n", name, s.Count(name, nil))
	}
	return tw.Flush()
}

func handleShow(_ context.Context, s *recordstore.Store, args []string, w io.Writer) error {
	name := args[0]
	filter := query.Filter{}
	for _, arg := range args[1:] {
		k, v, ok := strings.Cut(arg, "=")
		if !ok || k == "" {
			return fmt.Errorf("filter %q: want field=value", arg)
		}
		filter[k] = v
	}

	recs := s.FindAll(name, filter)
	if len(recs) == 0 {
		_, _ = fmt.Fprintf(w, "%s: (empty)\n", name)
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ID\tCREATED\tUPDATED\tSUMMARY")
	for _, rec := range recs {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			rec.ID(), stamp(rec, record.FieldCreatedAt), stamp(rec, record.FieldUpdatedAt), summary(rec))
	}
	_ = tw.Flush()
	_, _ = fmt.Fprintf(w, "%d record(s)\n", len(recs))
	return nil
}

func handleGet(_ context.Context, s *recordstore.Store, args []string, w io.Writer) error {
	rec, ok := s.FindByID(args[0], args[1])
	if !ok {
		return &recordstore.RecordNotFoundError{Collection: args[0], ID: args[1]}
	}
	delete(rec, "password")
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(rec)
}

func handleDelete(ctx context.Context, s *recordstore.Store, args []string, w io.Writer) error {
	rec, err := s.Delete(ctx, args[0], args[1])
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(w, "Deleted %s/%s\n", args[0], rec.ID())
	return nil
}

func stamp(rec record.Record, field string) string {
	if s, ok := rec[field].(string); ok {
		return s
	}
	return "-"
}

// summaryFields are tried in order to describe a record in one cell.
var summaryFields = []string{"title", "name", "email", "orderNumber", "status"}

func summary(rec record.Record) string {
	for _, f := range summaryFields {
		if s, ok := rec[f].(string); ok && s != "" {
			return shorten(s, 48)
		}
	}
	return ""
}

func shorten(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
