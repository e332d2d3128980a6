package main

import (
	"cmp"
	"fmt"
	"slices"
	"time"

	"github.com/fwojciec/billfetch"
	"github.com/jedib0t/go-pretty/v6/table"
)

// Run executes the history command.
func (c *HistoryCmd) Run(deps *Dependencies) error {
	ids := c.Providers
	if len(ids) == 0 {
		ids = implementedIDs()
	}

	var entries []*billfetch.RegistryEntry
	for _, id := range ids {
		r, err := deps.Registries(deps.Ctx, id)
		if err != nil {
			fmt.Fprintf(deps.Stderr, "error: %s\n", billfetch.ErrorMessage(err))
			return err
		}
		if r == nil {
			continue
		}
		entries = append(entries, r.Entries()...)
	}

	if len(entries) == 0 {
		fmt.Fprintln(deps.Stdout, "No invoices downloaded yet. Use 'billfetch download' to fetch some.")
		return nil
	}

	slices.SortFunc(entries, func(a, b *billfetch.RegistryEntry) int {
		return cmp.Or(
			cmp.Compare(a.ProviderID, b.ProviderID),
			b.CreatedAt.Compare(a.CreatedAt),
		)
	})

	t := newTable(deps.Stdout)
	t.AppendHeader(table.Row{"Provider", "Month", "File", "Downloaded"})
	for _, e := range entries {
		month := "-"
		if e.Date != nil {
			month = e.Date.String()
		}
		t.AppendRow(table.Row{e.ProviderID, month, e.Filename, e.CreatedAt.Local().Format(time.DateTime)})
	}
	t.AppendFooter(table.Row{"", "", fmt.Sprintf("%d invoice(s)", len(entries)), ""})
	t.Render()
	return nil
}
