package main

import (
	"slices"

	"github.com/fwojciec/billfetch/portal"
	"github.com/jedib0t/go-pretty/v6/table"
)

// Run executes the providers command.
func (c *ProvidersCmd) Run(deps *Dependencies) error {
	ids := make([]string, 0, len(portal.Labels))
	for id := range portal.Labels {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	implemented := implementedIDs()

	t := newTable(deps.Stdout)
	t.AppendHeader(table.Row{"ID", "Name", "Implemented", "Configured"})
	for _, id := range ids {
		t.AppendRow(table.Row{
			id,
			portal.Labels[id],
			yesNo(slices.Contains(implemented, id)),
			yesNo(deps.Config.Providers[id].Configured()),
		})
	}
	t.Render()
	return nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
