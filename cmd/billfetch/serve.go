package main

import (
	"fmt"

	bfhttp "github.com/fwojciec/billfetch/http"
	"github.com/fwojciec/billfetch/portal"
)

// Run executes the serve command. It blocks until the context is canceled.
func (c *ServeCmd) Run(deps *Dependencies) error {
	addr := c.Addr
	if addr == "" {
		addr = deps.Config.Listen
	}

	srv := bfhttp.NewServer(deps.Service,
		bfhttp.WithLabels(portal.Labels),
		bfhttp.WithImplemented(implementedIDs()...),
		bfhttp.WithDefaultMax(deps.Config.MaxInvoices),
		bfhttp.WithLogger(deps.Logger),
	)

	fmt.Fprintf(deps.Stdout, "Listening on http://%s (providers: %v)\n", addr, deps.Service.IDs())
	return srv.ListenAndServe(deps.Ctx, addr)
}

func implementedIDs() []string {
	profiles := portal.Profiles()
	ids := make([]string, len(profiles))
	for i, p := range profiles {
		ids[i] = p.ID
	}
	return ids
}
