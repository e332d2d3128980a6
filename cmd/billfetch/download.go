package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/fwojciec/billfetch"
)

// maxCodeAttempts bounds the second factor prompts per provider.
const maxCodeAttempts = 3

// Run executes the download command.
func (c *DownloadCmd) Run(deps *Dependencies) error {
	ids := c.Providers
	if len(ids) == 0 {
		ids = deps.Service.IDs()
	}
	if len(ids) == 0 {
		fmt.Fprintln(deps.Stderr, "Hint: add credentials under \"providers\" in billfetch.json5 or set BILLFETCH_FREEBOX_LOGIN and BILLFETCH_FREEBOX_PASSWORD")
		return fmt.Errorf("no provider configured")
	}

	reqs := make([]*billfetch.RunRequest, 0, len(ids))
	for _, id := range ids {
		req, err := c.request(id, deps.Config.MaxInvoices)
		if err != nil {
			fmt.Fprintf(deps.Stderr, "error: %s\n", billfetch.ErrorMessage(err))
			return err
		}
		reqs = append(reqs, req)
	}

	p := &progressPrinter{w: deps.Stdout}
	outcomes := deps.Service.RunAll(deps.Ctx, reqs, p.print)

	var prompt *bufio.Reader
	if deps.Stdin != nil {
		prompt = bufio.NewReader(deps.Stdin)
	}

	var failed []string
	for i, o := range outcomes {
		for attempt := 0; attempt < maxCodeAttempts && needsCode(o.Err) && prompt != nil; attempt++ {
			code := readCode(deps.Stdout, prompt, o.ProviderID, billfetch.ErrorCode(o.Err))
			if code == "" {
				break
			}
			req := *reqs[i]
			req.SecondFactorCode = code
			o.Result, o.Err = deps.Service.Run(deps.Ctx, &req, func(e billfetch.Event) { p.print(o.ProviderID, e) })
		}
		if o.Err != nil {
			failed = append(failed, o.ProviderID)
			fmt.Fprintf(deps.Stdout, "%s %s: %s\n", color.New(color.FgRed).Sprint("✗"), o.ProviderID, billfetch.ErrorMessage(o.Err))
			if needsCode(o.Err) {
				fmt.Fprintf(deps.Stdout, "  run again with --otp CODE\n")
			}
			continue
		}
		fmt.Fprintf(deps.Stdout, "%s %s: %d facture(s) téléchargée(s)\n", color.New(color.FgGreen).Sprint("✓"), o.ProviderID, o.Result.Count)
		for _, f := range o.Result.Files {
			fmt.Fprintf(deps.Stdout, "    %s\n", f)
		}
	}

	if len(failed) > 0 {
		return fmt.Errorf("download failed for %s", strings.Join(failed, ", "))
	}
	return nil
}

// request builds the run request of provider id from the flags.
func (c *DownloadCmd) request(id string, defaultMax int) (*billfetch.RunRequest, error) {
	req := &billfetch.RunRequest{
		ProviderID:       id,
		Max:              c.Max,
		Months:           c.Months,
		ForceRedownload:  c.Force,
		SecondFactorCode: c.Code,
	}
	if req.Max == 0 {
		req.Max = defaultMax
	}
	if c.Year != 0 {
		req.Year = &c.Year
	}
	if c.Month != 0 {
		req.Month = &c.Month
	}
	var err error
	if req.Start, err = parseDay(c.From); err != nil {
		return nil, err
	}
	if req.End, err = parseDay(c.To); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return req, nil
}

func parseDay(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return nil, billfetch.Errorf(billfetch.EINVALID, "invalid date %q, expected YYYY-MM-DD", s)
	}
	return &t, nil
}

func needsCode(err error) bool {
	code := billfetch.ErrorCode(err)
	return code == billfetch.ESECONDFACTOR || code == billfetch.ESECONDFACTORREJECTED
}

// readCode prompts for a one-time code. It returns "" on end of input.
func readCode(w io.Writer, r *bufio.Reader, providerID, reason string) string {
	if reason == billfetch.ESECONDFACTORREJECTED {
		fmt.Fprintf(w, "%s code rejected\n", providerID)
	}
	fmt.Fprintf(w, "%s second factor code: ", color.New(color.FgYellow).Sprint(providerID))
	line, err := r.ReadString('\n')
	if err != nil && line == "" {
		return ""
	}
	return strings.TrimSpace(line)
}

// progressPrinter writes progress lines of concurrent runs.
type progressPrinter struct {
	mu sync.Mutex
	w  io.Writer
}

func (p *progressPrinter) print(providerID string, e billfetch.Event) {
	if e.Kind != billfetch.EventProgress {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.w, "%s %s\n", color.New(color.FgCyan).Sprintf("[%s]", providerID), e.Message)
}
