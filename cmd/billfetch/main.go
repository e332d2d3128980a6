package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"dario.cat/mergo"
	"github.com/alecthomas/kong"
	"github.com/fwojciec/billfetch/download"
	"github.com/fwojciec/billfetch/sqlite"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := NewMain()

	err := m.Run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct {
	Config Config

	// Service drives the configured portals. Set by Run for commands that
	// need it.
	Service *download.Service

	dbs []*sqlite.DB
}

// NewMain returns a new instance of Main.
func NewMain() *Main {
	return &Main{}
}

// Close gracefully stops the program.
func (m *Main) Close() error {
	var errs []error
	if m.Service != nil {
		errs = append(errs, m.Service.Close())
	}
	for _, db := range m.dbs {
		errs = append(errs, db.Close())
	}
	m.dbs = nil
	return errors.Join(errs...)
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	cli := &CLI{}
	deps := &Dependencies{
		Ctx:    ctx,
		Stdin:  stdin,
		Stdout: stdout,
		Stderr: stderr,
	}

	parser, err := kong.New(cli,
		kong.Name("billfetch"),
		kong.Description("Download invoices from customer portals"),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}), // Don't exit on help
		kong.Bind(deps),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no command specified. Run 'billfetch --help' to see available commands")
	}
	if args[0] == "help" || args[0] == "--help" || args[0] == "-h" {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(cli.Globals)
	if err != nil {
		fmt.Fprintf(stderr, "Hint: Set BILLFETCH_CONFIG to use a different configuration file\n")
		return err
	}
	m.Config = cfg
	deps.Config = cfg
	deps.Logger = newLogger(stderr, cli.Verbose)
	deps.Registries = m.openRegistry
	defer m.Close()

	switch cmd := strings.Fields(kongCtx.Command())[0]; cmd {
	case "download", "serve":
		m.Service, err = m.newService(cfg, deps.Logger)
		if err != nil {
			return err
		}
		deps.Service = m.Service
	}

	return kongCtx.Run(deps)
}

// loadConfig reads the configuration file, applies flag overrides and
// defaults, and validates the result. A missing default file is not an
// error.
func loadConfig(g Globals) (Config, error) {
	cfg, err := ReadConfig(g.Config)
	if errors.Is(err, os.ErrNotExist) {
		if g.Config != DefaultConfigFile {
			return Config{}, fmt.Errorf("configuration file %q not found", g.Config)
		}
	} else if err != nil {
		return Config{}, fmt.Errorf("failed to read configuration: %w", err)
	}

	if err := mergo.Merge(&cfg, g.Overrides(), mergo.WithOverride); err != nil {
		return Config{}, fmt.Errorf("failed to apply flags: %w", err)
	}
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid configuration:\n%w", err)
	}
	return cfg, nil
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
