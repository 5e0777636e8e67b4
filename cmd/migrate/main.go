package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/joho/godotenv"

	"github.com/angelmondragon/backoffice-backend/pkg/config"
	"github.com/angelmondragon/backoffice-backend/pkg/db"
	"github.com/angelmondragon/backoffice-backend/pkg/logger"
	"github.com/angelmondragon/backoffice-backend/pkg/migrate"
)

// errPending makes `check` exit 2 so deploy scripts can tell "behind" from
// "broken".
var errPending = errors.New("database has pending migrations")

type options struct {
	cmd     string
	dir     string
	name    string
	version string
}

func parseArgs(args []string, stderr io.Writer) (options, error) {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var opts options
	fs.StringVar(&opts.cmd, "cmd", "up", "up|down|to|status|check|create|validate")
	fs.StringVar(&opts.dir, "dir", "", "migrations directory (default: embedded set; create/validate use "+migrate.DefaultDir+")")
	fs.StringVar(&opts.name, "name", "", "migration name for -cmd=create")
	fs.StringVar(&opts.version, "version", "", "target version (YYYYMMDDHHMMSS, or 0) for -cmd=to")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}

	switch opts.cmd {
	case "create":
		if opts.name == "" {
			return options{}, fmt.Errorf("missing -name for create")
		}
	case "to":
		if opts.version == "" {
			return options{}, fmt.Errorf("missing -version for to")
		}
		if _, err := migrate.ParseVersion(opts.version); err != nil {
			return options{}, err
		}
	case "up", "down", "status", "check", "validate":
	default:
		return options{}, fmt.Errorf("unknown -cmd value %q", opts.cmd)
	}
	if (opts.cmd == "create" || opts.cmd == "validate") && opts.dir == "" {
		opts.dir = migrate.DefaultDir
	}
	return opts, nil
}

func needsDatabase(cmd string) bool {
	return cmd != "create" && cmd != "validate"
}

// runFiles handles the commands that only touch migration files.
func runFiles(opts options, stdout io.Writer) error {
	switch opts.cmd {
	case "create":
		path, err := migrate.CreateSQLMigration(opts.dir, opts.name)
		if err != nil {
			return fmt.Errorf("create migration: %w", err)
		}
		fmt.Fprintln(stdout, "created migration:", path)
	case "validate":
		if err := migrate.ValidateDir(opts.dir); err != nil {
			return fmt.Errorf("migration validation failed: %w", err)
		}
		fmt.Fprintln(stdout, "migration validation passed")
	}
	return nil
}

func runDatabase(ctx context.Context, opts options, runner *migrate.Runner, stdout io.Writer) error {
	var (
		steps []migrate.Step
		err   error
	)
	switch opts.cmd {
	case "up":
		steps, err = runner.Up(ctx)
	case "down":
		steps, err = runner.Down(ctx)
	case "to":
		target, perr := migrate.ParseVersion(opts.version)
		if perr != nil {
			return perr
		}
		steps, err = runner.To(ctx, target)
	case "status":
		return printStatus(ctx, runner, stdout)
	case "check":
		pending, cerr := runner.Pending(ctx)
		if cerr != nil {
			return cerr
		}
		if pending {
			return errPending
		}
		fmt.Fprintln(stdout, "schema is up to date")
		return nil
	}
	for _, s := range steps {
		fmt.Fprintf(stdout, "%-4s %d %s (%s)\n", s.Direction, s.Version, s.File, s.Duration)
	}
	if err == nil && len(steps) == 0 {
		fmt.Fprintln(stdout, "nothing to do")
	}
	return err
}

func printStatus(ctx context.Context, runner *migrate.Runner, stdout io.Writer) error {
	rows, err := runner.Status(ctx)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "VERSION\tSTATE\tAPPLIED AT\tFILE")
	for _, row := range rows {
		state, at := "pending", "-"
		if row.Applied {
			state, at = "applied", row.AppliedAt.UTC().Format("2006-01-02 15:04:05")
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", row.Version, state, at, row.File)
	}
	return tw.Flush()
}

func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "migrate"})

	_ = godotenv.Load()

	opts, err := parseArgs(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if !needsDatabase(opts.cmd) {
		if err := runFiles(opts, os.Stdout); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: "migrate",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})
	ctx = logg.WithFields(ctx, map[string]any{
		"env": cfg.App.Env,
		"cmd": opts.cmd,
		"dir": opts.dir,
	})

	if cfg.DB.IsSQLite() {
		requireResource(ctx, logg, "driver", fmt.Errorf("sqlite schemas are created by AutoMigrate; goose migrations target postgres"))
	}

	dbClient, err := db.New(ctx, cfg.DB, logg)
	requireResource(ctx, logg, "database", err)
	defer dbClient.Close()

	sqlDB, err := dbClient.DB().DB()
	requireResource(ctx, logg, "sql database", err)

	files, err := migrate.Files(opts.dir)
	requireResource(ctx, logg, "migration files", err)
	runner, err := migrate.NewRunner(sqlDB, files)
	requireResource(ctx, logg, "migration runner", err)

	logg.Info(ctx, "migrate ready")

	if err := runDatabase(ctx, opts, runner, os.Stdout); err != nil {
		if errors.Is(err, errPending) {
			fmt.Fprintln(os.Stderr, err)
			dbClient.Close()
			os.Exit(2)
		}
		logg.Error(ctx, "migration failed", err)
		dbClient.Close()
		os.Exit(1)
	}
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
