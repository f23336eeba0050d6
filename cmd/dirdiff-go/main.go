package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"dirdiff-go/internal/collection"
	"dirdiff-go/internal/compare"
	"dirdiff-go/internal/config"
	"dirdiff-go/internal/logging"
	"dirdiff-go/internal/progress"
	"dirdiff-go/internal/snapshot"
)

const version = "0.3.0"

// Exit codes of the compare command
const (
	exitNoChanges = 0
	exitChanges   = 1
	exitSkipped   = 2
	exitFatal     = 3
)

type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

type app struct {
	stdout io.Writer
	stderr io.Writer

	configPath string
	workers    int
	algorithm  string
	logLevel   string
	progress   bool
}

// runtimeEnv bundles what every command needs once flags and config are merged.
type runtimeEnv struct {
	cfg     *config.Config
	log     *zap.SugaredLogger
	sink    *logging.Sink
	bar     *progress.Bar
	builder *snapshot.Builder
}

func (a *app) setup(cmd *cobra.Command, quiet bool) (*runtimeEnv, error) {
	cfg, err := config.LoadConfig(a.configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("workers") {
		cfg.Workers = a.workers
	}
	if flags.Changed("algorithm") {
		cfg.Algorithm = a.algorithm
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = a.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger, err := logging.New(cfg.LogLevel, a.stderr)
	if err != nil {
		return nil, err
	}
	log := logger.Sugar()
	sink := logging.NewSink(log)

	// Automatic on a terminal, forced by --progress
	showProgress := a.progress
	if f, ok := a.stderr.(*os.File); ok && !quiet && progress.IsTerminal(f) {
		showProgress = true
	}
	bar := progress.New(a.stderr, showProgress)

	builder := snapshot.New(snapshot.Options{
		Exclude:   cfg.Exclude,
		Workers:   cfg.WorkerCount(),
		Algorithm: cfg.HashAlgorithm(),
		Sink:      sink,
		Progress:  bar,
	})

	log.Debugw("configuration loaded",
		"config", a.configPath,
		"workers", cfg.WorkerCount(),
		"algorithm", cfg.HashAlgorithm(),
		"exclude", len(cfg.Exclude))

	return &runtimeEnv{cfg: cfg, log: log, sink: sink, bar: bar, builder: builder}, nil
}

func (a *app) newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "dirdiff-go",
		Short: "Snapshot directory trees by content hash and compare them",
		Long: `dirdiff-go hashes every regular file under a directory and records the
result as a snapshot. Two directories, two snapshots, or a snapshot and a
directory can then be compared to list added, removed and modified files,
along with files sharing the same content on each side.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)

	pf := root.PersistentFlags()
	pf.StringVarP(&a.configPath, "config", "c", config.DefaultPath, "Config file path")
	pf.IntVarP(&a.workers, "workers", "w", 0, "Number of hashing goroutines (default 2x CPUs)")
	pf.StringVarP(&a.algorithm, "algorithm", "a", "", "Hash algorithm: xxhash, blake3 or sha256")
	pf.StringVar(&a.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	pf.BoolVar(&a.progress, "progress", false, "Always show the progress bar on stderr")

	root.AddCommand(a.newSnapshotCmd(), a.newCompareCmd(), a.newDuplicatesCmd(), a.newVersionCmd())
	return root
}

func (a *app) newSnapshotCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "snapshot <directory> [output-json-filename]",
		Short: "Hash a directory tree and save it as a snapshot",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := a.setup(cmd, false)
			if err != nil {
				return err
			}

			fmt.Fprintf(a.stdout, "Scanning directory: %s\n", args[0])
			c, err := env.builder.FromDirectory(cmd.Context(), args[0])
			env.bar.Finish()
			if err != nil {
				return err
			}

			fingerprint, err := c.Fingerprint()
			if err != nil {
				return err
			}

			// Output path: argument, then config, then ./output/<fingerprint>.json
			outputPath := env.cfg.OutputFile
			if len(args) == 2 {
				outputPath = args[1]
			}
			if outputPath == "" {
				outputPath = filepath.Join("output", fingerprint+".json")
			}

			if err := collection.Save(c, outputPath); err != nil {
				return fmt.Errorf("failed to save snapshot: %w", err)
			}

			fmt.Fprintf(a.stdout, "✓ Snapshot saved\n")
			fmt.Fprintf(a.stdout, "  Fingerprint: %s\n", fingerprint)
			fmt.Fprintf(a.stdout, "  Algorithm: %s\n", c.Algorithm())
			fmt.Fprintf(a.stdout, "  Files: %d (%d distinct)\n", c.Len(), c.HashCount())
			fmt.Fprintf(a.stdout, "  Output: %s\n", outputPath)

			if n := env.sink.Count(); n > 0 {
				fmt.Fprintf(a.stdout, "\n⚠ Skipped %d files due to errors\n", n)
			}
			return nil
		},
	}
}

func (a *app) newCompareCmd() *cobra.Command {
	var (
		asJSON         bool
		showUnchanged  bool
		showDuplicates bool
	)

	cmd := &cobra.Command{
		Use:   "compare <left> <right>",
		Short: "Compare two directories or snapshots",
		Long: `Compare two inputs, each either a directory (hashed now) or a snapshot
file written by "dirdiff-go snapshot".

Exit status is 0 when nothing changed, 1 when files differ, 2 when some
files could not be hashed, and 3 on a fatal error.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := a.setup(cmd, asJSON)
			if err != nil {
				return err
			}

			result, err := compare.Roots(cmd.Context(), env.builder, args[0], args[1])
			env.bar.Finish()
			if err != nil {
				return err
			}

			if asJSON {
				if err := compare.WriteJSON(a.stdout, result); err != nil {
					return err
				}
			} else {
				fmt.Fprint(a.stdout, compare.FormatReport(result, compare.ReportOptions{
					ShowUnchanged:  showUnchanged,
					ShowDuplicates: showDuplicates,
				}))
			}

			skipped := env.sink.Count()
			env.log.Debugw("comparison finished",
				"added", len(result.Added),
				"removed", len(result.Removed),
				"modified", len(result.Modified),
				"skipped", skipped)
			if skipped > 0 && !asJSON {
				fmt.Fprintf(a.stdout, "Skipped: %d files\n", skipped)
			}

			switch {
			case skipped > 0:
				return &exitError{code: exitSkipped}
			case result.HasChanges():
				return &exitError{code: exitChanges}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the diff as JSON")
	cmd.Flags().BoolVar(&showUnchanged, "unchanged", false, "List unchanged files")
	cmd.Flags().BoolVar(&showDuplicates, "duplicates", false, "List duplicate groups on each side")
	return cmd
}

func (a *app) newDuplicatesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "duplicates <directory|snapshot>",
		Short: "List files sharing the same content",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := a.setup(cmd, false)
			if err != nil {
				return err
			}

			src, err := snapshot.Resolve(args[0])
			if err != nil {
				return err
			}
			c, err := env.builder.Build(cmd.Context(), src)
			env.bar.Finish()
			if err != nil {
				return err
			}

			groups := c.Duplicates()
			if len(groups) == 0 {
				fmt.Fprintln(a.stdout, "No duplicates found.")
				return nil
			}

			fmt.Fprintf(a.stdout, "DUPLICATES (%d groups):\n", len(groups))
			fmt.Fprint(a.stdout, compare.FormatDuplicates(groups))
			return nil
		},
	}
}

func (a *app) newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(a.stdout, "dirdiff-go version %s\n", version)
		},
	}
}

// run executes the CLI and maps the outcome to a process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	a := &app{stdout: stdout, stderr: stderr}
	root := a.newRootCmd()
	root.SetArgs(args)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return exitNoChanges
	}

	var exitErr *exitError
	if errors.As(err, &exitErr) {
		return exitErr.code
	}

	fmt.Fprintf(stderr, "Error: %v\n", err)
	return exitFatal
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
