// Command ledgerpipe imports bank and card statement exports (PDF, XLSX,
// CSV) and writes the merged, de-duplicated transactions to a workbook or
// CSV file.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/ledgerpipe/ledgerpipe/internal/domain/statement/export"
	"github.com/ledgerpipe/ledgerpipe/internal/domain/statement/history"
	"github.com/ledgerpipe/ledgerpipe/internal/domain/statement/pipeline"
	"github.com/ledgerpipe/ledgerpipe/internal/domain/statement/registry"
	"github.com/ledgerpipe/ledgerpipe/pkg/config"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "ledgerpipe",
		Short:         "Import bank statements into a shared spreadsheet",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newImportCmd(), newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the ledgerpipe version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	}
}

func newImportCmd() *cobra.Command {
	var (
		password    string
		institution string
		sheet       string
		out         string
		format      string
		verbose     bool
	)

	cmd := &cobra.Command{
		Use:   "import <file>...",
		Short: "Parse statement files and export the merged transactions",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// .env is optional
			_ = godotenv.Load()

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			level := slog.LevelInfo
			if verbose {
				level = slog.LevelDebug
			}
			logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

			if password == "" {
				password = os.Getenv("STATEMENT_PASSWORD")
			}

			opts := []pipeline.Option{
				pipeline.WithLogger(logger),
				pipeline.WithWorkers(cfg.Pipeline.Workers),
				pipeline.WithMetrics(cfg.Observability.MetricsEnabled),
				pipeline.WithDefaults(pipeline.Defaults{
					Currency:        cfg.Pipeline.DefaultCurrency,
					EarliestDate:    cfg.Pipeline.EarliestDate,
					FutureTolerance: cfg.Pipeline.FutureTolerance(),
				}),
			}

			var ledger *history.Store
			if cfg.History.Path != "" {
				ledger, err = history.Open(cfg.History.Path)
				if err != nil {
					return err
				}
				defer ledger.Close()
				opts = append(opts, pipeline.WithHistory(ledger))
			}

			coord := pipeline.New(registry.Default(), opts...)

			inputs := make([]pipeline.Input, len(args))
			for i, path := range args {
				inputs[i] = pipeline.Input{
					Path:        path,
					Password:    password,
					Sheet:       sheet,
					Institution: institution,
				}
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			batch, procErr := coord.Process(ctx, inputs)

			for _, issue := range batch.Issues {
				if issue.Row < 0 {
					fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", issue.File, issue.Err)
				} else {
					fmt.Fprintf(cmd.ErrOrStderr(), "%s row %d: %v\n", issue.File, issue.Row, issue.Err)
				}
			}

			var exp export.Exporter
			switch strings.ToLower(format) {
			case "xlsx":
				exp = export.Workbook{Sheet: sheet}
			case "csv":
				exp = export.CSV{}
			default:
				return fmt.Errorf("unknown export format %q (want xlsx or csv)", format)
			}

			if err := exp.Export(ctx, out, batch.Transactions); err != nil {
				return err
			}
			if ledger != nil {
				if err := ledger.MarkBatch(batch.IdentityKeys()); err != nil {
					return err
				}
			}

			fmt.Fprintf(cmd.OutOrStdout(), "imported %d transactions from %d file(s) into %s (%d issue(s))\n",
				len(batch.Transactions), batch.FilesOK, out, len(batch.Issues))

			if procErr != nil {
				return procErr
			}
			if batch.FilesFailed > 0 {
				return fmt.Errorf("%d file(s) failed", batch.FilesFailed)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&password, "password", "p", "", "decryption password for protected statements")
	cmd.Flags().StringVar(&institution, "institution", "", "institution hint used for format detection")
	cmd.Flags().StringVar(&sheet, "sheet", "", "sheet name to read from workbooks and write on export")
	cmd.Flags().StringVarP(&out, "out", "o", "transactions.xlsx", "output file path")
	cmd.Flags().StringVar(&format, "format", "xlsx", "output format: xlsx or csv")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	return cmd
}
