package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/newsviews/internal/pipeline"
	"github.com/wonny/newsviews/pkg/config"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Generate views for instruments (news → FinBERT → views)",
	Long: `Runs the full pipeline once and prints the view vector.

Example:
  go run ./cmd/views run --tickers MSFT,GOOGL,TSLA
  go run ./cmd/views run --json`,
	RunE: runViews,
}

var (
	runTickers     string
	runConcurrency int
	runJSON        bool
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVar(&runTickers, "tickers", "", "comma separated instruments (default: $PIPELINE_INSTRUMENTS)")
	runCmd.Flags().IntVar(&runConcurrency, "concurrency", 0, "instruments processed in parallel")
	runCmd.Flags().BoolVar(&runJSON, "json", false, "print the full run result as JSON")
}

func runViews(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, true)
	if err != nil {
		return err
	}
	defer a.Close()

	instruments := a.cfg.Pipeline.Instruments
	if runTickers != "" {
		instruments = config.SplitList(runTickers)
	}

	result, err := a.orchestrator.Run(ctx, pipeline.RunConfig{
		Instruments: instruments,
		Concurrency: runConcurrency,
	})
	if err != nil {
		return err
	}

	if runJSON {
		return PrintJSON(os.Stdout, result)
	}

	PrintHeader("Views Run",
		fmt.Sprintf("Run ID    : %s", result.RunID),
		fmt.Sprintf("Config    : %s", result.ConfigHash[:12]),
		fmt.Sprintf("Tickers   : %s", strings.Join(pipeline.NormalizeInstruments(instruments), ",")),
	)
	PrintInstrumentTable(os.Stdout, result.Instruments)
	PrintFailures(result.Failed)

	fmt.Println()
	fmt.Println("View vector (omitted = no opinion):")
	if err := PrintJSON(os.Stdout, result.Views); err != nil {
		return err
	}
	if len(result.MarketCaps) > 0 {
		fmt.Println("Market caps:")
		if err := PrintJSON(os.Stdout, result.MarketCaps); err != nil {
			return err
		}
	}

	PrintSuccess(fmt.Sprintf("Completed in %.2fs", result.Duration.Seconds()))
	return nil
}
