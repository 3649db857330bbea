package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/newsviews/internal/api/handlers"
)

// scoreCmd represents the score command
var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Compute views from pre-scored articles (no network)",
	Long: `Aggregates caller-supplied sentiment distributions and prints views.
Input uses the same JSON shape as POST /api/views/evaluate:

  {"now": "2024-03-15T12:00:00Z",
   "instruments": {"MSFT": [{"title": "...", "source": "bloomberg.com",
                             "date": "2024-03-15T09:00:00Z",
                             "distribution": {"positive": 0.9, "neutral": 0.1, "negative": 0}}]}}

Example:
  go run ./cmd/views score --file scored.json
  cat scored.json | go run ./cmd/views score`,
	RunE: runScore,
}

var (
	scoreFile string
	scoreJSON bool
)

func init() {
	rootCmd.AddCommand(scoreCmd)

	scoreCmd.Flags().StringVarP(&scoreFile, "file", "f", "", "input JSON (default: stdin)")
	scoreCmd.Flags().BoolVar(&scoreJSON, "json", false, "print the full result as JSON")
}

func runScore(cmd *cobra.Command, args []string) error {
	var r io.Reader = os.Stdin
	if scoreFile != "" {
		f, err := os.Open(scoreFile)
		if err != nil {
			return fmt.Errorf("open input: %w", err)
		}
		defer f.Close()
		r = f
	}

	var req handlers.EvaluateRequest
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return fmt.Errorf("decode input: %w", err)
	}

	a, err := newApp(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer a.Close()

	now := time.Now().UTC()
	if req.Now != nil {
		now = *req.Now
	}

	set, results, err := a.orchestrator.EvaluateAll(cmd.Context(), req.Scored(), now)
	if err != nil {
		return err
	}

	if scoreJSON {
		return PrintJSON(os.Stdout, handlers.EvaluateResponse{
			Views:       set,
			Instruments: results,
			ConfigHash:  a.orchestrator.ConfigHash(),
		})
	}

	PrintHeader("Views Score", fmt.Sprintf("As of     : %s", now.Format(time.RFC3339)))
	PrintInstrumentTable(os.Stdout, results)
	fmt.Println()
	return PrintJSON(os.Stdout, set)
}
