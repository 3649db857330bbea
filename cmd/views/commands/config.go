package commands

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/wonny/newsviews/internal/viewconfig"
	"github.com/wonny/newsviews/pkg/config"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect views configuration",
	Long: `Validates and prints the views YAML (credibility table, recency,
fallback distribution, view thresholds).

Example:
  go run ./cmd/views config check --file config/views/default.yaml
  go run ./cmd/views config show
  go run ./cmd/views config push --file config/views/default.yaml
  go run ./cmd/views config set-cap MSFT 3.1e12 --name Microsoft`,
}

var (
	configCheckCmd = &cobra.Command{
		Use:   "check",
		Short: "Validate a views YAML and print its hash",
		RunE:  checkConfig,
	}

	configShowCmd = &cobra.Command{
		Use:   "show",
		Short: "Print the effective views configuration",
		RunE:  showConfig,
	}

	configPushCmd = &cobra.Command{
		Use:   "push",
		Short: "Store a views YAML credibility table as database overrides",
		RunE:  pushCredibility,
	}

	configSetCapCmd = &cobra.Command{
		Use:   "set-cap [ticker] [market_cap]",
		Short: "Store an instrument's market cap",
		Args:  cobra.ExactArgs(2),
		RunE:  setMarketCap,
	}

	configFile string
	capName    string
)

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configCheckCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configPushCmd)
	configCmd.AddCommand(configSetCapCmd)

	configCheckCmd.Flags().StringVarP(&configFile, "file", "f", "", "views YAML to validate")
	_ = configCheckCmd.MarkFlagRequired("file")

	configPushCmd.Flags().StringVarP(&configFile, "file", "f", "", "views YAML whose credibility table is stored")
	_ = configPushCmd.MarkFlagRequired("file")

	configSetCapCmd.Flags().StringVar(&capName, "name", "", "instrument display name")
}

func checkConfig(cmd *cobra.Command, args []string) error {
	cfg, _, err := viewconfig.Load(configFile)
	if err != nil {
		return err
	}

	hash, err := viewconfig.Hash(cfg)
	if err != nil {
		return err
	}

	PrintHeader("Views Config Check",
		fmt.Sprintf("File      : %s", configFile),
		fmt.Sprintf("Config ID : %s (v%s)", cfg.Meta.ConfigID, cfg.Meta.Version),
		fmt.Sprintf("Hash      : %s", hash),
		fmt.Sprintf("Sources   : %d", len(cfg.Weighting.Credibility)),
	)

	warnings := viewconfig.Warn(cfg)
	for _, w := range warnings {
		fmt.Printf("⚠️  [%s] %s\n", w.Code, w.Message)
	}
	if len(warnings) == 0 {
		PrintSuccess("Valid, no warnings")
	} else {
		PrintSuccess(fmt.Sprintf("Valid with %d warning(s)", len(warnings)))
	}
	return nil
}

func showConfig(cmd *cobra.Command, args []string) error {
	appCfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	path := appCfg.Pipeline.ViewsConfigPath
	if viewsConfigPath != "" {
		path = viewsConfigPath
	}

	cfg, err := viewconfig.LoadOrDefault(path)
	if err != nil {
		return err
	}

	enc := yaml.NewEncoder(os.Stdout)
	enc.SetIndent(2)
	defer enc.Close()
	return enc.Encode(cfg)
}

func pushCredibility(cmd *cobra.Command, args []string) error {
	cfg, _, err := viewconfig.Load(configFile)
	if err != nil {
		return err
	}

	a, err := newApp(cmd.Context(), true)
	if err != nil {
		return err
	}
	defer a.Close()

	if a.repo == nil {
		return fmt.Errorf("DATABASE_URL is not set")
	}

	if err := a.repo.SaveCredibility(cmd.Context(), cfg.Weighting.Credibility); err != nil {
		return err
	}

	PrintSuccess(fmt.Sprintf("Stored %d credibility overrides", len(cfg.Weighting.Credibility)))
	return nil
}

func setMarketCap(cmd *cobra.Command, args []string) error {
	marketCap, err := strconv.ParseFloat(args[1], 64)
	if err != nil || marketCap < 0 {
		return fmt.Errorf("invalid market cap %q", args[1])
	}

	a, err := newApp(cmd.Context(), true)
	if err != nil {
		return err
	}
	defer a.Close()

	if a.repo == nil {
		return fmt.Errorf("DATABASE_URL is not set")
	}

	if err := a.repo.SaveInstrument(cmd.Context(), args[0], capName, marketCap); err != nil {
		return err
	}

	PrintSuccess(fmt.Sprintf("Stored market cap for %s", args[0]))
	return nil
}
