package cli

import (
	"encoding/csv"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/allyourbase/smspool/internal/config"
)

var (
	buildVersion = "dev"
	buildCommit  = "none"
	buildDate    = "unknown"
)

// SetVersion is called from main to inject build-time version info.
func SetVersion(version, commit, date string) {
	buildVersion = version
	buildCommit = commit
	buildDate = date
}

var rootCmd = &cobra.Command{
	Use:   "smspool",
	Short: "smspool: SMS delivery with provider fallback",
	Long: `smspool sends SMS through a pool of vendor providers (Twilio, Plivo,
Telnyx, MSG91, Vonage, AWS SNS or a webhook), trying them in priority order
until one accepts the message. One binary. One config file.

Send a message:
  smspool send --to +14155552671 --body "hello"

Or run the HTTP API:
  smspool serve --port 8095`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: checkGlobalFlags,
}

var outputFormats = []string{"table", "json", "csv"}

func init() {
	rootCmd.PersistentFlags().Bool("json", false, "Output in JSON format (shorthand for --output json)")
	rootCmd.PersistentFlags().String("output", "table", "Output format: table, json, or csv")
	rootCmd.PersistentFlags().String("config", "", "Path to smspool.toml config file")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, or error")

	rootCmd.AddCommand(sendCmd)
	rootCmd.AddCommand(providersCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)

	initHelp()
}

// checkGlobalFlags rejects unsupported --output and --log-level values before
// any command does work.
func checkGlobalFlags(cmd *cobra.Command, _ []string) error {
	if out, _ := cmd.Flags().GetString("output"); out != "" && !slices.Contains(outputFormats, out) {
		return fmt.Errorf("--output must be one of %s, got %q", strings.Join(outputFormats, ", "), out)
	}
	if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" && !slices.Contains(config.LogLevels, lvl) {
		return fmt.Errorf("--log-level must be one of %s, got %q", strings.Join(config.LogLevels, ", "), lvl)
	}
	return nil
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// outputFormat resolves --json and --output into one of outputFormats.
func outputFormat(cmd *cobra.Command) string {
	jsonFlag, _ := cmd.Flags().GetBool("json")
	if jsonFlag {
		return "json"
	}
	out, _ := cmd.Flags().GetString("output")
	if out == "" {
		return "table"
	}
	return out
}

// writeCSV writes rows as CSV to the given writer.
func writeCSV(w io.Writer, cols []string, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(cols); err != nil {
		return fmt.Errorf("writing CSV header: %w", err)
	}
	for _, row := range rows {
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing CSV row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
