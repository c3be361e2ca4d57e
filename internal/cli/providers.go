package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "List enabled providers in send order",
	Long: `List the enabled SMS providers in the order the pool tries them.
Lower priority goes first; ties keep config order.`,
	RunE: runProviders,
}

type providerRow struct {
	Order    int    `json:"order"`
	Name     string `json:"name"`
	Priority int    `json:"priority"`
}

func runProviders(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, _ := newLogger(cfg.Logging.Level, cfg.Logging.Format, os.Stderr)

	providers, err := buildProviders(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}

	ordered := newPool(cfg, logger, providers).Providers()
	rows := make([]providerRow, len(ordered))
	for i, p := range ordered {
		rows[i] = providerRow{Order: i + 1, Name: p.Name(), Priority: p.Priority()}
	}

	switch outputFormat(cmd) {
	case "json":
		return json.NewEncoder(os.Stdout).Encode(rows)
	case "csv":
		records := make([][]string, len(rows))
		for i, r := range rows {
			records[i] = []string{strconv.Itoa(r.Order), r.Name, strconv.Itoa(r.Priority)}
		}
		return writeCSV(os.Stdout, []string{"order", "name", "priority"}, records)
	}

	color := colorEnabled()
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, bold("#\tNAME\tPRIORITY", color))
	for _, r := range rows {
		fmt.Fprintf(w, "%d\t%s\t%d\n", r.Order, r.Name, r.Priority)
	}
	return w.Flush()
}
