package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/allyourbase/smspool/internal/cli/ui"
)

type versionInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Date      string `json:"date"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

func currentVersion() versionInfo {
	return versionInfo{
		Version:   buildVersion,
		Commit:    buildCommit,
		Date:      buildDate,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print smspool version and build details",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		v := currentVersion()
		if outputFormat(cmd) == "json" {
			return json.NewEncoder(os.Stdout).Encode(v)
		}
		fmt.Printf("%s smspool %s\n", ui.BrandEmoji, v.Version)
		fmt.Printf("   commit %s, built %s, %s %s\n", v.Commit, v.Date, v.GoVersion, v.Platform)
		return nil
	},
}
