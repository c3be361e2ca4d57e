package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/allyourbase/smspool/internal/cli"
	"github.com/allyourbase/smspool/internal/cli/ui"
	"github.com/allyourbase/smspool/internal/sms"
)

// Set by goreleaser at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	cli.SetVersion(version, commit, date)
	if err := cli.Execute(); err != nil {
		fmt.Fprint(os.Stderr, ui.FormatError(err, hints(err)...))
		os.Exit(1)
	}
}

// hints suggests fixes for errors a user can resolve through configuration.
func hints(err error) []string {
	switch {
	case errors.Is(err, cli.ErrNoProviders):
		return []string{
			"smspool config set providers.log.enabled true",
			"export SMSPOOL_TWILIO_ENABLED=true",
		}
	case errors.Is(err, sms.ErrConfig):
		return []string{"smspool config"}
	}
	return nil
}
