package cli

import (
	"encoding/json"
	"testing"

	"github.com/allyourbase/smspool/internal/testutil"
)

const threeProviders = `
[providers.telnyx]
enabled = true
priority = 5
api_key = "KEY"
from = "+15551234567"

[providers.webhook]
enabled = true
priority = 1
url = "https://example.com/sms"

[providers.log]
enabled = true
priority = 5
`

func TestProvidersCommandJSON(t *testing.T) {
	path := writeConfig(t, threeProviders)

	out, err := runCLI(t, "providers", "--config", path, "--json")
	testutil.NoError(t, err)

	var rows []providerRow
	testutil.NoError(t, json.Unmarshal([]byte(out), &rows))
	testutil.SliceLen(t, rows, 3)
	testutil.Equal(t, providerRow{Order: 1, Name: "webhook", Priority: 1}, rows[0])
	testutil.Equal(t, providerRow{Order: 2, Name: "telnyx", Priority: 5}, rows[1])
	testutil.Equal(t, providerRow{Order: 3, Name: "log", Priority: 5}, rows[2])
}

func TestProvidersCommandCSV(t *testing.T) {
	path := writeConfig(t, threeProviders)

	out, err := runCLI(t, "providers", "--config", path, "--output", "csv")
	testutil.NoError(t, err)
	testutil.Equal(t, "order,name,priority\n1,webhook,1\n2,telnyx,5\n3,log,5\n", out)
}

func TestProvidersCommandTable(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	path := writeConfig(t, threeProviders)

	out, err := runCLI(t, "providers", "--config", path)
	testutil.NoError(t, err)
	testutil.Contains(t, out, "NAME")
	testutil.Contains(t, out, "webhook")
	testutil.Contains(t, out, "telnyx")
}

func TestProvidersCommandPriorityFromEnv(t *testing.T) {
	t.Setenv("SMSPOOL_LOG_PRIORITY", "0")
	path := writeConfig(t, threeProviders)

	out, err := runCLI(t, "providers", "--config", path, "--json")
	testutil.NoError(t, err)

	var rows []providerRow
	testutil.NoError(t, json.Unmarshal([]byte(out), &rows))
	testutil.Equal(t, "log", rows[0].Name)
}

func TestProvidersCommandInvalidConfig(t *testing.T) {
	path := writeConfig(t, "[providers.twilio]\nenabled = true\n")

	_, err := runCLI(t, "providers", "--config", path)
	testutil.ErrorContains(t, err, "providers.twilio.account_sid is required when enabled")
}
