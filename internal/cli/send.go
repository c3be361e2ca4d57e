package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/allyourbase/smspool/internal/cli/ui"
	"github.com/allyourbase/smspool/internal/sms"
)

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Send an SMS through the provider pool",
	Long: `Send one message to one or more recipients. Enabled providers are tried
in priority order until one accepts the message.

Examples:
  smspool send --to +14155552671 --body "Your code is 1234"
  smspool send --to +14155552671,+14155552672 --body "hello" --json
  smspool send --to +919876543210 --template-id otp_login --data 1234
  smspool send --to +14155552671 --body "hi" --provider twilio`,
	RunE: runSend,
}

func init() {
	sendCmd.Flags().StringSlice("to", nil, "Recipient phone numbers (repeat or comma-separate)")
	sendCmd.Flags().String("body", "", "Message text")
	sendCmd.Flags().String("from", "", "Sender number or ID (overrides the provider default)")
	sendCmd.Flags().String("template-id", "", "Vendor template ID")
	sendCmd.Flags().StringSlice("data", nil, "Template variables in order")
	sendCmd.Flags().String("provider", "", "Send through this provider only")
	_ = sendCmd.MarkFlagRequired("to")
}

type sendOutput struct {
	Message *sms.Message `json:"message"`
	Errors  []string     `json:"errors"`
}

func runSend(cmd *cobra.Command, args []string) error {
	to, _ := cmd.Flags().GetStringSlice("to")
	body, _ := cmd.Flags().GetString("body")
	from, _ := cmd.Flags().GetString("from")
	templateID, _ := cmd.Flags().GetString("template-id")
	data, _ := cmd.Flags().GetStringSlice("data")
	only, _ := cmd.Flags().GetString("provider")

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, _ := newLogger(cfg.Logging.Level, cfg.Logging.Format, os.Stderr)

	providers, err := buildProviders(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	if only != "" {
		i := slices.IndexFunc(providers, func(p sms.Provider) bool { return p.Name() == only })
		if i < 0 {
			return fmt.Errorf("provider %q is not enabled", only)
		}
		providers = providers[i : i+1]
	}

	msg := sms.NewMessage()
	if err := msg.SetRecipients(to); err != nil {
		return err
	}
	msg.SetBody(body)
	msg.SetFrom(from)
	msg.SetTemplateID(templateID)
	msg.SetData(data)

	if err := recipientPolicy(cfg).Apply(msg); err != nil {
		return err
	}

	format := outputFormat(cmd)
	showProgress := format != "json" && ui.ColorEnabled()
	sp := ui.NewProgress(os.Stderr, showProgress)
	if showProgress {
		sp.Start(fmt.Sprintf("Sending to %d recipient(s)...", len(msg.Recipients())))
	}

	pool := newPool(cfg, logger, providers).AddMessage(msg, false)
	_, sendErr := pool.Send(cmd.Context())
	failures := pool.Errors()

	if showProgress {
		switch {
		case msg.Status() != sms.StatusSent:
			sp.Fail()
		case len(failures) > 0:
			sp.Warn(fmt.Sprintf("after %d fallback(s)", len(failures)))
		default:
			sp.Done()
		}
	}

	errs := make([]string, len(failures))
	for i, f := range failures {
		errs[i] = f.Error()
	}

	switch format {
	case "json":
		if err := json.NewEncoder(os.Stdout).Encode(sendOutput{Message: msg, Errors: errs}); err != nil {
			return err
		}
	case "csv":
		if err := writeCSV(os.Stdout, []string{"status", "provider", "id", "recipients"}, [][]string{sendRow(msg)}); err != nil {
			return err
		}
	default:
		printSendResult(msg, errs)
	}

	if sendErr != nil {
		return fmt.Errorf("sending message: %w", sendErr)
	}
	if msg.Status() != sms.StatusSent {
		return fmt.Errorf("message not sent: all %d provider(s) failed", len(providers))
	}
	return nil
}

func sendRow(msg *sms.Message) []string {
	provider := ""
	if msg.Provider() != nil {
		provider = msg.Provider().Name()
	}
	return []string{msg.Status().String(), provider, msg.ID(), strings.Join(msg.Recipients(), ",")}
}

func printSendResult(msg *sms.Message, errs []string) {
	color := colorEnabled()
	row := sendRow(msg)
	if msg.Status() == sms.StatusSent {
		fmt.Printf("%s sent via %s", green(ui.SymbolCheck, color), bold(row[1], color))
		if row[2] != "" {
			fmt.Printf(" (id %s)", row[2])
		}
		fmt.Println()
	} else {
		fmt.Printf("%s not sent (status %s)\n", red(ui.SymbolCross, color), row[0])
	}
	fmt.Printf("  %s %s\n", dim("to:", color), row[3])
	for i, e := range errs {
		fmt.Printf("  %s %s\n", dim(strconv.Itoa(i+1)+".", color), e)
	}
}
