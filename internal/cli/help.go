package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/allyourbase/smspool/internal/cli/ui"
)

const (
	groupMessaging = "messaging"
	groupServer    = "server"
	groupConfig    = "config"
)

// initHelp wires up command groups and styled help rendering.
func initHelp() {
	rootCmd.AddGroup(
		&cobra.Group{ID: groupMessaging, Title: "MESSAGING"},
		&cobra.Group{ID: groupServer, Title: "SERVER"},
		&cobra.Group{ID: groupConfig, Title: "CONFIGURATION"},
	)

	assign := map[string]string{
		"send":      groupMessaging,
		"providers": groupMessaging,
		"serve":     groupServer,
		"config":    groupConfig,
		"version":   groupConfig,
	}
	for _, cmd := range rootCmd.Commands() {
		if gid, ok := assign[cmd.Name()]; ok {
			cmd.GroupID = gid
		}
	}

	rootCmd.SetHelpFunc(styledHelp)
	rootCmd.SetUsageFunc(func(cmd *cobra.Command) error {
		styledHelp(cmd, nil)
		return nil
	})
}

// styledHelp renders help to stderr, colored when stderr is a terminal.
func styledHelp(cmd *cobra.Command, _ []string) {
	c := colorEnabled()
	w := cmd.ErrOrStderr()

	fmt.Fprintln(w)
	switch {
	case cmd == rootCmd:
		fmt.Fprintf(w, "  %s %s\n\n", ui.BrandEmoji, heading("smspool", c))
		for _, line := range strings.Split(cmd.Long, "\n") {
			switch {
			case strings.TrimSpace(line) == "":
				fmt.Fprintln(w)
			case strings.HasPrefix(line, "  "):
				fmt.Fprintf(w, "    %s\n", green(strings.TrimSpace(line), c))
			default:
				fmt.Fprintf(w, "  %s\n", dim(line, c))
			}
		}
	case cmd.Long != "":
		for _, line := range strings.Split(cmd.Long, "\n") {
			fmt.Fprintf(w, "  %s\n", line)
		}
	default:
		fmt.Fprintf(w, "  %s\n", cmd.Short)
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "%s\n", heading("USAGE", c))
	useLine := cmd.UseLine()
	if cmd.HasAvailableSubCommands() {
		useLine = cmd.CommandPath() + " [command]"
	}
	fmt.Fprintf(w, "  %s\n\n", useLine)

	printCommands(w, cmd, c)
	printFlags(w, cmd, c)

	if cmd.HasAvailableSubCommands() {
		fmt.Fprintf(w, "%s\n\n",
			dim(fmt.Sprintf("Use \"%s [command] --help\" for more information about a command.", cmd.CommandPath()), c))
	}
}

// printCommands lists subcommands, by group when the command defines groups.
func printCommands(w io.Writer, cmd *cobra.Command, c bool) {
	var available []*cobra.Command
	for _, sub := range cmd.Commands() {
		if sub.IsAvailableCommand() {
			available = append(available, sub)
		}
	}
	if len(available) == 0 {
		return
	}

	sections := []struct {
		title string
		cmds  []*cobra.Command
	}{}
	for _, g := range cmd.Groups() {
		var cmds []*cobra.Command
		for _, sub := range available {
			if sub.GroupID == g.ID {
				cmds = append(cmds, sub)
			}
		}
		sections = append(sections, struct {
			title string
			cmds  []*cobra.Command
		}{g.Title, cmds})
	}
	var other []*cobra.Command
	for _, sub := range available {
		if sub.GroupID == "" {
			other = append(other, sub)
		}
	}
	title := "COMMANDS"
	if len(cmd.Groups()) > 0 {
		title = "OTHER"
	}
	sections = append(sections, struct {
		title string
		cmds  []*cobra.Command
	}{title, other})

	for _, s := range sections {
		if len(s.cmds) == 0 {
			continue
		}
		fmt.Fprintf(w, "%s\n", heading(s.title, c))
		printCommandList(w, s.cmds, c)
		fmt.Fprintln(w)
	}
}

// printCommandList renders commands with aligned descriptions.
func printCommandList(w io.Writer, cmds []*cobra.Command, c bool) {
	maxLen := 0
	for _, cmd := range cmds {
		maxLen = max(maxLen, len(cmd.Name()))
	}
	for _, cmd := range cmds {
		name := bold(fmt.Sprintf("%-*s", maxLen+4, cmd.Name()), c)
		fmt.Fprintf(w, "  %s%s\n", name, dim(cmd.Short, c))
	}
}

// printFlags renders local flags, then inherited ones for subcommands.
func printFlags(w io.Writer, cmd *cobra.Command, c bool) {
	sets := []struct {
		title string
		fs    *pflag.FlagSet
	}{{"FLAGS", cmd.Flags()}}
	if cmd != rootCmd {
		sets = []struct {
			title string
			fs    *pflag.FlagSet
		}{{"FLAGS", cmd.LocalNonPersistentFlags()}, {"GLOBAL FLAGS", cmd.InheritedFlags()}}
	}
	for _, set := range sets {
		if !hasVisibleFlags(set.fs) {
			continue
		}
		fmt.Fprintf(w, "%s\n", heading(set.title, c))
		for _, line := range strings.Split(strings.TrimRight(set.fs.FlagUsages(), "\n"), "\n") {
			if strings.TrimSpace(line) != "" {
				fmt.Fprintln(w, colorizeFlag(line, c))
			}
		}
		fmt.Fprintln(w)
	}
}

// colorizeFlag colors the flag name cyan and dims the description.
// pflag separates the two with at least three spaces.
func colorizeFlag(line string, c bool) string {
	if !c {
		return line
	}
	trimmed := strings.TrimLeft(line, " ")
	prefix := line[:len(line)-len(trimmed)]
	if i := strings.Index(trimmed, "   "); i > 0 {
		if desc := strings.TrimLeft(trimmed[i:], " "); desc != "" {
			return prefix + cyan(trimmed[:i], c) + "   " + dim(desc, c)
		}
	}
	return prefix + cyan(trimmed, c)
}

// hasVisibleFlags returns true if the flag set has any non-hidden flags.
func hasVisibleFlags(fs *pflag.FlagSet) bool {
	visible := false
	fs.VisitAll(func(f *pflag.Flag) {
		if !f.Hidden {
			visible = true
		}
	})
	return visible
}
