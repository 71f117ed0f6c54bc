package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/term"
)

// Palette is the colour set of the help screens.
type Palette struct {
	Title   lipgloss.Style
	Section lipgloss.Style
	Command lipgloss.Style
	Flag    lipgloss.Style
	Muted   lipgloss.Style
	Italic  lipgloss.Style
}

// DefaultPalette uses ANSI colours so it follows the terminal theme.
var DefaultPalette = &Palette{
	Title:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("208")),
	Section: lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("208")),
	Command: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
	Flag:    lipgloss.NewStyle().Foreground(lipgloss.Color("13")),
	Muted:   lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
	Italic:  lipgloss.NewStyle().Italic(true),
}

const (
	maxWidth = 72
	minWidth = 40
)

// getTerminalWidth returns the terminal width capped at maxWidth.
func getTerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width < minWidth {
		return maxWidth
	}
	return min(width, maxWidth)
}

// wrapText wraps text to width, keeping existing line breaks.
func wrapText(text string, width int) string {
	if width <= 0 {
		width = maxWidth
	}

	var out []string
	for _, paragraph := range strings.Split(text, "\n") {
		if len(paragraph) <= width {
			out = append(out, paragraph)
			continue
		}
		var line string
		for _, word := range strings.Fields(paragraph) {
			switch {
			case line == "":
				line = word
			case len(line)+1+len(word) <= width:
				line += " " + word
			default:
				out = append(out, line)
				line = word
			}
		}
		if line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}

// SetStyledHelp applies vigil styling to a command's help output.
func SetStyledHelp(cmd *cobra.Command) {
	cmd.SetHelpFunc(styledHelpFunc)
}

// ApplyStyledHelpRecursive applies styled help to a command and all its
// subcommands. Call it after every subcommand has been added. Usage is not
// printed on errors; the error handler prints a hint instead.
func ApplyStyledHelpRecursive(cmd *cobra.Command) {
	cmd.SetHelpFunc(styledHelpFunc)
	cmd.SetUsageFunc(func(*cobra.Command) error { return nil })
	for _, sub := range cmd.Commands() {
		ApplyStyledHelpRecursive(sub)
	}
}

// splitExamples separates the "Examples:" block from a long description.
func splitExamples(long string) (description, examples string) {
	if idx := strings.Index(long, "\nExamples:\n"); idx != -1 {
		return strings.TrimSpace(long[:idx]), strings.TrimSpace(long[idx+len("\nExamples:\n"):])
	}
	return long, ""
}

func styledHelpFunc(cmd *cobra.Command, _ []string) {
	p := DefaultPalette
	w := cmd.OutOrStdout()
	width := getTerminalWidth() - 2

	fmt.Fprintln(w, " "+p.Title.Render(strings.ToUpper(cmd.CommandPath())))
	if cmd.Short != "" {
		writeIndented(w, p.Italic, wrapText(cmd.Short, width))
	}

	description, examples := splitExamples(cmd.Long)
	if description != "" && description != cmd.Short {
		fmt.Fprintln(w)
		writeIndented(w, lipgloss.NewStyle(), wrapText(description, width))
	}

	if cmd.Runnable() || cmd.HasSubCommands() {
		fmt.Fprintln(w, "\n "+p.Section.Render("USAGE"))
		if cmd.Runnable() {
			fmt.Fprintf(w, " %s\n", cmd.UseLine())
		}
		if cmd.HasSubCommands() {
			fmt.Fprintf(w, " %s [command]\n", cmd.CommandPath())
		}
	}
	if len(cmd.Aliases) > 0 {
		fmt.Fprintln(w, " "+p.Muted.Render("Aliases: "+strings.Join(cmd.Aliases, ", ")))
	}

	if cmd.HasAvailableSubCommands() {
		writeCommands(w, p, cmd)
	}
	writeFlags(w, p, cmd)

	if cmd.Example != "" {
		examples = cmd.Example
	}
	if examples != "" {
		fmt.Fprintln(w, "\n "+p.Section.Render("EXAMPLES"))
		for _, line := range strings.Split(examples, "\n") {
			line = strings.TrimSpace(line)
			switch {
			case line == "":
				fmt.Fprintln(w)
			case strings.HasPrefix(line, "#"):
				fmt.Fprintln(w, " "+p.Muted.Render(line))
			default:
				fmt.Fprintln(w, "   "+styleExample(p, line))
			}
		}
	}

	if cmd.HasSubCommands() {
		fmt.Fprintf(w, "\n Use \"%s [command] --help\" for more information.\n", cmd.CommandPath())
	}
}

func writeIndented(w io.Writer, style lipgloss.Style, text string) {
	for _, line := range strings.Split(text, "\n") {
		fmt.Fprintln(w, " "+style.Render(line))
	}
}

func writeCommands(w io.Writer, p *Palette, cmd *cobra.Command) {
	width := 0
	for _, sub := range cmd.Commands() {
		if sub.IsAvailableCommand() {
			width = max(width, len(sub.Name()))
		}
	}
	fmt.Fprintln(w, "\n "+p.Section.Render("COMMANDS"))
	for _, sub := range cmd.Commands() {
		if !sub.IsAvailableCommand() {
			continue
		}
		pad := strings.Repeat(" ", width-len(sub.Name()))
		fmt.Fprintf(w, " %s%s  %s\n", p.Command.Render(sub.Name()), pad, sub.Short)
	}
}

// writeFlags lists local flags in detail on leaf commands and compactly on
// command groups.
func writeFlags(w io.Writer, p *Palette, cmd *cobra.Command) {
	var flags []*pflag.Flag
	cmd.LocalFlags().VisitAll(func(f *pflag.Flag) {
		if !f.Hidden {
			flags = append(flags, f)
		}
	})
	if len(flags) == 0 {
		return
	}

	if cmd.HasAvailableSubCommands() {
		names := make([]string, len(flags))
		for i, f := range flags {
			names[i] = strings.TrimSpace(formatFlagName(f))
		}
		fmt.Fprintln(w, "\n "+p.Muted.Render("Flags: "+strings.Join(names, ", ")))
		return
	}

	fmt.Fprintln(w, "\n "+p.Section.Render("FLAGS"))
	width := 0
	for _, f := range flags {
		width = max(width, len(formatFlagName(f)))
	}
	for _, f := range flags {
		name := formatFlagName(f)
		usage, choices := parseChoices(f.Usage)
		if f.DefValue != "" && f.DefValue != "false" && f.DefValue != "[]" && f.DefValue != "0" && f.DefValue != "0s" {
			usage += p.Muted.Render(fmt.Sprintf(" (default: %s)", f.DefValue))
		}
		fmt.Fprintf(w, " %s%s  %s\n", p.Flag.Render(name), strings.Repeat(" ", width-len(name)), usage)
		for _, choice := range choices {
			fmt.Fprintf(w, " %s  %s\n", strings.Repeat(" ", width), p.Muted.Render("• "+choice))
		}
	}
}

// styleExample highlights the subcommand and flags of an example line.
func styleExample(p *Palette, line string) string {
	parts := strings.Fields(line)
	for i, part := range parts {
		switch {
		case i == 0:
			parts[i] = p.Command.Render(part)
		case strings.HasPrefix(part, "-"):
			parts[i] = p.Flag.Render(part)
		}
	}
	return strings.Join(parts, " ")
}

// formatFlagName renders "-m, --mode" or "    --only".
func formatFlagName(f *pflag.Flag) string {
	if f.Shorthand != "" {
		return fmt.Sprintf("-%s, --%s", f.Shorthand, f.Name)
	}
	return "    --" + f.Name
}

// parseChoices pulls an enumerated value list out of a flag usage string.
// Two forms are recognised: a bracketed suffix ("Phases to run [a, b, c]")
// and an inline list of three or more after a colon ("Mode: a, b, or c").
func parseChoices(usage string) (description string, choices []string) {
	if strings.HasSuffix(usage, "]") {
		if open := strings.LastIndex(usage, " ["); open != -1 {
			return usage[:open], splitChoices(usage[open+2 : len(usage)-1])
		}
	}

	colon := strings.Index(usage, ": ")
	if colon == -1 {
		return usage, nil
	}
	list := usage[colon+2:]
	if !strings.Contains(list, ", ") {
		return usage, nil
	}
	parts := splitChoices(list)
	if len(parts) < 3 {
		return usage, nil
	}
	return usage[:colon+1], parts
}

func splitChoices(list string) []string {
	parts := strings.Split(list, ", ")
	for i, part := range parts {
		parts[i] = strings.TrimSpace(strings.TrimPrefix(part, "or "))
	}
	return parts
}
