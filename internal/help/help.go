// Package help provides colorful CLI help output.
package help

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/karnagebitcoin/share-to-nostr/internal/cli"
)

// Color palette: purple accents over greyscale
var (
	purple     = lipgloss.Color("99")
	purpleDark = lipgloss.Color("54")
	grey       = lipgloss.Color("245")
	greyDark   = lipgloss.Color("242")
	white      = lipgloss.Color("252")
)

func renderAccent(s string) string {
	return lipgloss.NewStyle().Foreground(purple).Render(s)
}

func renderHeading(s string) string {
	return lipgloss.NewStyle().Foreground(purpleDark).Bold(true).Render(s)
}

func renderWhite(s string) string {
	return lipgloss.NewStyle().Foreground(white).Render(s)
}

func renderGrey(s string) string {
	return lipgloss.NewStyle().Foreground(grey).Render(s)
}

func renderGreyDark(s string) string {
	return lipgloss.NewStyle().Foreground(greyDark).Render(s)
}

func renderURL(s string) string {
	return lipgloss.NewStyle().Foreground(purple).Underline(true).Render(s)
}

func writeExample(b *strings.Builder, cmd, desc string) {
	b.WriteString("  " + renderAccent(cmd) + "\n")
	b.WriteString("      " + renderGreyDark(desc) + "\n")
}

// RootHelp returns the top-level --help output.
func RootHelp() string {
	var b strings.Builder

	b.WriteString(renderWhite("Share web content to Nostr, signed by your browser's NIP-07 extension") + "\n\n")

	b.WriteString(renderHeading("USAGE") + "\n")
	b.WriteString("  " + renderAccent("stn") + " <command> [options]\n\n")

	b.WriteString(renderHeading("COMMANDS") + "\n")
	b.WriteString("  " + renderAccent("serve") + "       " + renderWhite("Run the daemon: JSON API plus the signer bridge") + "\n")
	b.WriteString("  " + renderAccent("publish") + "     " + renderWhite("Publish a note or the pending draft to relays") + "\n")
	b.WriteString("  " + renderAccent("draft") + "       " + renderWhite("Show, set, or discard the pending draft") + "\n")
	b.WriteString("  " + renderAccent("settings") + "    " + renderWhite("Show or change sharing preferences") + "\n\n")

	b.WriteString(renderHeading("EXAMPLES") + "\n")
	writeExample(&b, "stn serve --open", "Start the daemon and open the signing bridge page")
	writeExample(&b, "stn publish -c \"hello nostr\"", "Sign and publish a note via your browser extension")
	writeExample(&b, "stn publish", "Publish the pending draft")
	writeExample(&b, "stn draft --clear", "Discard the pending draft")
	writeExample(&b, "stn settings --include-source-url false", "Stop appending page URLs to captures")
	b.WriteString("\n")

	b.WriteString(renderHeading("ENVIRONMENT") + "\n")
	b.WriteString("  " + renderAccent("RELAYS") + "      " + renderWhite("Comma-separated relay URLs (overrides config)") + "\n")
	b.WriteString("  " + renderAccent("STN_LISTEN") + "  " + renderWhite("Listen address (overrides config)") + "\n\n")

	b.WriteString(renderHeading("GLOBAL FLAGS") + "\n")
	b.WriteString("  " + renderAccent("-h, --help") + "      " + renderWhite("Show help") + "\n")
	b.WriteString("  " + renderAccent("-v, --version") + "   " + renderWhite("Show version") + "\n")
	b.WriteString("  " + renderAccent("--verbose") + "       " + renderWhite("Debug output") + "\n")
	b.WriteString("  " + renderAccent("--no-color") + "      " + renderWhite("Disable colored output") + "\n\n")

	b.WriteString(renderHeading("MORE INFO") + "\n")
	b.WriteString("  " + renderAccent("stn <command> --help") + "  " + renderWhite("Detailed help per command") + "\n")
	b.WriteString("  " + renderURL("https://github.com/karnagebitcoin/share-to-nostr") + "\n")

	return b.String()
}

// ServeHelp returns help for the serve subcommand.
func ServeHelp() string {
	var b strings.Builder

	b.WriteString(renderAccent("stn serve") + " " + renderWhite("- Run the daemon") + "\n\n")

	b.WriteString(renderHeading("USAGE") + "\n")
	b.WriteString("  " + renderAccent("stn serve") + " [options]\n\n")

	b.WriteString(renderGreyDark("  The daemon binds to loopback and serves the JSON API, the pending") + "\n")
	b.WriteString(renderGreyDark("  draft store, and the signer bridge page tabs connect to.") + "\n\n")

	b.WriteString(renderHeading("FLAGS") + "\n")
	b.WriteString("  " + renderAccent("--listen <addr>") + "     " + renderWhite("Listen address (default 127.0.0.1:17807)") + "\n")
	b.WriteString("  " + renderAccent("--config <path>") + "     " + renderWhite("Path to stn.yaml") + "\n")
	b.WriteString("  " + renderAccent("--data-dir <path>") + "   " + renderWhite("Data directory (default ~/.stn)") + "\n")
	b.WriteString("  " + renderAccent("--open") + "              " + renderWhite("Open the signing bridge page in a browser") + "\n")

	return b.String()
}

// PublishHelp returns help for the publish subcommand.
func PublishHelp() string {
	var b strings.Builder

	b.WriteString(renderAccent("stn publish") + " " + renderWhite("- Publish a note to relays") + "\n\n")

	b.WriteString(renderHeading("USAGE") + "\n")
	b.WriteString("  " + renderAccent("stn publish") + " [-c <content>] [--relay <url> ...]\n\n")

	b.WriteString(renderGreyDark("  Without -c, the pending draft is published. Signing happens in your") + "\n")
	b.WriteString(renderGreyDark("  browser: a signing page opens and proxies to your NIP-07 extension.") + "\n\n")

	b.WriteString(renderHeading("FLAGS") + "\n")
	b.WriteString("  " + renderAccent("-c <content>") + "      " + renderWhite("Note content (defaults to the pending draft)") + "\n")
	b.WriteString("  " + renderAccent("--relay <url>") + "     " + renderWhite("Target relay (repeatable, overrides config)") + "\n")
	b.WriteString("  " + renderAccent("--port <port>") + "     " + renderWhite("Custom port for the signing bridge") + "\n")
	b.WriteString("  " + renderAccent("--keep-draft") + "      " + renderWhite("Keep the draft after a successful publish") + "\n")
	b.WriteString("  " + renderAccent("-y") + "                " + renderWhite("Skip confirmations") + "\n")
	b.WriteString("  " + renderAccent("-q, --quiet") + "       " + renderWhite("Minimal output, no prompts (implies -y)") + "\n")

	return b.String()
}

// DraftHelp returns help for the draft subcommand.
func DraftHelp() string {
	var b strings.Builder

	b.WriteString(renderAccent("stn draft") + " " + renderWhite("- Show, set, or discard the pending draft") + "\n\n")

	b.WriteString(renderHeading("USAGE") + "\n")
	b.WriteString("  " + renderAccent("stn draft") + "              " + renderGrey("Show the pending draft") + "\n")
	b.WriteString("  " + renderAccent("stn draft -c <text>") + "    " + renderGrey("Set a manual draft") + "\n")
	b.WriteString("  " + renderAccent("stn draft --clear") + "      " + renderGrey("Discard the pending draft") + "\n")

	return b.String()
}

// SettingsHelp returns help for the settings subcommand.
func SettingsHelp() string {
	var b strings.Builder

	b.WriteString(renderAccent("stn settings") + " " + renderWhite("- Show or change sharing preferences") + "\n\n")

	b.WriteString(renderHeading("USAGE") + "\n")
	b.WriteString("  " + renderAccent("stn settings") + "                                 " + renderGrey("Show current settings") + "\n")
	b.WriteString("  " + renderAccent("stn settings --include-source-url false") + "      " + renderGrey("Change a preference") + "\n")

	return b.String()
}

// HandleHelp prints the help text for the given command.
func HandleHelp(opts *cli.Options) {
	if opts == nil {
		fmt.Fprint(os.Stderr, RootHelp())
		return
	}

	switch opts.Command {
	case cli.CommandServe:
		fmt.Fprint(os.Stderr, ServeHelp())
	case cli.CommandPublish:
		fmt.Fprint(os.Stderr, PublishHelp())
	case cli.CommandDraft:
		fmt.Fprint(os.Stderr, DraftHelp())
	case cli.CommandSettings:
		fmt.Fprint(os.Stderr, SettingsHelp())
	default:
		fmt.Fprint(os.Stderr, RootHelp())
	}
}
