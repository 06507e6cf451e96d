// Package cli handles command-line interface concerns.
package cli

import (
	"flag"
	"fmt"
	"os"
	"strings"
)

// Command represents the active subcommand.
type Command string

const (
	CommandNone     Command = ""
	CommandServe    Command = "serve"
	CommandPublish  Command = "publish"
	CommandDraft    Command = "draft"
	CommandSettings Command = "settings"
)

// GlobalOptions holds flags available at root level and shared across subcommands.
type GlobalOptions struct {
	Verbose bool
	NoColor bool
	Version bool
	Help    bool
}

// ServeOptions holds flags specific to the serve subcommand.
type ServeOptions struct {
	Listen  string
	Config  string
	DataDir string
	Open    bool // Open the bridge page in a browser after startup
}

// PublishOptions holds flags specific to the publish subcommand.
type PublishOptions struct {
	Content   string   // Note content; empty means use the pending draft
	Relays    []string // Target relays (repeatable, overrides config)
	Port      int      // Custom port for the signing bridge
	Yes       bool
	Quiet     bool
	KeepDraft bool // Do not clear the draft after a successful publish
}

// DraftOptions holds flags specific to the draft subcommand.
type DraftOptions struct {
	Content string // Set a manual draft with this content
	Clear   bool
}

// SettingsOptions holds flags specific to the settings subcommand.
type SettingsOptions struct {
	IncludeSourceURL string // "", "true", or "false"
}

// Options holds all CLI configuration options.
type Options struct {
	Command Command
	Args    []string // Remaining positional arguments

	Global   GlobalOptions
	Serve    ServeOptions
	Publish  PublishOptions
	Draft    DraftOptions
	Settings SettingsOptions
}

// stringSliceFlag implements flag.Value to accumulate multiple flag values.
type stringSliceFlag []string

func (s *stringSliceFlag) String() string {
	return strings.Join(*s, ",")
}

func (s *stringSliceFlag) Set(value string) error {
	*s = append(*s, value)
	return nil
}

// ParseCommand parses command-line arguments and returns Options.
func ParseCommand() *Options {
	return parse(os.Args[1:])
}

func parse(args []string) *Options {
	opts := &Options{}

	if len(args) == 0 {
		opts.Global.Help = true
		return opts
	}

	first := args[0]

	if first == "-h" || first == "--help" || first == "-help" {
		opts.Global.Help = true
		opts.Args = args[1:]
		return opts
	}
	if first == "-v" || first == "--version" || first == "-version" {
		opts.Global.Version = true
		return opts
	}
	if first == "--verbose" {
		opts.Global.Verbose = true
		args = args[1:]
		if len(args) == 0 {
			opts.Global.Help = true
			return opts
		}
		first = args[0]
	}
	if first == "--no-color" {
		opts.Global.NoColor = true
		args = args[1:]
		if len(args) == 0 {
			opts.Global.Help = true
			return opts
		}
		first = args[0]
	}

	switch first {
	case "serve":
		opts.Command = CommandServe
		parseServeFlags(opts, args[1:])
	case "publish":
		opts.Command = CommandPublish
		parsePublishFlags(opts, args[1:])
	case "draft":
		opts.Command = CommandDraft
		parseDraftFlags(opts, args[1:])
	case "settings":
		opts.Command = CommandSettings
		parseSettingsFlags(opts, args[1:])
	default:
		opts.Global.Help = true
		opts.Args = args
	}

	return opts
}

// parseServeFlags parses flags for the serve subcommand.
func parseServeFlags(opts *Options, args []string) {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	fs.StringVar(&opts.Serve.Listen, "listen", "", "Listen address (host:port)")
	fs.StringVar(&opts.Serve.Config, "config", "", "Path to stn.yaml")
	fs.StringVar(&opts.Serve.DataDir, "data-dir", "", "Data directory for drafts and settings")
	fs.BoolVar(&opts.Serve.Open, "open", false, "Open the signing bridge page in a browser")
	fs.BoolVar(&opts.Global.Verbose, "verbose", false, "Debug output")
	fs.BoolVar(&opts.Global.NoColor, "no-color", false, "Disable colored output")

	var showHelp bool
	fs.BoolVar(&showHelp, "h", false, "Show help")
	fs.BoolVar(&showHelp, "help", false, "Show help")

	reorderedArgs := reorderArgsForFlagSet(args, map[string]bool{
		"--listen": true, "--config": true, "--data-dir": true,
	})

	if err := fs.Parse(reorderedArgs); err != nil || showHelp {
		opts.Global.Help = true
		return
	}

	opts.Args = fs.Args()
}

// parsePublishFlags parses flags for the publish subcommand.
func parsePublishFlags(opts *Options, args []string) {
	fs := flag.NewFlagSet("publish", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var relaysFlag stringSliceFlag

	fs.StringVar(&opts.Publish.Content, "c", "", "Note content (defaults to the pending draft)")
	fs.Var(&relaysFlag, "relay", "Target relay (repeatable, overrides config)")
	fs.IntVar(&opts.Publish.Port, "port", 0, "Custom port for the signing bridge")
	fs.BoolVar(&opts.Publish.Yes, "y", false, "Skip confirmations (auto-yes)")
	fs.BoolVar(&opts.Publish.Quiet, "quiet", false, "Minimal output, no prompts (implies -y)")
	fs.BoolVar(&opts.Publish.Quiet, "q", false, "Minimal output, no prompts (alias)")
	fs.BoolVar(&opts.Publish.KeepDraft, "keep-draft", false, "Keep the pending draft after publishing")
	fs.BoolVar(&opts.Global.Verbose, "verbose", false, "Debug output")
	fs.BoolVar(&opts.Global.NoColor, "no-color", false, "Disable colored output")

	var showHelp bool
	fs.BoolVar(&showHelp, "h", false, "Show help")
	fs.BoolVar(&showHelp, "help", false, "Show help")

	reorderedArgs := reorderArgsForFlagSet(args, map[string]bool{
		"-c": true, "--relay": true, "--port": true,
	})

	if err := fs.Parse(reorderedArgs); err != nil || showHelp {
		opts.Global.Help = true
		return
	}

	opts.Publish.Relays = relaysFlag
	opts.Args = fs.Args()

	// Quiet implies yes
	if opts.Publish.Quiet {
		opts.Publish.Yes = true
	}
}

// parseDraftFlags parses flags for the draft subcommand.
func parseDraftFlags(opts *Options, args []string) {
	fs := flag.NewFlagSet("draft", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	fs.StringVar(&opts.Draft.Content, "c", "", "Set a manual draft with this content")
	fs.BoolVar(&opts.Draft.Clear, "clear", false, "Discard the pending draft")
	fs.BoolVar(&opts.Global.Verbose, "verbose", false, "Debug output")
	fs.BoolVar(&opts.Global.NoColor, "no-color", false, "Disable colored output")

	var showHelp bool
	fs.BoolVar(&showHelp, "h", false, "Show help")
	fs.BoolVar(&showHelp, "help", false, "Show help")

	reorderedArgs := reorderArgsForFlagSet(args, map[string]bool{"-c": true})

	if err := fs.Parse(reorderedArgs); err != nil || showHelp {
		opts.Global.Help = true
		return
	}

	opts.Args = fs.Args()
}

// parseSettingsFlags parses flags for the settings subcommand.
func parseSettingsFlags(opts *Options, args []string) {
	fs := flag.NewFlagSet("settings", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	fs.StringVar(&opts.Settings.IncludeSourceURL, "include-source-url", "", "Append the origin URL to captures (true/false)")
	fs.BoolVar(&opts.Global.Verbose, "verbose", false, "Debug output")
	fs.BoolVar(&opts.Global.NoColor, "no-color", false, "Disable colored output")

	var showHelp bool
	fs.BoolVar(&showHelp, "h", false, "Show help")
	fs.BoolVar(&showHelp, "help", false, "Show help")

	reorderedArgs := reorderArgsForFlagSet(args, map[string]bool{"--include-source-url": true})

	if err := fs.Parse(reorderedArgs); err != nil || showHelp {
		opts.Global.Help = true
		return
	}

	if v := opts.Settings.IncludeSourceURL; v != "" && v != "true" && v != "false" {
		fmt.Fprintf(os.Stderr, "invalid --include-source-url %q: must be true or false\n", v)
		opts.Global.Help = true
		return
	}

	opts.Args = fs.Args()
}

// reorderArgsForFlagSet moves flags before positional arguments.
func reorderArgsForFlagSet(args []string, valuedFlags map[string]bool) []string {
	var flags, positional []string

	for i := 0; i < len(args); i++ {
		arg := args[i]
		if strings.HasPrefix(arg, "-") {
			flags = append(flags, arg)
			// Check if this flag takes a value
			if valuedFlags[arg] && i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
				i++
				flags = append(flags, args[i])
			}
		} else {
			positional = append(positional, arg)
		}
	}

	return append(flags, positional...)
}

// IsInteractive returns true if the CLI should prompt before publishing.
func (o *PublishOptions) IsInteractive() bool {
	return !o.Quiet && !o.Yes
}

// ShouldShowSpinners returns true if spinners should be shown.
func (o *PublishOptions) ShouldShowSpinners() bool {
	return !o.Quiet
}
