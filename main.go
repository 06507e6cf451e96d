package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"

	"github.com/karnagebitcoin/share-to-nostr/internal/bridge"
	"github.com/karnagebitcoin/share-to-nostr/internal/cli"
	"github.com/karnagebitcoin/share-to-nostr/internal/config"
	"github.com/karnagebitcoin/share-to-nostr/internal/draft"
	"github.com/karnagebitcoin/share-to-nostr/internal/help"
	"github.com/karnagebitcoin/share-to-nostr/internal/logging"
	"github.com/karnagebitcoin/share-to-nostr/internal/publish"
	"github.com/karnagebitcoin/share-to-nostr/internal/relay"
	"github.com/karnagebitcoin/share-to-nostr/internal/server"
	"github.com/karnagebitcoin/share-to-nostr/internal/signer"
	"github.com/karnagebitcoin/share-to-nostr/internal/store"
	"github.com/karnagebitcoin/share-to-nostr/internal/ui"
)

var version = "dev"

func main() {
	// Set up signal handler first - this handles Ctrl+C globally
	sigHandler := cli.NewSignalHandler()
	defer sigHandler.Stop()

	os.Exit(run(sigHandler))
}

func run(sigHandler *cli.SignalHandler) int {
	ctx := sigHandler.Context()

	opts := cli.ParseCommand()

	if opts.Global.Help {
		help.HandleHelp(opts)
		return 0
	}

	if opts.Global.Version {
		fmt.Printf("stn version %s\n", version)
		return 0
	}

	if opts.Global.NoColor {
		ui.SetNoColor(true)
	}
	ui.SetVerbose(opts.Global.Verbose)

	// .env is a dev convenience; deployments set real env vars.
	if os.Getenv("APP_ENV") != "production" {
		godotenv.Load()
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid configuration: %v\n", err)
		return 1
	}

	log := logging.New(opts.Global.Verbose || cfg.Verbose)

	switch opts.Command {
	case cli.CommandServe:
		return cmdServe(ctx, opts, cfg, log)
	case cli.CommandPublish:
		return cmdPublish(ctx, opts, cfg, log)
	case cli.CommandDraft:
		return cmdDraft(ctx, opts, cfg)
	case cli.CommandSettings:
		return cmdSettings(ctx, opts, cfg)
	}

	help.HandleHelp(nil)
	return 1
}

// loadConfig resolves the effective configuration: explicit --config,
// else stn.yaml in the data dir if present, else built-in defaults.
// Environment variables and CLI flags override the file.
func loadConfig(opts *cli.Options) (*config.Config, error) {
	var cfg *config.Config
	var err error

	switch {
	case opts.Serve.Config != "":
		cfg, err = config.Load(opts.Serve.Config)
		if err != nil {
			return nil, err
		}
	default:
		path := filepath.Join(config.Default().DataDir, config.DefaultConfigName)
		if _, statErr := os.Stat(path); statErr == nil {
			cfg, err = config.Load(path)
			if err != nil {
				return nil, err
			}
		} else {
			cfg = config.Default()
		}
	}

	cfg.ApplyEnv()

	if opts.Serve.Listen != "" {
		cfg.Listen = opts.Serve.Listen
	}
	if opts.Serve.DataDir != "" {
		cfg.DataDir = opts.Serve.DataDir
	}
	if len(opts.Publish.Relays) > 0 {
		cfg.Relays = relay.NormalizeOrDefault(opts.Publish.Relays)
	}
	if opts.Publish.Port != 0 {
		host, _, err := net.SplitHostPort(cfg.Listen)
		if err != nil {
			host = "127.0.0.1"
		}
		cfg.Listen = fmt.Sprintf("%s:%d", host, opts.Publish.Port)
	}

	return cfg, nil
}

// newDaemon wires the full component graph around a fresh bridge hub.
func newDaemon(cfg *config.Config, log logging.Logger) (*server.Server, *bridge.Hub, *publish.Coordinator, *store.Store, error) {
	st, err := store.Open(cfg.DataDir)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	hub := bridge.NewHub(log)
	sig := signer.NewBridge(hub, log)
	session := signer.NewSession()
	coord := publish.NewCoordinator(hub, sig, relay.NewPublisher(log), session, log)
	srv := server.New(cfg, hub, coord, st, log)

	return srv, hub, coord, st, nil
}

func cmdServe(ctx context.Context, opts *cli.Options, cfg *config.Config, log logging.Logger) int {
	srv, _, _, st, err := newDaemon(cfg, log)
	if err != nil {
		ui.ErrorStatus("Error", err.Error())
		return 1
	}
	defer st.Close()

	ui.Status("Serving", fmt.Sprintf("http://%s", cfg.Listen))

	if opts.Serve.Open {
		go func() {
			time.Sleep(300 * time.Millisecond)
			if err := bridge.OpenBrowser(fmt.Sprintf("http://%s/", cfg.Listen)); err != nil {
				ui.WarningStatus("Warning", "could not open browser: "+err.Error())
			}
		}()
	}

	if err := srv.Run(ctx); err != nil {
		ui.ErrorStatus("Error", err.Error())
		return 1
	}
	return 0
}

func cmdPublish(ctx context.Context, opts *cli.Options, cfg *config.Config, log logging.Logger) int {
	srv, hub, coord, st, err := newDaemon(cfg, log)
	if err != nil {
		ui.ErrorStatus("Error", err.Error())
		return 1
	}
	defer st.Close()

	if opts.Publish.Quiet {
		ui.SetQuietMode(true)
	}

	// Resolve what to publish: explicit content, else the pending draft.
	content := opts.Publish.Content
	relays := cfg.Relays
	var pending *draft.Draft
	if content == "" {
		d, err := st.Draft(ctx)
		if errors.Is(err, store.ErrNoDraft) {
			ui.ErrorStatus("Error", "no pending draft; pass -c <content> or capture something first")
			return 1
		}
		if err != nil {
			ui.ErrorStatus("Error", err.Error())
			return 1
		}
		pending = &d
		content = draft.ComposeContent(d.Content, d.SourceURL, d.MediaURL())
		if len(opts.Publish.Relays) == 0 && len(d.Relays) > 0 {
			relays = d.Relays
		}
	}

	if opts.Publish.IsInteractive() {
		fmt.Fprintln(os.Stderr, ui.Bold("Note preview:"))
		fmt.Fprintln(os.Stderr, ui.Dim(content))
		if !ui.Confirm("Publish this note?", true) {
			ui.Status("Canceled", "nothing was published")
			return 1
		}
	}

	// The signing page needs a running bridge to connect back to.
	serveCtx, stopServe := context.WithCancel(ctx)
	defer stopServe()
	go func() {
		if err := srv.Run(serveCtx); err != nil {
			log.Error(serveCtx, "bridge server", "err", err)
		}
	}()

	pageURL := fmt.Sprintf("http://%s/", cfg.Listen)
	ui.Status("Signing", "opening "+pageURL)
	if err := bridge.OpenBrowser(pageURL); err != nil {
		ui.WarningStatus("Warning", "could not open browser, visit "+pageURL+" manually")
	}

	spinner := ui.NewSpinner("Waiting for a browser tab with a NIP-07 signer...")
	if opts.Publish.ShouldShowSpinners() {
		spinner.Start()
	}

	waitCtx, cancelWait := context.WithTimeout(ctx, 2*time.Minute)
	tab, err := hub.WaitForTab(waitCtx)
	cancelWait()
	spinner.Stop()
	if err != nil {
		ui.ErrorStatus("Error", "no signing tab connected: "+err.Error())
		return 1
	}
	ui.Detail("Connected", tab.URL)

	spinner = ui.NewSpinner("Publishing...")
	if opts.Publish.ShouldShowSpinners() {
		spinner.Start()
	}
	res, err := coord.Publish(ctx, content, relays, tab.ID)
	spinner.Stop()
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return 130
		}
		ui.ErrorStatus("Error", err.Error())
		return 1
	}

	for _, outcome := range res.Relays {
		switch outcome.Status {
		case relay.StatusAccepted:
			ui.Status("Accepted", outcome.Relay+"  "+ui.Dim(outcome.Message))
		case relay.StatusRejected:
			ui.WarningStatus("Rejected", outcome.Relay+"  "+outcome.Message)
		default:
			ui.ErrorStatus("Failed", outcome.Relay+"  "+outcome.Message)
		}
	}

	if !res.OK {
		ui.ErrorStatus("Error", res.Error)
		return 1
	}

	if pending != nil && !opts.Publish.KeepDraft {
		if err := st.ClearDraft(ctx); err != nil {
			ui.WarningStatus("Warning", "could not clear draft: "+err.Error())
		}
	}

	ui.Status("Published", ui.Success("event "+res.EventID))
	ui.Result(res.EventID)
	return 0
}

func cmdDraft(ctx context.Context, opts *cli.Options, cfg *config.Config) int {
	st, err := store.Open(cfg.DataDir)
	if err != nil {
		ui.ErrorStatus("Error", err.Error())
		return 1
	}
	defer st.Close()

	switch {
	case opts.Draft.Clear:
		if err := st.ClearDraft(ctx); err != nil {
			ui.ErrorStatus("Error", err.Error())
			return 1
		}
		ui.Status("Cleared", "pending draft discarded")
		return 0

	case opts.Draft.Content != "":
		d := draft.Normalize(draft.Draft{
			Content: opts.Draft.Content,
			Relays:  cfg.Relays,
		})
		if err := st.SaveDraft(ctx, d); err != nil {
			ui.ErrorStatus("Error", err.Error())
			return 1
		}
		ui.Status("Saved", "draft "+d.ID)
		return 0

	default:
		d, err := st.Draft(ctx)
		if errors.Is(err, store.ErrNoDraft) {
			ui.Status("Empty", "no pending draft")
			return 0
		}
		if err != nil {
			ui.ErrorStatus("Error", err.Error())
			return 1
		}

		fmt.Printf("%s  %s (%s)\n", ui.Bold("Draft"), d.ID, d.Type)
		if d.PageTitle != "" {
			fmt.Printf("%s  %s\n", ui.Bold("From"), d.PageTitle)
		}
		if d.SourceURL != "" {
			fmt.Printf("%s  %s\n", ui.Bold("URL"), d.SourceURL)
		}
		fmt.Println()
		fmt.Println(d.Content)
		return 0
	}
}

func cmdSettings(ctx context.Context, opts *cli.Options, cfg *config.Config) int {
	st, err := store.Open(cfg.DataDir)
	if err != nil {
		ui.ErrorStatus("Error", err.Error())
		return 1
	}
	defer st.Close()

	if opts.Settings.IncludeSourceURL != "" {
		include := opts.Settings.IncludeSourceURL == "true"
		settings, err := st.PatchSettings(ctx, store.SettingsPatch{IncludeSourceURL: &include})
		if err != nil {
			ui.ErrorStatus("Error", err.Error())
			return 1
		}
		ui.Status("Updated", fmt.Sprintf("include-source-url = %v", settings.IncludeSourceURL))
		return 0
	}

	settings, err := st.Settings(ctx)
	if err != nil {
		ui.ErrorStatus("Error", err.Error())
		return 1
	}
	fmt.Printf("include-source-url = %v\n", settings.IncludeSourceURL)
	return 0
}
