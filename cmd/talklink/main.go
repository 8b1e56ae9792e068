// Copyright 2024-2026 Aiku AI

// Command talklink resolves Nextcloud Talk rooms to shareable call links.
// It wraps the Talk and notifications OCS APIs of a remote server: pending
// federation invitations are accepted best-effort, the room list is matched
// against a human-supplied identifier, and the matched room's token becomes
// a /call/ link on the configured target host.
//
// Besides one-shot resolution it offers a room search, a connection test,
// and an HTTP API server for use by other services.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	flag "github.com/spf13/pflag"
	"go.mau.fi/util/exerrors"

	"github.com/aiku/talklink/pkg/talk"
)

// These are filled at build time with -ldflags.
var (
	Tag       = "unknown"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	flags := flag.NewFlagSet("talklink", flag.ExitOnError)
	configPath := flags.StringP("config", "c", "talklink.yaml", "path to the YAML config file")
	searchBy := flags.String("search-by", "", "room field for exact matching (token, objectId, name, displayName)")
	addr := flags.String("addr", "", "listen address for serve (overrides api_addr)")
	logLevel := flags.String("log-level", "", "zerolog level (overrides log_level)")
	showVersion := flags.Bool("version", false, "print version and exit")
	flags.Usage = func() { usage(flags) }
	exerrors.PanicIfNotNil(flags.Parse(os.Args[1:]))

	if *showVersion {
		fmt.Printf("talklink %s (%s, built %s)\n", Tag, Commit, BuildTime)
		return
	}

	args := flags.Args()
	if len(args) == 0 {
		usage(flags)
		os.Exit(2)
	}

	if args[0] == "init" {
		runInit(*configPath)
		return
	}

	cfg := exerrors.Must(talk.LoadConfig(*configPath))
	if *addr != "" {
		cfg.APIAddr = *addr
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}

	log := newLogger(cfg.LogLevel)
	client := talk.NewClient(cfg, log)
	resolver := talk.NewResolver(cfg, client, log)
	ctx := context.Background()

	switch args[0] {
	case "resolve":
		if len(args) != 2 {
			fmt.Fprintln(os.Stderr, "usage: talklink resolve <identifier> [--search-by field]")
			os.Exit(2)
		}
		field, err := talk.ParseSearchField(*searchBy)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}
		result := resolver.Resolve(ctx, args[1], field)
		printJSON(result)
		if !result.Success {
			os.Exit(1)
		}
	case "search":
		term := ""
		if len(args) > 1 {
			term = args[1]
		}
		rooms, err := resolver.Search(ctx, term)
		if err != nil {
			log.Fatal().Err(err).Msg("Search failed")
		}
		if rooms == nil {
			rooms = []talk.Room{}
		}
		printJSON(rooms)
	case "test":
		result := resolver.TestConnection(ctx)
		printJSON(result)
		if !result.Success {
			os.Exit(1)
		}
	case "serve":
		runServe(cfg, resolver, log)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", args[0])
		usage(flags)
		os.Exit(2)
	}
}

func runInit(path string) {
	if _, err := os.Stat(path); err == nil {
		fmt.Fprintf(os.Stderr, "%s already exists, not overwriting\n", path)
		os.Exit(1)
	}
	exerrors.PanicIfNotNil(os.WriteFile(path, []byte(talk.ExampleConfig), 0o600))
	fmt.Printf("Wrote example config to %s\n", path)
}

func runServe(cfg *talk.Config, resolver *talk.Resolver, log zerolog.Logger) {
	api := talk.NewAPIServer(cfg.APIAddr, resolver, log)

	errCh := make(chan error, 1)
	go func() { errCh <- api.Start() }()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			log.Fatal().Err(err).Msg("API server failed")
		}
	case s := <-sig:
		log.Info().Str("signal", s.String()).Msg("Shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := api.Shutdown(ctx); err != nil {
			log.Error().Err(err).Msg("Shutdown failed")
		}
	}
}

func newLogger(level string) zerolog.Logger {
	parsed, err := zerolog.ParseLevel(level)
	if err != nil || parsed == zerolog.NoLevel {
		parsed = zerolog.InfoLevel
	}
	writer := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	return zerolog.New(writer).Level(parsed).With().Timestamp().Logger()
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	exerrors.PanicIfNotNil(enc.Encode(v))
}

func usage(flags *flag.FlagSet) {
	fmt.Fprintf(os.Stderr, `talklink - resolve Nextcloud Talk rooms to call links

Usage:
  talklink [flags] resolve <identifier>   resolve a room and print the link
  talklink [flags] search [term]          list rooms, optionally filtered
  talklink [flags] test                   verify the remote connection
  talklink [flags] serve                  run the HTTP API server
  talklink [flags] init                   write an example config file

Flags:
%s`, flags.FlagUsages())
}
