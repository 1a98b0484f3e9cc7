// Package main is the entry point for the Llamero admin console.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"golang.org/x/term"

	"llamero/config"
	"llamero/internal/api"
	"llamero/internal/authstore"
	"llamero/internal/session"
	"llamero/internal/version"
)

const usage = `Usage: llameroctl <command> [flags]

Commands:
  login      sign in via the identity provider
  logout     clear the stored session
  whoami     show the signed-in operator's profile and claims
  tokens     manage personal access tokens (list|create|revoke)
  backends   show the backend fleet snapshot
  models     list the model catalogue aggregated across backends
  run        run one backend action (pull, push, create, copy, delete, show, ps, version, models)
  console    open the interactive console
`

func main() {
	versionFlag := flag.Bool("version", false, "Print version information")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	if *versionFlag {
		fmt.Println(version.Info())
		os.Exit(0)
	}

	// Load .env if present; environment always wins.
	_ = godotenv.Load()

	setupLogging()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	store := authstore.New(authstore.DefaultDir())
	sess := session.New(store, cfg.Server.URL)
	sess.Hydrate()

	clientCfg := api.DefaultConfig(cfg.Server.URL)
	clientCfg.MaxRetries = cfg.HTTP.MaxRetries
	clientCfg.HTTP.RequestTimeout = cfg.HTTP.RequestTimeout
	clientCfg.HTTP.ResponseHeaderTimeout = cfg.HTTP.ResponseHeaderTimeout
	client := api.New(clientCfg, sess)
	sess.SetProfileFetcher(client)

	app := &cli{sess: sess, client: client}

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	if err := app.run(args[0], args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// setupLogging installs a tint handler on a terminal and JSON otherwise, so
// piped output stays machine-readable.
func setupLogging() {
	level := slog.LevelInfo
	if os.Getenv("LLAMERO_DEBUG") != "" {
		level = slog.LevelDebug
	}
	var handler slog.Handler
	if term.IsTerminal(int(os.Stderr.Fd())) {
		handler = tint.NewHandler(os.Stderr, &tint.Options{Level: level})
	} else {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	}
	slog.SetDefault(slog.New(handler))
}
