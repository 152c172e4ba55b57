// Command augment is a terminal client for the image augmentation service.
//
// Without arguments it starts an interactive shell. Otherwise the arguments
// are run as shell commands separated by ";", for example:
//
//	augment 'login me@example.com S3cret!pw; file cat.png; submit; download'
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	augment "github.com/augmentlab/augment-go"
	"github.com/augmentlab/augment-go/blob"
	"github.com/augmentlab/augment-go/internal/config"
	"github.com/augmentlab/augment-go/internal/logging"
	"github.com/augmentlab/augment-go/session"
	"github.com/augmentlab/augment-go/shell"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	baseURL := flag.String("base-url", cfg.BaseURL, "augmentation API base URL")
	store := flag.String("store", cfg.SessionStore, "session store: file, sqlite or memory")
	sessionPath := flag.String("session", "", "session store path (default per store)")
	downloads := flag.String("downloads", cfg.DownloadDir, "directory for downloaded results")
	timeout := flag.Duration("timeout", cfg.HTTPTimeout, "per-request timeout, 0 for none")
	logLevel := flag.String("log-level", cfg.LogLevel, "debug, info, warn or error")
	flag.Parse()

	if *store != cfg.SessionStore {
		cfg.SessionStore = strings.ToLower(*store)
		cfg.SessionPath = ""
	}
	if *sessionPath != "" {
		cfg.SessionPath = *sessionPath
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}

	logger, err := logging.Setup(*logLevel)
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, *baseURL, *downloads, *timeout, logger, flag.Args()); err != nil {
		logger.Error("augment failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, baseURL, downloads string, timeout time.Duration, logger *slog.Logger, args []string) error {
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := st.Close(); err != nil {
			logger.Warn("close session store", "error", err)
		}
	}()
	sess := session.New(st)

	client, err := augment.NewClient(augment.Config{
		BaseURL:   baseURL,
		Tokens:    sess,
		Timeout:   timeout,
		Telemetry: logging.Telemetry(logger),
	})
	if err != nil {
		return err
	}
	logger.Debug("client ready", "base_url", client.BaseURL(), "store", cfg.SessionStore, "session", cfg.SessionPath)

	app := shell.NewApp(shell.Services{
		Auth:      client.Auth,
		Augment:   client.Augment,
		Session:   sess,
		Registry:  blob.NewRegistry(),
		Deliverer: blob.DirSaver{Dir: downloads},
	})
	sh := shell.New(app, logger)

	if len(args) == 0 {
		return sh.Run(ctx, os.Stdin, os.Stdout)
	}
	defer app.Close()
	for _, line := range strings.Split(strings.Join(args, " "), ";") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if err := sh.Exec(ctx, line, os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "error: %s\n", augment.ErrorMessage(err, err.Error()))
			return err
		}
	}
	return nil
}

func openStore(cfg *config.Config) (session.Store, error) {
	switch cfg.SessionStore {
	case config.StoreMemory:
		return session.NewMemoryStore(), nil
	case config.StoreSQLite:
		return session.NewSQLiteStore(cfg.SessionPath)
	default:
		return session.NewFileStore(cfg.SessionPath)
	}
}
