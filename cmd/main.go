package main

import (
	"bufio"
	"context"
	"fmt"
	"guard-lab/access"
	"guard-lab/broadcast"
	"guard-lab/domain"
	"guard-lab/moderation"
	"guard-lab/observability"
	"guard-lab/presence"
	"guard-lab/repositories"
	"guard-lab/runtime"
	"guard-lab/runtime/workers"
	"guard-lab/transport"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run initializes all components, manages the lifecycle, and centralizes
// error reporting, so every deferred cleanup executes before the
// process exits.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	if err := validator.New().Struct(config); err != nil {
		return fmt.Errorf("config validation: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. Database (BadgerDB)
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.INFO))
	if err != nil {
		return fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	// 3. Repositories & Domain Components
	registry := repositories.NewChatRepository(db, log)
	presenceRepo := repositories.NewPresenceRepository(db, log)
	sudoers := repositories.NewSudoRepository(db, log)
	allowlist := repositories.NewAuthorizedRepository(db, log)
	blocked := repositories.NewBlockedRepository(db, log)

	client := transport.NewAPIClient(config.APIBaseURL, config.APITimeout, log)
	control := access.NewControl(domain.UserID(config.OwnerID), sudoers, client, log)
	tracker := presence.NewTracker(presenceRepo, time.Now, log)

	screener, err := buildScreener(config, log)
	if err != nil {
		return err
	}
	gate := moderation.NewGate(allowlist, control, client, client, screener, log)
	engine := broadcast.NewEngine(registry, blocked, control, client, log)
	monitor := observability.NewMonitor(log)

	// 4. Event Source
	stream, closeStream, err := openStream(config, log)
	if err != nil {
		return err
	}
	defer closeStream()

	dispatcher := runtime.NewDispatcher(stream, registry, tracker, gate, control,
		engine, client, monitor, log)

	// 5. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 6. Supervision
	sup := workers.NewSupervisor(log, config.RestartInterval)
	sup.Add(stream, dispatcher,
		observability.NewReporter(monitor, config.MetricInterval, log),
		observability.NewDebugServer(monitor, config.DebugPort, log))

	log.Info("Guard started", "owner", config.OwnerID, "at", time.Now().UTC())
	sup.Run(ctx)

	log.Info("Program stopped cleanly")
	return nil
}

// buildScreener loads the banned word dictionary. No configured path
// means screening stays disabled.
func buildScreener(config Config, log *slog.Logger) (*moderation.Screener, error) {
	if config.BannedWordsPath == "" {
		return nil, nil
	}
	raw, err := os.ReadFile(config.BannedWordsPath)
	if err != nil {
		return nil, fmt.Errorf("banned words file: %w", err)
	}
	var words []string
	for _, line := range strings.Split(string(raw), "\n") {
		if word := strings.TrimSpace(line); word != "" {
			words = append(words, word)
		}
	}
	screener, err := moderation.NewScreener(words, config.ModerationCharReplacement)
	if err != nil {
		return nil, fmt.Errorf("banned words file: %w", err)
	}
	log.Info("Moderation dictionary loaded", "words", len(words))
	return screener, nil
}

// openStream picks the event input: a file path when configured,
// stdin otherwise.
func openStream(config Config, log *slog.Logger) (*transport.StreamSource, func(), error) {
	var reader io.Reader = bufio.NewReader(os.Stdin)
	closer := func() {}
	if config.EventStreamPath != "" {
		file, err := os.Open(config.EventStreamPath)
		if err != nil {
			return nil, nil, fmt.Errorf("event stream file: %w", err)
		}
		reader = file
		closer = func() { _ = file.Close() }
		log.Info("Reading events from file", "path", config.EventStreamPath)
	}
	return transport.NewStreamSource(reader, config.BufferSize, log), closer, nil
}
