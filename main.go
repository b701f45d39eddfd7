package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/danielhkuo/pok-er/auth"
	"github.com/danielhkuo/pok-er/client"
	"github.com/danielhkuo/pok-er/cliparse"
	"github.com/danielhkuo/pok-er/db"
	"github.com/danielhkuo/pok-er/middleware"
	"github.com/danielhkuo/pok-er/relay"
	"github.com/danielhkuo/pok-er/router"
)

func main() {
	if err := cliparse.LoadEnvFile(".env"); err != nil {
		slog.Error("Error loading .env", "error", err)
		os.Exit(1)
	}

	args := os.Args[1:]
	mode := "serve"
	if len(args) > 0 && (args[0] == "serve" || args[0] == "client") {
		mode, args = args[0], args[1:]
	}

	var err error
	switch mode {
	case "client":
		err = runClient(args)
	default:
		err = runServer(args)
	}
	if err != nil {
		slog.Error("Exiting", "mode", mode, "error", err)
		os.Exit(1)
	}
}

func runServer(args []string) error {
	// Parse configuration
	cfg, err := cliparse.ParseFlags(args)
	if err != nil {
		return fmt.Errorf("error parsing flags: %w", err)
	}

	issuer, err := auth.NewIssuer(cfg.APIKey, cfg.APISecret, cfg.TokenTTL)
	if err != nil {
		return err
	}

	// Connect to the database
	dbConn, err := db.Open(cfg.DatabaseType, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer dbConn.Close()

	// Create schema (tables)
	if err := db.CreateSchema(dbConn); err != nil {
		return fmt.Errorf("schema creation failed: %w", err)
	}
	slog.Info("Database schema ready", "type", cfg.DatabaseType)

	// No connection survives a restart
	store := db.NewRoomStore(dbConn)
	closed, err := store.CloseOpenSessions(context.Background(), time.Now())
	if err != nil {
		return err
	}
	if closed > 0 {
		slog.Info("Closed stale sessions", "count", closed)
	}

	hub := relay.NewHub(store)
	mux := router.NewRouter(dbConn, hub, issuer, cfg)

	server := http.Server{
		Handler: middleware.CORS(mux),
		Addr:    ":" + strconv.Itoa(cfg.Port),
	}

	// signal.Notify requires the channel to be buffered
	ctrlc := make(chan os.Signal, 1)
	signal.Notify(ctrlc, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-ctrlc
		hub.Close()
		server.Close()
	}()

	slog.Info("Listening", "port", cfg.Port, "public_url", cfg.PublicURL)
	err = server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return err
	}
	slog.Info("Server closed")
	return nil
}

func runClient(args []string) error {
	cfg, err := cliparse.ParseClientFlags(args)
	if err != nil {
		return fmt.Errorf("error parsing flags: %w", err)
	}

	app, err := client.New(cfg, os.Stdout, client.Deps{})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return app.Run(ctx, os.Stdin)
}
