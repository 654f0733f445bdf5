package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/doroshop/dsadmin/internal/config"
	"github.com/doroshop/dsadmin/internal/database"
	"github.com/doroshop/dsadmin/internal/database/repository"
	"github.com/doroshop/dsadmin/internal/devserver"
	"github.com/doroshop/dsadmin/internal/logging"
)

const memoryDB = ":memory:"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	dc := cfg.Devserver

	if len(os.Args) > 1 && os.Args[1] == "token" {
		if err := printToken(dc, os.Args[2:]); err != nil {
			log.Fatalf("token: %v", err)
		}
		return
	}

	fs := flag.NewFlagSet("dsadmin-dev", flag.ExitOnError)
	addr := fs.String("addr", dc.Addr, "listen address")
	dbPath := fs.String("db", dc.DBPath, "sqlite database path, or :memory:")
	seedPath := fs.String("seed", dc.SeedPath, "YAML fixture; the built-in one when empty")
	secret := fs.String("secret", dc.Token, "HS256 secret for admin tokens; empty disables auth")
	failProcess := fs.Bool("fail-process", dc.FailProcess, "make every refund payout fail")
	level := fs.String("log-level", cfg.Log.Level, "log level")
	_ = fs.Parse(os.Args[1:])

	logger := logging.Console(*level)

	var repo repository.Documents
	if *dbPath == memoryDB {
		repo = repository.NewMemoryDocuments()
	} else {
		db, err := database.OpenMigrated(*dbPath)
		if err != nil {
			log.Fatalf("open db: %v", err)
		}
		defer db.Close()
		repo = repository.NewDocumentRepo(db)
	}

	seed, err := loadSeed(*seedPath)
	if err != nil {
		log.Fatalf("seed: %v", err)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := seed.Apply(ctx, repo, database.Now()); err != nil {
		log.Fatalf("seed: %v", err)
	}

	if *secret == "" {
		logger.Warn().Msg("no token secret configured; admin routes are open")
	}
	srv := devserver.New(repo, logger, devserver.Options{Secret: *secret, FailProcess: *failProcess})
	hs := &http.Server{
		Addr:              *addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = hs.Shutdown(shutdown)
	}()

	logger.Info().Str("addr", *addr).Str("db", *dbPath).Msg("dev backend listening")
	if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("serve: %v", err)
	}
	logger.Info().Msg("dev backend stopped")
}

func loadSeed(path string) (devserver.Seed, error) {
	if path == "" {
		return devserver.DefaultSeed()
	}
	return devserver.LoadSeed(path)
}

// printToken mints an admin token for the configured secret.
func printToken(dc config.DevserverConfig, args []string) error {
	fs := flag.NewFlagSet("token", flag.ContinueOnError)
	secret := fs.String("secret", dc.Token, "HS256 secret")
	email := fs.String("email", "admin@example.test", "email claim")
	ttl := fs.Duration("ttl", 24*time.Hour, "token lifetime")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *secret == "" {
		return errors.New("no secret; set devserver.token or pass -secret")
	}
	tok, err := devserver.MintToken(*secret, uuid.NewString(), *email, *ttl, time.Now())
	if err != nil {
		return err
	}
	fmt.Println(tok)
	return nil
}
