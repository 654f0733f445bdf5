package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/doroshop/dsadmin/internal/api"
	"github.com/doroshop/dsadmin/internal/config"
	"github.com/doroshop/dsadmin/internal/console"
	"github.com/doroshop/dsadmin/internal/logging"
	"github.com/doroshop/dsadmin/internal/notify"
	"github.com/doroshop/dsadmin/internal/secrets"
	"github.com/doroshop/dsadmin/internal/tui"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "login":
			err = login(cfg, os.Args[2:])
		case "logout":
			err = logout(cfg)
		case "whoami":
			err = whoami(cfg)
		default:
			err = fmt.Errorf("unknown command %q (want login, logout or whoami)", os.Args[1])
		}
		if err != nil {
			log.Fatalf("%s: %v", os.Args[1], err)
		}
		return
	}

	if err := runConsole(cfg); err != nil {
		fmt.Printf("error: %v\n", err)
		os.Exit(1)
	}
}

func runConsole(cfg config.Config) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	lf, err := logging.Open(cfg.Log.Path, cfg.Log.Level)
	if err != nil {
		return err
	}
	defer lf.Close()
	logger := lf.Logger

	token := resolveToken(cfg)
	if token == "" {
		fmt.Fprintln(os.Stderr, "warn: no admin token configured; run `dsadmin login` first")
	} else if info, ok, err := secrets.Inspect(token); err != nil {
		logger.Warn().Err(err).Msg("admin token is not a readable JWT")
	} else if ok && info.Expired(time.Now()) {
		fmt.Fprintf(os.Stderr, "warn: admin token expired at %s\n", info.ExpiresAt.Format(time.RFC3339))
	}

	client := newClient(cfg, token, logger)
	status := tui.NewStatusLine()
	c := console.New(console.FromAPI(api.NewResources(client)), notify.Logged(logger, status), logger)
	if cfg.UI.CurrencySymbol != "" {
		c.Refunds.Currency = cfg.UI.CurrencySymbol
	}

	logger.Info().Str("backend", client.BaseURL()).Msg("console started")
	p := tea.NewProgram(tui.New(ctx, cfg.UI, c, status), tea.WithAltScreen())
	_, err = p.Run()
	return err
}

func newClient(cfg config.Config, token string, logger zerolog.Logger) *api.Client {
	opts := api.Options{
		BaseURL: cfg.Backend.BaseURL,
		HTTP:    &http.Client{Timeout: cfg.Backend.Timeout},
		Logger:  logger,
	}
	if token != "" {
		opts.Tokens = api.StaticToken(token)
	}
	if cfg.Backend.RatePerSecond > 0 {
		opts.Limiter = rate.NewLimiter(rate.Limit(cfg.Backend.RatePerSecond), max(1, cfg.Backend.Burst))
	}
	return api.NewClient(opts)
}

// resolveToken prefers the env var, then the stored token for the backend
// host, then the plain config value.
func resolveToken(cfg config.Config) string {
	if env := strings.TrimSpace(cfg.Backend.TokenEnv); env != "" {
		if t := strings.TrimSpace(os.Getenv(env)); t != "" {
			return t
		}
	}
	if store, err := secrets.Open(""); err == nil {
		if t, err := store.FetchToken(cfg.Backend.BaseURL); err == nil {
			return t
		}
	}
	return cfg.Backend.ResolveToken()
}

func login(cfg config.Config, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	baseURL := fs.String("base-url", cfg.Backend.BaseURL, "admin API root")
	if err := fs.Parse(args); err != nil {
		return err
	}

	token := strings.TrimSpace(fs.Arg(0))
	if token == "" {
		fmt.Fprint(os.Stderr, "admin token: ")
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			return fmt.Errorf("read token: %w", err)
		}
		token = strings.TrimSpace(line)
	}
	if token == "" {
		return errors.New("empty token")
	}
	info, ok, err := secrets.Inspect(token)
	if err != nil {
		return err
	}
	if ok && info.Expired(time.Now()) {
		return fmt.Errorf("token expired at %s", info.ExpiresAt.Format(time.RFC3339))
	}

	store, err := secrets.Open("")
	if err != nil {
		return fmt.Errorf("open secrets: %w", err)
	}
	if err := store.StoreToken(*baseURL, token); err != nil {
		return fmt.Errorf("store token: %w", err)
	}
	cfg.Backend.BaseURL = strings.TrimRight(*baseURL, "/")
	if err := config.Save(cfg); err != nil {
		return err
	}
	fmt.Printf("Saved token for %s\n", secrets.HostKey(*baseURL))
	return nil
}

func logout(cfg config.Config) error {
	store, err := secrets.Open("")
	if err != nil {
		return fmt.Errorf("open secrets: %w", err)
	}
	err = store.DeleteToken(cfg.Backend.BaseURL)
	if errors.Is(err, secrets.ErrNotFound) {
		fmt.Printf("No token stored for %s\n", secrets.HostKey(cfg.Backend.BaseURL))
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Printf("Removed token for %s\n", secrets.HostKey(cfg.Backend.BaseURL))
	return nil
}

func whoami(cfg config.Config) error {
	token := resolveToken(cfg)
	if token == "" {
		return errors.New("no admin token configured")
	}
	info, ok, err := secrets.Inspect(token)
	if err != nil {
		return err
	}
	fmt.Printf("backend: %s\n", cfg.Backend.BaseURL)
	if !ok {
		fmt.Println("token:   opaque")
		return nil
	}
	fmt.Printf("subject: %s\n", info.Subject)
	if info.Email != "" {
		fmt.Printf("email:   %s\n", info.Email)
	}
	if info.Role != "" {
		fmt.Printf("role:    %s\n", info.Role)
	}
	if !info.ExpiresAt.IsZero() {
		state := "valid"
		if info.Expired(time.Now()) {
			state = "expired"
		}
		fmt.Printf("expires: %s (%s)\n", info.ExpiresAt.Format(time.RFC3339), state)
	}
	return nil
}
