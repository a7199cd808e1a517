// Command canopy-wallet manages Canopy wallets from the terminal.
// Usage: go run ./cmd/canopy-wallet <command> [options]
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/AlexZinkM/canopy-wallet/internal/client"
	"github.com/AlexZinkM/canopy-wallet/internal/config"
	"github.com/AlexZinkM/canopy-wallet/internal/crypto"
	"github.com/AlexZinkM/canopy-wallet/internal/logger"
	"github.com/AlexZinkM/canopy-wallet/internal/wallet"

	"github.com/jessevdk/go-flags"
)

// app is the state shared by all commands, built once per run.
type app struct {
	cfg      *config.Config
	client   *client.Client
	store    *wallet.Store
	snapshot wallet.FileSnapshot
}

var ctx context.Context

func main() {
	os.Exit(mainInt())
}

func mainInt() int {
	var cancel context.CancelFunc
	ctx, cancel = signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	parser := flags.NewParser(&struct{}{}, flags.Default)
	registerCommands(parser)

	if _, err := parser.Parse(); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			return 0
		}
		return 1
	}
	return 0
}

func setup() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger.Init(cfg.LogLevel)

	c, err := client.New(client.Config{
		BaseURL:       cfg.APIURL,
		Timeout:       cfg.APITimeout,
		RetryAttempts: cfg.RetryAttempts,
		BaseDelay:     cfg.RetryBaseDelay,
		MaxDelay:      cfg.RetryMaxDelay,
		RateLimit:     cfg.APIRateLimit,
		AuthToken:     cfg.APIToken,
	}, client.WithLogger(logger.Component("client")))
	if err != nil {
		return nil, fmt.Errorf("failed to create API client: %w", err)
	}

	codec, err := crypto.NewCodec(cfg.ScryptN)
	if err != nil {
		return nil, err
	}

	store := wallet.New(c, codec, wallet.Options{
		NetworkID:       cfg.NetworkID,
		ChainID:         cfg.ChainID,
		AllowZeroFee:    cfg.AllowZeroFee,
		PollMaxAttempts: cfg.PollMaxAttempts,
		PollInterval:    cfg.PollInterval,
		SendCooldown:    cfg.SendCooldown,
		Logger:          logger.Component("wallet"),
	})

	snap := wallet.FileSnapshot{Path: cfg.StateFilePath}
	if err := store.LoadFrom(snap); err != nil {
		logger.GetLogger().Warn().Err(err).Str("path", cfg.StateFilePath).Msg("ignoring unreadable state file")
	}

	return &app{cfg: cfg, client: c, store: store, snapshot: snap}, nil
}

// withApp builds the shared state, runs fn and persists the result.
func withApp(fn func(a *app) error) error {
	a, err := setup()
	if err != nil {
		return err
	}
	defer a.close()
	return fn(a)
}

// close locks every wallet and writes the state file.
func (a *app) close() {
	a.store.LockAllWallets()
	if err := a.store.SaveTo(a.snapshot); err != nil {
		logger.GetLogger().Error().Err(err).Msg("failed to save state")
	}
	a.client.Close()
}

// syncWallets refreshes the listing from the backend, falling back to the
// state file when the backend is unreachable.
func (a *app) syncWallets() []wallet.Wallet {
	wallets, err := a.store.FetchWallets(ctx)
	if err != nil {
		logger.GetLogger().Warn().Err(err).Msg("using cached wallet list")
		return a.store.Wallets()
	}
	return wallets
}

// readSecret prompts without echo. Caller must zero the returned slice.
func readSecret(prompt string) ([]byte, error) {
	return config.PromptForPassword(prompt)
}
