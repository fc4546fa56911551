// Package redao wires the bonding engine to its ledger store and treasury.
//
// Example:
//
// cfg, _ := config.Load("redao.toml")
//
// app, _ := redao.Open(cfg, os.Stdout)
//
// defer app.Close()
//
// app.Engine.Bond(ctx, key, bonding.BondRequest{Amount: 10_000_000, Redeemer: wallet, Source: ata, CouponID: id}, "")
package redao

import (
	"fmt"
	"io"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/krazyTry/redao-go/bonding"
	"github.com/krazyTry/redao-go/config"
	redaosol "github.com/krazyTry/redao-go/solana"
	"github.com/krazyTry/redao-go/store/sqlite"
)

// App is an opened ledger with its engine.
type App struct {
	Config   *config.Config
	Logger   *zap.Logger
	DB       *sqlite.DB
	Engine   *bonding.Engine
	Registry *prometheus.Registry

	// RPC and Payer are set when transfers go on chain.
	RPC   *rpc.Client
	Payer solana.PrivateKey
}

// Open builds the App described by cfg. Without an RPC endpoint transfers
// are printed to out instead of sent.
func Open(cfg *config.Config, out io.Writer) (*App, error) {
	logger, err := cfg.Logger()
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	bc, err := cfg.BondingConfig()
	if err != nil {
		return nil, err
	}

	app := &App{Config: cfg, Logger: logger, Registry: prometheus.NewRegistry()}
	sender, err := app.sender(out)
	if err != nil {
		return nil, err
	}

	if app.DB, err = sqlite.Open(cfg.Store.Path); err != nil {
		return nil, err
	}
	app.Engine = bonding.NewEngine(
		bc,
		app.DB,
		redaosol.NewInstructionTreasury(sender, cfg.ProgramID(), logger),
		bonding.WithLogger(logger),
		bonding.WithMetrics(bonding.NewMetrics(app.Registry)),
	)
	return app, nil
}

func (a *App) sender(out io.Writer) (redaosol.Sender, error) {
	sc := a.Config.Solana
	if sc.RPCEndpoint == "" {
		return &redaosol.DryRunSender{Out: out}, nil
	}
	if sc.Keypair == "" {
		return nil, fmt.Errorf("solana.keypair is required with rpc_endpoint")
	}
	payer, err := solana.PrivateKeyFromSolanaKeygenFile(sc.Keypair)
	if err != nil {
		return nil, fmt.Errorf("read keypair %s: %w", sc.Keypair, err)
	}
	a.RPC = rpc.New(sc.RPCEndpoint)
	a.Payer = payer
	if !a.Config.ProgramID().IsZero() {
		a.Logger.Warn("vault authorities are program addresses, redemptions need the program to sign",
			zap.Stringer("program", a.Config.ProgramID()))
	}
	return redaosol.NewRPCSender(a.RPC, payer, sc.Simulate, payer), nil
}

// Signer returns the payer public key, zero in dry run.
func (a *App) Signer() solana.PublicKey {
	if a.Payer == nil {
		return solana.PublicKey{}
	}
	return a.Payer.PublicKey()
}

func (a *App) Close() error {
	_ = a.Logger.Sync()
	return a.DB.Close()
}
