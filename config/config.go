// Package config loads the TOML configuration of the redao engine.
package config

import (
	"errors"
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/krazyTry/redao-go/bonding"
	"github.com/krazyTry/redao-go/bonding/shared"
)

type Config struct {
	Engine EngineConfig `toml:"engine"`
	Store  StoreConfig  `toml:"store"`
	Log    LogConfig    `toml:"log"`
	API    APIConfig    `toml:"api"`
	Solana SolanaConfig `toml:"solana"`
}

type EngineConfig struct {
	// HalvingSeries is "strict" or "geometric". Under strict the cap never
	// moves past the first threshold, so a token stops issuing bonds once
	// it reaches it.
	HalvingSeries   string   `toml:"halving_series"`
	AllowedCreators []string `toml:"allowed_creators"`
	TrackerCost     uint64   `toml:"tracker_cost"`
}

type StoreConfig struct {
	Path string `toml:"path"`
}

type LogConfig struct {
	Level       string `toml:"level"`
	Development bool   `toml:"development"`
}

type APIConfig struct {
	Listen string `toml:"listen"`
}

// SolanaConfig selects how transfers leave the engine. Without an RPC
// endpoint transfers are printed instead of sent.
type SolanaConfig struct {
	RPCEndpoint string `toml:"rpc_endpoint"`
	ProgramID   string `toml:"program_id"`
	Keypair     string `toml:"keypair"`
	Simulate    bool   `toml:"simulate"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Engine: EngineConfig{HalvingSeries: shared.HalvingSeriesStrict.String()},
		Store:  StoreConfig{Path: "redao.db"},
		Log:    LogConfig{Level: "info"},
		API:    APIConfig{Listen: "127.0.0.1:8645"},
	}
}

// Load reads path over the defaults and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		md, err := toml.DecodeFile(path, cfg)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("unknown config key %q", undecoded[0].String())
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes TOML text over the defaults.
func Parse(text string) (*Config, error) {
	cfg := Default()
	if _, err := toml.Decode(text, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if _, err := shared.ParseHalvingSeries(c.Engine.HalvingSeries); err != nil {
		return fmt.Errorf("engine.halving_series %q: %w", c.Engine.HalvingSeries, err)
	}
	if _, err := c.allowedCreators(); err != nil {
		return err
	}
	if c.Store.Path == "" {
		return errors.New("store.path must be set")
	}
	if c.Solana.ProgramID != "" {
		if _, err := solana.PublicKeyFromBase58(c.Solana.ProgramID); err != nil {
			return fmt.Errorf("solana.program_id: %w", err)
		}
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	return nil
}

func (c *Config) allowedCreators() ([]solana.PublicKey, error) {
	keys := make([]solana.PublicKey, 0, len(c.Engine.AllowedCreators))
	for _, s := range c.Engine.AllowedCreators {
		k, err := solana.PublicKeyFromBase58(s)
		if err != nil {
			return nil, fmt.Errorf("engine.allowed_creators %q: %w", s, err)
		}
		keys = append(keys, k)
	}
	return keys, nil
}

// BondingConfig converts the engine section for bonding.NewEngine.
func (c *Config) BondingConfig() (bonding.Config, error) {
	series, err := shared.ParseHalvingSeries(c.Engine.HalvingSeries)
	if err != nil {
		return bonding.Config{}, err
	}
	creators, err := c.allowedCreators()
	if err != nil {
		return bonding.Config{}, err
	}
	return bonding.Config{
		HalvingSeries:   series,
		AllowedCreators: creators,
		TrackerCost:     c.Engine.TrackerCost,
	}, nil
}

// ProgramID returns the configured program id, zero when unset.
func (c *Config) ProgramID() solana.PublicKey {
	if c.Solana.ProgramID == "" {
		return solana.PublicKey{}
	}
	return solana.MustPublicKeyFromBase58(c.Solana.ProgramID)
}

// Logger builds the zap logger described by the log section.
func (c *Config) Logger() (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(c.Log.Level)
	if err != nil {
		return nil, err
	}
	zc := zap.NewProductionConfig()
	if c.Log.Development {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}
