package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gagliardetto/solana-go"

	"github.com/krazyTry/redao-go/bonding/shared"
)

const sample = `
[engine]
halving_series = "geometric"
allowed_creators = ["%s"]
tracker_cost = 250

[store]
path = "/var/lib/redao/ledger.db"

[log]
level = "debug"
development = true

[api]
listen = ":9000"
`

func TestParse(t *testing.T) {
	creator := solana.NewWallet().PublicKey()
	cfg, err := Parse(strings.Replace(sample, "%s", creator.String(), 1))
	if err != nil {
		t.Fatal("Parse() fail", err)
	}
	if cfg.Engine.HalvingSeries != "geometric" || cfg.Engine.TrackerCost != 250 {
		t.Fatal("Parse() engine", cfg.Engine)
	}
	if cfg.Store.Path != "/var/lib/redao/ledger.db" || cfg.API.Listen != ":9000" {
		t.Fatal("Parse() store/api", cfg.Store, cfg.API)
	}
	if cfg.Solana.RPCEndpoint != "" || !cfg.ProgramID().IsZero() {
		t.Fatal("Parse() solana defaults", cfg.Solana)
	}

	bc, err := cfg.BondingConfig()
	if err != nil {
		t.Fatal("BondingConfig() fail", err)
	}
	if bc.HalvingSeries != shared.HalvingSeriesGeometric {
		t.Fatal("BondingConfig() series", bc.HalvingSeries)
	}
	if len(bc.AllowedCreators) != 1 || !bc.AllowedCreators[0].Equals(creator) {
		t.Fatal("BondingConfig() creators", bc.AllowedCreators)
	}

	logger, err := cfg.Logger()
	if err != nil {
		t.Fatal("Logger() fail", err)
	}
	if !logger.Core().Enabled(-1) {
		t.Fatal("Logger() debug level not enabled")
	}
}

func TestDefault(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal("Load() fail", err)
	}
	bc, err := cfg.BondingConfig()
	if err != nil {
		t.Fatal("BondingConfig() fail", err)
	}
	if bc.HalvingSeries != shared.HalvingSeriesStrict || len(bc.AllowedCreators) != 0 {
		t.Fatal("BondingConfig() defaults", bc)
	}
	if cfg.Store.Path != "redao.db" {
		t.Fatal("Load() store path", cfg.Store.Path)
	}
}

func TestParseRejects(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"series", "[engine]\nhalving_series = \"linear\"\n"},
		{"creator", "[engine]\nallowed_creators = [\"not-a-key\"]\n"},
		{"store", "[store]\npath = \"\"\n"},
		{"program", "[solana]\nprogram_id = \"xyz\"\n"},
		{"level", "[log]\nlevel = \"loud\"\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse(tt.text); err == nil {
				t.Fatal("Parse() accepted", tt.text)
			}
		})
	}

	_, err := Parse("[engine]\nhalving_series = \"linear\"\n")
	if !errors.Is(err, shared.ErrHalvingSeries) {
		t.Fatal("Parse() series error", err)
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "redao.toml")
	if err := os.WriteFile(good, []byte("[store]\npath = \"x.db\"\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(good)
	if err != nil {
		t.Fatal("Load() fail", err)
	}
	if cfg.Store.Path != "x.db" || cfg.Log.Level != "info" {
		t.Fatal("Load() merged defaults", cfg)
	}

	unknown := filepath.Join(dir, "unknown.toml")
	if err := os.WriteFile(unknown, []byte("[store]\npaht = \"x.db\"\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(unknown); err == nil || !strings.Contains(err.Error(), "store.paht") {
		t.Fatal("Load() unknown key", err)
	}

	if _, err := Load(filepath.Join(dir, "missing.toml")); err == nil {
		t.Fatal("Load() missing file accepted")
	}
}
