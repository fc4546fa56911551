// Package cli implements the redao command line.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/gagliardetto/solana-go"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	redao "github.com/krazyTry/redao-go"
	"github.com/krazyTry/redao-go/bonding"
	"github.com/krazyTry/redao-go/bonding/shared"
	"github.com/krazyTry/redao-go/config"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "redao",
	Short: "Bond quote tokens for time locked base token emissions",
	Long: `redao runs the bonding ledger of one or more tokens: a halving emission
schedule, a floor price backed reserve pool and time locked coupons.
Transfers are printed as SPL instructions unless solana.rpc_endpoint is set.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to a TOML configuration file")
	rootCmd.PersistentFlags().String("caller", "", "Public key acting in the command (defaults to the configured keypair)")
}

// Execute runs the root command until ctx is done.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func openApp(cmd *cobra.Command) (*redao.App, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	return redao.Open(cfg, cmd.OutOrStdout())
}

// caller resolves --caller, falling back to the payer of the app.
func caller(cmd *cobra.Command, app *redao.App) (solana.PublicKey, error) {
	s, _ := cmd.Flags().GetString("caller")
	if s == "" {
		if signer := app.Signer(); !signer.IsZero() {
			return signer, nil
		}
		return solana.PublicKey{}, fmt.Errorf("--caller is required without a keypair")
	}
	return solana.PublicKeyFromBase58(s)
}

func keyFlag(cmd *cobra.Command, name string) (solana.PublicKey, error) {
	s, _ := cmd.Flags().GetString(name)
	if s == "" {
		return solana.PublicKey{}, fmt.Errorf("--%s is required", name)
	}
	k, err := solana.PublicKeyFromBase58(s)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("--%s: %w", name, err)
	}
	return k, nil
}

func stateKey(args []string) bonding.StateKey {
	return bonding.StateKey{TrackerID: args[0], TokenID: args[1]}
}

// newCouponID returns the first CouponIDLength hex characters of a random uuid.
func newCouponID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:shared.CouponIDLength]
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
