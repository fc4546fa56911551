package cli

import (
	"fmt"
	"strconv"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"

	"github.com/krazyTry/redao-go/api"
	"github.com/krazyTry/redao-go/bonding"
	"github.com/krazyTry/redao-go/bonding/shared"
	redaosol "github.com/krazyTry/redao-go/solana"
)

func init() {
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(couponsCmd)
	rootCmd.AddCommand(codeCmd)
	showCmd.Flags().Bool("onchain", false, "Also read the base vault balance over RPC")
}

var showCmd = &cobra.Command{
	Use:   "show [TRACKER_ID TOKEN_ID]",
	Short: "Show the backing summary of a token, or list all tokens",
	Args:  cobra.RangeArgs(0, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		if len(args) == 0 {
			states, err := app.Engine.States(cmd.Context())
			if err != nil {
				return err
			}
			for _, st := range states {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\tepoch=%d\temissions=%d\tcoupons=%d\n",
					st.Key(), st.EpochCount, st.TotalEmissions, st.BondCouponCount)
			}
			return nil
		}
		if len(args) != 2 {
			return fmt.Errorf("show takes a tracker and a token id")
		}

		state, err := app.Engine.State(cmd.Context(), stateKey(args))
		if err != nil {
			return err
		}
		summary, err := bonding.Summarize(state)
		if err != nil {
			return err
		}
		out := struct {
			Token   *api.TokenView   `json:"token"`
			Summary *api.SummaryView `json:"summary"`
			OnChain *uint64          `json:"onchain_vault_balance,omitempty"`
		}{Token: api.NewTokenView(state), Summary: api.NewSummaryView(summary, state.Decimals)}

		if onchain, _ := cmd.Flags().GetBool("onchain"); onchain {
			if app.RPC == nil {
				return fmt.Errorf("--onchain needs solana.rpc_endpoint")
			}
			balances, err := redaosol.MintBalances(cmd.Context(), app.RPC, state.VaultAuthority)
			if err != nil {
				return err
			}
			balance := balances[state.BaseMintAddress]
			out.OnChain = &balance
		}
		return printJSON(cmd, out)
	},
}

var couponsCmd = &cobra.Command{
	Use:   "coupons TRACKER_ID TOKEN_ID [REDEEMER]",
	Short: "List the coupons of a redeemer",
	Args:  cobra.RangeArgs(2, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		var redeemer solana.PublicKey
		if len(args) == 3 {
			if redeemer, err = solana.PublicKeyFromBase58(args[2]); err != nil {
				return fmt.Errorf("redeemer: %w", err)
			}
		} else if redeemer, err = caller(cmd, app); err != nil {
			return err
		}
		coupons, err := app.Engine.Coupons(cmd.Context(), stateKey(args), redeemer)
		if err != nil {
			return err
		}
		views := make([]*api.CouponView, 0, len(coupons))
		for _, c := range coupons {
			views = append(views, api.NewCouponView(c))
		}
		return printJSON(cmd, views)
	},
}

var codeCmd = &cobra.Command{
	Use:   "code ERROR_CODE",
	Short: "Explain a rejection code",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		code, err := strconv.ParseUint(args[0], 10, 32)
		if err != nil {
			return fmt.Errorf("error code: %w", err)
		}
		e := shared.ErrorFromCode(uint32(code))
		if e == nil {
			return fmt.Errorf("unknown error code %d", code)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d %s: %s\n", e.Code, e.Name, e.Msg)
		return nil
	},
}
