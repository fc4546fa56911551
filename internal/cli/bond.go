package cli

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"

	redao "github.com/krazyTry/redao-go"
	"github.com/krazyTry/redao-go/api"
	"github.com/krazyTry/redao-go/bonding"
	redaosol "github.com/krazyTry/redao-go/solana"
)

func init() {
	rootCmd.AddCommand(bondCmd)
	rootCmd.AddCommand(quoteCmd)
	rootCmd.AddCommand(redeemCmd)
	rootCmd.AddCommand(topupCmd)

	for _, c := range []*cobra.Command{bondCmd, quoteCmd} {
		c.Flags().Uint64("amount", 0, "Quote amount in base units")
		c.Flags().Uint8("period", 0, "Bonding period index")
		_ = c.MarkFlagRequired("amount")
	}
	bondCmd.Flags().String("source", "", "Quote token account paying the bond (defaults to the caller's associated account)")
	bondCmd.Flags().String("coupon", "", "Coupon id (random when empty)")
	bondCmd.Flags().String("vote", "", "Vote counter credited with the bond")

	redeemCmd.Flags().String("destination", "", "Base token account receiving the coupon tokens (defaults to the caller's associated account)")

	topupCmd.Flags().Uint64("amount", 0, "Base amount to deposit")
	topupCmd.Flags().String("source", "", "Base token account of the creator (defaults to the caller's associated account)")
	_ = topupCmd.MarkFlagRequired("amount")
}

var bondCmd = &cobra.Command{
	Use:   "bond TRACKER_ID TOKEN_ID",
	Short: "Bond quote tokens for a time locked coupon",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		req := bonding.BondRequest{}
		req.Amount, _ = cmd.Flags().GetUint64("amount")
		req.PeriodIndex, _ = cmd.Flags().GetUint8("period")
		if req.Redeemer, err = caller(cmd, app); err != nil {
			return err
		}
		key := stateKey(args)
		if req.Source, err = accountFlag(cmd, app, key, "source", req.Redeemer, quoteMint); err != nil {
			return err
		}
		if req.CouponID, _ = cmd.Flags().GetString("coupon"); req.CouponID == "" {
			req.CouponID = newCouponID()
		}
		voteID, _ := cmd.Flags().GetString("vote")

		res, err := app.Engine.Bond(cmd.Context(), key, req, voteID)
		if err != nil {
			return err
		}
		return printJSON(cmd, struct {
			Coupon *api.CouponView `json:"coupon"`
			Quote  *api.QuoteView  `json:"bond"`
		}{api.NewCouponView(res.Coupon), api.NewQuoteView(res)})
	},
}

var quoteCmd = &cobra.Command{
	Use:   "quote TRACKER_ID TOKEN_ID",
	Short: "Preview a bond without committing it",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		req := bonding.BondRequest{}
		req.Amount, _ = cmd.Flags().GetUint64("amount")
		req.PeriodIndex, _ = cmd.Flags().GetUint8("period")
		res, err := app.Engine.QuoteBond(cmd.Context(), stateKey(args), req)
		if err != nil {
			return err
		}
		return printJSON(cmd, api.NewQuoteView(res))
	},
}

var redeemCmd = &cobra.Command{
	Use:   "redeem TRACKER_ID TOKEN_ID COUPON_ID",
	Short: "Release a matured coupon",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		redeemer, err := caller(cmd, app)
		if err != nil {
			return err
		}
		dest, err := accountFlag(cmd, app, stateKey(args), "destination", redeemer, baseMint)
		if err != nil {
			return err
		}
		key := bonding.CouponKey{State: stateKey(args), Redeemer: redeemer, ID: args[2]}
		res, err := app.Engine.Redeem(cmd.Context(), key, bonding.RedeemRequest{Caller: redeemer, Destination: dest})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "coupon %s redeemed, %d tokens to %s\n", key, res.Coupon.TokensToRedeem, dest)
		return nil
	},
}

var topupCmd = &cobra.Command{
	Use:   "topup TRACKER_ID TOKEN_ID",
	Short: "Deposit base tokens into the vault of a token",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		who, err := caller(cmd, app)
		if err != nil {
			return err
		}
		source, err := accountFlag(cmd, app, stateKey(args), "source", who, baseMint)
		if err != nil {
			return err
		}
		amount, _ := cmd.Flags().GetUint64("amount")
		res, err := app.Engine.Topup(cmd.Context(), stateKey(args), who, source, amount)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "vault topped up, total %d\n", res.State.TotalTopup)
		return nil
	},
}

func quoteMint(s *bonding.TokenState) solana.PublicKey { return s.QuoteMintAddress }

func baseMint(s *bonding.TokenState) solana.PublicKey { return s.BaseMintAddress }

// accountFlag reads a token account flag, defaulting to the associated token
// account of owner for the mint picked from the token state.
func accountFlag(cmd *cobra.Command, app *redao.App, key bonding.StateKey, name string, owner solana.PublicKey, mint func(*bonding.TokenState) solana.PublicKey) (solana.PublicKey, error) {
	if s, _ := cmd.Flags().GetString(name); s != "" {
		return keyFlag(cmd, name)
	}
	state, err := app.Engine.State(cmd.Context(), key)
	if err != nil {
		return solana.PublicKey{}, err
	}
	return redaosol.AssociatedTokenAddress(owner, mint(state))
}
