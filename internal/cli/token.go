package cli

import (
	"fmt"
	"os"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"

	"github.com/krazyTry/redao-go/api"
	"github.com/krazyTry/redao-go/bonding"
)

func init() {
	rootCmd.AddCommand(trackerCmd)
	trackerCmd.AddCommand(trackerCreateCmd)
	trackerCmd.AddCommand(trackerShowCmd)
	trackerCreateCmd.Flags().String("receive-mint", "", "Mint the tracker collects launch costs in")
	trackerCreateCmd.Flags().String("receive-account", "", "Token account receiving launch costs")

	rootCmd.AddCommand(tokenCmd)
	tokenCmd.AddCommand(tokenCreateCmd)
	tokenCmd.AddCommand(tokenUpdateCmd)
	tokenCreateCmd.Flags().StringP("params", "p", "", "Path to the token launch JSON file")
	tokenUpdateCmd.Flags().StringP("params", "p", "", "Path to a JSON file with the new schedule")
	_ = tokenCreateCmd.MarkFlagRequired("params")
	_ = tokenUpdateCmd.MarkFlagRequired("params")

	rootCmd.AddCommand(voteCmd)
	voteCmd.AddCommand(voteCreateCmd)
}

var trackerCmd = &cobra.Command{
	Use:   "tracker",
	Short: "Manage token trackers",
}

var trackerCreateCmd = &cobra.Command{
	Use:   "create TRACKER_ID",
	Short: "Create a token tracker owned by the caller",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		creator, err := caller(cmd, app)
		if err != nil {
			return err
		}
		req := &bonding.CreateTrackerRequest{ID: args[0], Creator: creator}
		if req.ReceiveMint, err = optionalKey(cmd, "receive-mint"); err != nil {
			return err
		}
		if req.ReceiveTokenAccount, err = optionalKey(cmd, "receive-account"); err != nil {
			return err
		}
		tracker, err := app.Engine.CreateTracker(cmd.Context(), req)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "tracker %s created, owner %s\n", tracker.Key(), tracker.AuthWallet)
		return nil
	},
}

var trackerShowCmd = &cobra.Command{
	Use:   "show TRACKER_ID",
	Short: "Show a tracker and the tokens launched under it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		tracker, err := app.DB.LoadTracker(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("tracker %s: %w", args[0], err)
		}
		entries, err := app.DB.ListTokenTrackers(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "tracker %s owner=%s tokens=%d cost=%d\n", tracker.Key(), tracker.AuthWallet, tracker.Index, tracker.Cost)
		for _, e := range entries {
			fmt.Fprintf(w, "  %d\t%s\n", e.Index, e.StateKey().TokenID)
		}
		return nil
	},
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Launch and update bonded tokens",
}

var tokenCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Launch a token from a JSON parameter file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("params")
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}

		app, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		req, err := parseTokenRequest(data, app.Config.ProgramID())
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		state, err := app.Engine.CreateToken(cmd.Context(), req)
		if err != nil {
			return err
		}
		return printJSON(cmd, api.NewTokenView(state))
	},
}

var tokenUpdateCmd = &cobra.Command{
	Use:   "update TRACKER_ID TOKEN_ID",
	Short: "Replace the bonding schedule of a token that allows updates",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("params")
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		update, err := parseScheduleUpdate(data)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}

		app, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		who, err := caller(cmd, app)
		if err != nil {
			return err
		}
		state, err := app.Engine.UpdateSchedule(cmd.Context(), stateKey(args), who, update)
		if err != nil {
			return err
		}
		return printJSON(cmd, api.NewTokenView(state))
	},
}

var voteCmd = &cobra.Command{
	Use:   "vote",
	Short: "Manage bond vote counters",
}

var voteCreateCmd = &cobra.Command{
	Use:   "create TRACKER_ID TOKEN_ID VOTE_ID",
	Short: "Open a vote counter on a token",
	Args:  cobra.ExactArgs(3),
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
		vote, err := app.Engine.CreateVote(cmd.Context(), stateKey(args), who, args[2])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "vote %s created\n", vote.Key())
		return nil
	},
}

func optionalKey(cmd *cobra.Command, name string) (solana.PublicKey, error) {
	if s, _ := cmd.Flags().GetString(name); s == "" {
		return solana.PublicKey{}, nil
	}
	return keyFlag(cmd, name)
}
