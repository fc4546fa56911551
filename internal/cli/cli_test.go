package cli

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/require"

	"github.com/krazyTry/redao-go/bonding/shared"
	redaosol "github.com/krazyTry/redao-go/solana"
)

func tokenFile(creator solana.PublicKey, withAuthority bool) string {
	authority := ""
	if withAuthority {
		authority = fmt.Sprintf(`"vault_authority": %q,`, solana.NewWallet().PublicKey())
	}
	return fmt.Sprintf(`{
		"tracker_id": "tracker",
		"token_id": "redao",
		"creator": %q,
		"base_mint": %q,
		"base_vault": %q,
		%s
		"quote_mint": %q,
		"quote_reserve": %q,
		"quote_surplus": %q,
		"quote_runway": %q,
		"base_decimals": 9,
		"quote_decimals": 9,
		"params": {
			"next_halving": "1000000000000000000",
			"emission_rate": 1000000000000,
			"bonding_cost": 10000000,
			"initial_reserve": "200000000000000000",
			"period_lengths": [1, 7, 14],
			"period_multipliers": [10000, 10330, 10880],
			"treasury_splits": [1000, 3300, 8800],
			"period_enabled": [true, true, true],
			"runway_fee": 10000
		}
	}`,
		creator.String(),
		solana.NewWallet().PublicKey().String(),
		solana.NewWallet().PublicKey().String(),
		authority,
		solana.NewWallet().PublicKey().String(),
		solana.NewWallet().PublicKey().String(),
		solana.NewWallet().PublicKey().String(),
		solana.NewWallet().PublicKey().String(),
	)
}

func TestParseTokenRequest(t *testing.T) {
	creator := solana.NewWallet().PublicKey()
	req, err := parseTokenRequest([]byte(tokenFile(creator, true)), solana.PublicKey{})
	require.NoError(t, err)
	require.Equal(t, "tracker", req.TrackerID)
	require.Equal(t, "redao", req.TokenID)
	require.True(t, req.Creator.Equals(creator))
	require.Equal(t, uint8(9), req.BaseDecimals)
	require.Equal(t, uint64(1_000_000_000_000_000_000), req.Params.NextHalving)
	require.Equal(t, uint64(200_000_000_000_000_000), req.Params.InitialReserve)
	require.Equal(t, []int64{1, 7, 14}, req.Params.PeriodLengths)
	require.Equal(t, []uint32{10_000, 10_330, 10_880}, req.Params.PeriodMultipliers)
	require.Equal(t, []bool{true, true, true}, req.Params.PeriodEnabled)
	require.Equal(t, uint32(10_000), req.Params.RunwayFee)
	require.Zero(t, req.Params.RewardBps)
}

func TestParseTokenRequestDerivesAuthority(t *testing.T) {
	creator := solana.NewWallet().PublicKey()
	_, err := parseTokenRequest([]byte(tokenFile(creator, false)), solana.PublicKey{})
	require.Error(t, err)

	program := solana.NewWallet().PublicKey()
	req, err := parseTokenRequest([]byte(tokenFile(creator, false)), program)
	require.NoError(t, err)
	want, _, err := redaosol.VaultAuthority([][]byte{[]byte("tracker"), []byte("redao")}, program)
	require.NoError(t, err)
	require.True(t, req.VaultAuthority.Equals(want))
}

func TestParseTokenRequestRejects(t *testing.T) {
	_, err := parseTokenRequest([]byte(`{"tracker_id": `), solana.PublicKey{})
	require.ErrorIs(t, err, errInvalidParams)

	_, err = parseTokenRequest([]byte(`{"tracker_id": "t", "creator": "nope"}`), solana.PublicKey{})
	require.ErrorContains(t, err, "creator")

	_, err = parseTokenRequest([]byte(`{"base_decimals": 265}`), solana.PublicKey{})
	require.ErrorContains(t, err, "base_decimals")
}

func TestParseScheduleUpdate(t *testing.T) {
	update, err := parseScheduleUpdate([]byte(`{"bonding_cost": 5, "period_lengths": [60], "period_multipliers": [10000], "treasury_splits": [0], "period_enabled": [true], "launch_date": 42}`))
	require.NoError(t, err)
	require.Equal(t, uint64(5), update.BondingCost)
	require.Equal(t, int64(42), update.LaunchDate)
	require.Equal(t, []int64{60}, update.PeriodLengths)

	nested, err := parseScheduleUpdate([]byte(tokenFile(solana.NewWallet().PublicKey(), true)))
	require.NoError(t, err)
	require.Equal(t, uint64(10_000_000), nested.BondingCost)
	require.Len(t, nested.PeriodEnabled, 3)
}

func TestNewCouponID(t *testing.T) {
	id := newCouponID()
	require.Len(t, id, shared.CouponIDLength)
	_, err := shared.PadCouponID(id)
	require.NoError(t, err)
	require.NotEqual(t, id, newCouponID())
}

func run(t *testing.T, args ...string) string {
	t.Helper()
	out := new(bytes.Buffer)
	rootCmd.SetOut(out)
	rootCmd.SetErr(out)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	require.NoError(t, err, out.String())
	return out.String()
}

func TestCommands(t *testing.T) {
	dir := t.TempDir()
	creator := solana.NewWallet().PublicKey()
	redeemer := solana.NewWallet().PublicKey()

	cfgPath := filepath.Join(dir, "redao.toml")
	cfg := fmt.Sprintf("[engine]\nallowed_creators = [%q]\n\n[store]\npath = %q\n\n[log]\nlevel = \"error\"\n",
		creator.String(), filepath.Join(dir, "ledger.db"))
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0o600))
	paramsPath := filepath.Join(dir, "token.json")
	require.NoError(t, os.WriteFile(paramsPath, []byte(tokenFile(creator, true)), 0o600))

	out := run(t, "tracker", "create", "tracker", "--config", cfgPath, "--caller", creator.String())
	require.Contains(t, out, "tracker tracker created")

	out = run(t, "token", "create", "--config", cfgPath, "--params", paramsPath)
	require.Contains(t, out, `"token_id": "redao"`)

	out = run(t, "quote", "tracker", "redao", "--config", cfgPath, "--amount", "10000000", "--period", "0")
	require.Contains(t, out, `"reward": 1000000000000`)
	require.Contains(t, out, `"reserve_delta": 8910000`)

	out = run(t, "bond", "tracker", "redao", "--config", cfgPath,
		"--caller", redeemer.String(),
		"--source", solana.NewWallet().PublicKey().String(),
		"--amount", "10000000", "--period", "0", "--coupon", "c1")
	require.Contains(t, out, `"id": "c1"`)
	// runway, reserve and surplus transfers are printed by the dry run sender
	require.Equal(t, 3, strings.Count(out, "signer="+redeemer.String()))

	out = run(t, "coupons", "tracker", "redao", redeemer.String(), "--config", cfgPath)
	require.Contains(t, out, `"tokens_to_redeem": 1000000000000`)

	out = run(t, "show", "tracker", "redao", "--config", cfgPath)
	require.Contains(t, out, `"coupons_issued": 1`)
	require.Contains(t, out, `"total_reserve": 8910000`)

	out = run(t, "show", "--config", cfgPath)
	require.Contains(t, out, "tracker/redao\tepoch=0")

	out = run(t, "tracker", "show", "tracker", "--config", cfgPath)
	require.Contains(t, out, "tokens=1")
	require.Contains(t, out, "  1\tredao\n")
}

func TestCodeCommand(t *testing.T) {
	out := run(t, "code", "6014")
	require.Equal(t, "6014 CouponClaimedError: coupon already redeemed\n", out)

	rootCmd.SetArgs([]string{"code", "42"})
	rootCmd.SetOut(new(bytes.Buffer))
	rootCmd.SetErr(new(bytes.Buffer))
	require.Error(t, rootCmd.ExecuteContext(context.Background()))
}
