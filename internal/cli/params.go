package cli

import (
	"errors"
	"fmt"
	"math"

	"github.com/gagliardetto/solana-go"
	"github.com/tidwall/gjson"

	"github.com/krazyTry/redao-go/bonding"
	redaosol "github.com/krazyTry/redao-go/solana"
)

var errInvalidParams = errors.New("token params are not valid JSON")

/*
	{
		"tracker_id": "tracker",
		"token_id": "redao",
		"creator": "<pubkey>",
		"base_mint": "<pubkey>",
		"base_vault": "<pubkey>",
		"vault_authority": "<pubkey, derived from program_id when omitted>",
		"quote_mint": "<pubkey>",
		"quote_reserve": "<pubkey>",
		"quote_surplus": "<pubkey>",
		"quote_runway": "<pubkey>",
		"base_decimals": 9,
		"quote_decimals": 9,
		"params": {
			"next_halving": "1000000000000000000",
			"emission_rate": 1000000000000,
			"bonding_cost": 10000000,
			"initial_reserve": "200000000000000000",
			"period_lengths": [86400, 604800],
			"period_multipliers": [10000, 10330],
			"treasury_splits": [1000, 3300],
			"period_enabled": [true, true],
			"updates_allowed": false,
			"voting_enabled_date": 0,
			"launch_date": 0,
			"runway_fee": 10000,
			"reward_bps": 10000
		}
	}
*/

// parseTokenRequest reads a token launch file. Large amounts may be given as
// strings. programID is used to derive a missing vault authority.
func parseTokenRequest(data []byte, programID solana.PublicKey) (*bonding.CreateTokenRequest, error) {
	if !gjson.ValidBytes(data) {
		return nil, errInvalidParams
	}
	doc := gjson.ParseBytes(data)

	req := &bonding.CreateTokenRequest{
		TrackerID: doc.Get("tracker_id").String(),
		TokenID:   doc.Get("token_id").String(),
	}
	for path, dst := range map[string]*uint8{"base_decimals": &req.BaseDecimals, "quote_decimals": &req.QuoteDecimals} {
		v := doc.Get(path).Uint()
		if v > math.MaxUint8 {
			return nil, fmt.Errorf("%s out of range", path)
		}
		*dst = uint8(v)
	}
	keys := []struct {
		path string
		dst  *solana.PublicKey
	}{
		{"creator", &req.Creator},
		{"base_mint", &req.BaseMint},
		{"base_vault", &req.BaseVault},
		{"quote_mint", &req.QuoteMint},
		{"quote_reserve", &req.QuoteReserve},
		{"quote_surplus", &req.QuoteSurplus},
		{"quote_runway", &req.QuoteRunway},
	}
	for _, k := range keys {
		v, err := pubkeyAt(doc, k.path)
		if err != nil {
			return nil, err
		}
		*k.dst = v
	}

	if doc.Get("vault_authority").Exists() {
		v, err := pubkeyAt(doc, "vault_authority")
		if err != nil {
			return nil, err
		}
		req.VaultAuthority = v
	} else {
		if programID.IsZero() {
			return nil, errors.New("vault_authority is required without solana.program_id")
		}
		v, _, err := redaosol.VaultAuthority([][]byte{[]byte(req.TrackerID), []byte(req.TokenID)}, programID)
		if err != nil {
			return nil, fmt.Errorf("derive vault_authority: %w", err)
		}
		req.VaultAuthority = v
	}

	p := doc.Get("params")
	req.Params = bonding.TokenParams{
		NextHalving:       p.Get("next_halving").Uint(),
		EmissionRate:      p.Get("emission_rate").Uint(),
		BondingCost:       p.Get("bonding_cost").Uint(),
		InitialReserve:    p.Get("initial_reserve").Uint(),
		UpdatesAllowed:    p.Get("updates_allowed").Bool(),
		VotingEnabledDate: p.Get("voting_enabled_date").Int(),
		LaunchDate:        p.Get("launch_date").Int(),
		RunwayFee:         uint32(p.Get("runway_fee").Uint()),
		RewardBps:         uint32(p.Get("reward_bps").Uint()),
	}
	req.Params.PeriodLengths, req.Params.PeriodMultipliers, req.Params.TreasurySplits, req.Params.PeriodEnabled = periods(p)
	return req, nil
}

// parseScheduleUpdate reads the "params" object of a token file, or the top
// level object when there is none.
func parseScheduleUpdate(data []byte) (*bonding.ScheduleUpdate, error) {
	if !gjson.ValidBytes(data) {
		return nil, errInvalidParams
	}
	p := gjson.ParseBytes(data)
	if nested := p.Get("params"); nested.IsObject() {
		p = nested
	}
	update := &bonding.ScheduleUpdate{
		BondingCost:       p.Get("bonding_cost").Uint(),
		VotingEnabledDate: p.Get("voting_enabled_date").Int(),
		LaunchDate:        p.Get("launch_date").Int(),
		RunwayFee:         uint32(p.Get("runway_fee").Uint()),
	}
	update.PeriodLengths, update.PeriodMultipliers, update.TreasurySplits, update.PeriodEnabled = periods(p)
	return update, nil
}

func periods(p gjson.Result) (lengths []int64, multipliers, splits []uint32, enabled []bool) {
	for _, v := range p.Get("period_lengths").Array() {
		lengths = append(lengths, v.Int())
	}
	for _, v := range p.Get("period_multipliers").Array() {
		multipliers = append(multipliers, uint32(v.Uint()))
	}
	for _, v := range p.Get("treasury_splits").Array() {
		splits = append(splits, uint32(v.Uint()))
	}
	for _, v := range p.Get("period_enabled").Array() {
		enabled = append(enabled, v.Bool())
	}
	return lengths, multipliers, splits, enabled
}

func pubkeyAt(doc gjson.Result, path string) (solana.PublicKey, error) {
	v := doc.Get(path)
	if !v.Exists() {
		return solana.PublicKey{}, fmt.Errorf("%s is required", path)
	}
	k, err := solana.PublicKeyFromBase58(v.String())
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("%s: %w", path, err)
	}
	return k, nil
}
