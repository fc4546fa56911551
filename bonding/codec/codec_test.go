package codec

import (
	"encoding/hex"
	"errors"
	"testing"

	"github.com/gagliardetto/solana-go"

	"github.com/krazyTry/redao-go/bonding"
	"github.com/krazyTry/redao-go/bonding/shared"
)

func TestDiscriminator(t *testing.T) {
	// anchor account discriminators differ per record name
	seen := map[[8]byte]string{}
	for _, name := range []string{NameTokenState, NameBondCoupon, NameBondVote, NameTokenTrackerBase, NameTokenTracker} {
		d := Discriminator(name)
		if other, ok := seen[d]; ok {
			t.Fatal("Discriminator() collision", name, other)
		}
		seen[d] = name
	}
}

func TestBondCouponLayout(t *testing.T) {
	id, _ := shared.PadCouponID("c1")
	tracker, _ := shared.PadRecordID("tracker")
	token, _ := shared.PadRecordID("token")
	coupon := &bonding.BondCoupon{
		TrackerID:      tracker,
		TokenID:        token,
		Redeemer:       solana.MustPublicKeyFromBase58("11111111111111111111111111111112"),
		ID:             id,
		PeriodIndex:    2,
		TokensToRedeem: 1_000_000,
		RedemptionDate: 1_700_000_000,
		CouponCount:    3,
	}

	data, err := EncodeBondCoupon(coupon)
	if err != nil {
		t.Fatal("EncodeBondCoupon() fail", err)
	}
	// discriminator, two ids, redeemer, coupon id, index, three u64, flag
	if len(data) != 8+20+20+32+10+1+8+8+8+1 {
		t.Fatal("EncodeBondCoupon() size", len(data))
	}
	// coupon id is space padded
	if got := hex.EncodeToString(data[80:90]); got != "63312020202020202020" {
		t.Fatal("EncodeBondCoupon() id", got)
	}

	out, err := DecodeBondCoupon(data)
	if err != nil {
		t.Fatal("DecodeBondCoupon() fail", err)
	}
	if *out != *coupon {
		t.Fatal("DecodeBondCoupon() mismatch", out)
	}

	if _, err := DecodeBondVote(data); !errors.Is(err, ErrDiscriminatorMismatch) {
		t.Fatal("DecodeBondVote() accepted a coupon", err)
	}
}

func TestTokenState(t *testing.T) {
	state := &bonding.TokenState{
		Decimals:            9,
		HalvingSeries:       shared.HalvingSeriesGeometric,
		GenesisEmissionRate: 1_000_000_000_000,
		GenesisSupply:       1_000_000_000_000_000_000,
		NextHalving:         1_000_000_000_000_000_000,
		FeeBps:              shared.FeeBps,
		RewardBps:           shared.DefaultRewardBps,
		EpochCount:          1,
		TotalEmissions:      200_001_000_000_000_000,
		LaunchDate:          -5,
	}
	state.Periods[0] = bonding.Period{Length: 1, Multiplier: 10_000, TreasurySplit: 1_000, Enabled: true}
	state.Periods[9] = bonding.Period{Length: 14, Multiplier: 10_880, TreasurySplit: 8_800, Enabled: true}

	data, err := EncodeTokenState(state)
	if err != nil {
		t.Fatal("EncodeTokenState() fail", err)
	}
	out, err := DecodeTokenState(data)
	if err != nil {
		t.Fatal("DecodeTokenState() fail", err)
	}
	if *out != *state {
		t.Fatal("DecodeTokenState() mismatch", out)
	}

	if _, err := DecodeTokenState(data[:4]); !errors.Is(err, ErrDiscriminatorMismatch) {
		t.Fatal("DecodeTokenState() short", err)
	}
}
