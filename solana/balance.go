package solana

import (
	"context"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/tidwall/gjson"
)

// MintBalances returns the SPL token holdings of owner keyed by mint. Empty
// accounts are skipped.
func MintBalances(ctx context.Context, rpcClient *rpc.Client, owner solana.PublicKey) (map[solana.PublicKey]uint64, error) {
	resp, err := rpcClient.GetTokenAccountsByOwner(ctx, owner, &rpc.GetTokenAccountsConfig{
		ProgramId: &solana.TokenProgramID,
	}, &rpc.GetTokenAccountsOpts{
		Encoding:   solana.EncodingJSONParsed,
		Commitment: rpc.CommitmentFinalized,
	})
	if err != nil {
		return nil, err
	}

	balances := make(map[solana.PublicKey]uint64)
	for _, v := range resp.Value {
		mint, amount, ok := parseTokenAccount(v.Account.Data.GetRawJSON())
		if !ok {
			continue
		}
		balances[mint] += amount
	}
	return balances, nil
}

/*
	{
		"parsed": {
			"info": {
				"mint": "Es9vMFrzaCERmJfrF4H2FYD4KCoNkY11McCe8BenwNYB",
				"owner": "5HfLhj117ucm2FoqjfcSeZMf91CuJbzxZ9BeRRpZWN6m",
				"tokenAmount": {"amount": "0", "decimals": 6}
			},
			"type": "account"
		},
		"program": "spl-token"
	}
*/
func parseTokenAccount(raw []byte) (solana.PublicKey, uint64, bool) {
	mint := gjson.GetBytes(raw, "parsed.info.mint").String()
	amount := gjson.GetBytes(raw, "parsed.info.tokenAmount.amount").Uint()
	if amount == 0 || mint == "" {
		return solana.PublicKey{}, 0, false
	}
	key, err := solana.PublicKeyFromBase58(mint)
	if err != nil {
		return solana.PublicKey{}, 0, false
	}
	return key, amount, true
}
