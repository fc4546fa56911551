package solana

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

// ErrNoSignerKey is returned when no loaded key can sign for the transfer
// authority. Vault authorities derived from a program id are PDAs and can
// only be signed for by that program.
var ErrNoSignerKey = errors.New("no key for signer")

// Sender submits a batch of instructions signed by signer.
type Sender interface {
	Send(ctx context.Context, signer solana.PublicKey, instructions []solana.Instruction) (string, error)
}

// DryRunSender records instructions instead of sending them, and prints each
// one to Out when set.
type DryRunSender struct {
	Out io.Writer

	mu      sync.Mutex
	batches [][]solana.Instruction
}

func (d *DryRunSender) Send(_ context.Context, signer solana.PublicKey, instructions []solana.Instruction) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.batches = append(d.batches, instructions)
	if d.Out != nil {
		for _, ix := range instructions {
			data, err := ix.Data()
			if err != nil {
				return "", err
			}
			fmt.Fprintf(d.Out, "program=%s signer=%s data=%x\n", ix.ProgramID(), signer, data)
			for _, acc := range ix.Accounts() {
				fmt.Fprintf(d.Out, "  account=%s writable=%t signer=%t\n", acc.PublicKey, acc.IsWritable, acc.IsSigner)
			}
		}
	}
	return "-", nil
}

// Batches returns the recorded instruction batches.
func (d *DryRunSender) Batches() [][]solana.Instruction {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([][]solana.Instruction(nil), d.batches...)
}

// RPCSender signs with the payer and any known owner key and submits the
// transaction over RPC.
type RPCSender struct {
	rpcClient *rpc.Client
	payer     solana.PrivateKey
	owners    map[solana.PublicKey]solana.PrivateKey
	simulate  bool
}

func NewRPCSender(rpcClient *rpc.Client, payer solana.PrivateKey, simulate bool, owners ...solana.PrivateKey) *RPCSender {
	s := &RPCSender{
		rpcClient: rpcClient,
		payer:     payer,
		owners:    make(map[solana.PublicKey]solana.PrivateKey),
		simulate:  simulate,
	}
	for _, k := range owners {
		s.owners[k.PublicKey()] = k
	}
	return s
}

func (s *RPCSender) Send(ctx context.Context, signer solana.PublicKey, instructions []solana.Instruction) (string, error) {
	if _, ok := s.owners[signer]; !ok && !signer.Equals(s.payer.PublicKey()) {
		return "", fmt.Errorf("%w %s", ErrNoSignerKey, signer)
	}

	latestBlockhash, err := GetLatestBlockhash(ctx, s.rpcClient)
	if err != nil {
		return "", err
	}

	tx, err := solana.NewTransaction(instructions, latestBlockhash, solana.TransactionPayer(s.payer.PublicKey()))
	if err != nil {
		return "", err
	}

	if _, err = tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(s.payer.PublicKey()) {
			return &s.payer
		}
		if k, ok := s.owners[key]; ok {
			return &k
		}
		return nil
	}); err != nil {
		return "", err
	}

	if s.simulate {
		if _, err = s.rpcClient.SimulateTransactionWithOpts(
			ctx,
			tx,
			&rpc.SimulateTransactionOpts{
				SigVerify:  false,
				Commitment: rpc.CommitmentFinalized,
			}); err != nil {
			return "", err
		}
		return "-", nil
	}

	sig, err := s.rpcClient.SendTransactionWithOpts(
		ctx,
		tx,
		rpc.TransactionOpts{
			SkipPreflight:       false,
			PreflightCommitment: rpc.CommitmentFinalized,
		},
	)
	if err != nil {
		return "", err
	}
	return sig.String(), nil
}
