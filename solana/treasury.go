// Package solana turns treasury movements into SPL token instructions.
package solana

import (
	"context"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/token"
	"go.uber.org/zap"

	"github.com/krazyTry/redao-go/bonding"
)

var (
	ErrAuthorityMismatch = errors.New("authority does not match its derivation seeds")
	ErrZeroTransfer      = errors.New("transfer amount is zero")
	ErrMixedAuthorities  = errors.New("transfers of one batch must share an authority")
)

// InstructionTreasury builds one SPL TransferChecked per movement and hands
// the movements of one operation to a Sender as a single transaction. With a
// non-zero program id, vault authorities are checked against their seeds
// before anything is sent.
type InstructionTreasury struct {
	sender    Sender
	programID solana.PublicKey
	logger    *zap.Logger
}

func NewInstructionTreasury(sender Sender, programID solana.PublicKey, logger *zap.Logger) *InstructionTreasury {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InstructionTreasury{sender: sender, programID: programID, logger: logger}
}

func (t *InstructionTreasury) Execute(ctx context.Context, transfers []bonding.TransferRequest) error {
	if len(transfers) == 0 {
		return nil
	}
	authority := transfers[0].Authority
	instructions := make([]solana.Instruction, 0, len(transfers))
	for _, tr := range transfers {
		if !tr.Authority.Equals(authority) {
			return ErrMixedAuthorities
		}
		ix, err := t.instruction(tr)
		if err != nil {
			return err
		}
		instructions = append(instructions, ix)
	}

	sig, err := t.sender.Send(ctx, authority, instructions)
	if err != nil {
		return fmt.Errorf("send %d transfers signed by %s: %w", len(instructions), authority, err)
	}
	for _, tr := range transfers {
		t.logger.Debug("transfer sent",
			zap.Stringer("kind", tr.Kind),
			zap.Stringer("from", tr.From),
			zap.Stringer("to", tr.To),
			zap.Uint64("amount", tr.Amount),
			zap.String("signature", sig),
		)
	}
	return nil
}

func (t *InstructionTreasury) instruction(tr bonding.TransferRequest) (solana.Instruction, error) {
	if tr.Amount == 0 {
		return nil, ErrZeroTransfer
	}
	if tr.Seeds != nil && !t.programID.IsZero() {
		derived, _, err := VaultAuthority(tr.Seeds, t.programID)
		if err != nil {
			return nil, fmt.Errorf("derive vault authority: %w", err)
		}
		if !derived.Equals(tr.Authority) {
			return nil, ErrAuthorityMismatch
		}
	}
	return token.NewTransferCheckedInstruction(
		tr.Amount,
		tr.Decimals,
		tr.From,
		tr.Mint,
		tr.To,
		tr.Authority,
		[]solana.PublicKey{},
	).Build(), nil
}
