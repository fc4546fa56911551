// Package codec lays ledger records out as Borsh, each prefixed with the
// 8 byte account discriminator of its record name.
package codec

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"

	binary "github.com/gagliardetto/binary"

	"github.com/krazyTry/redao-go/bonding"
)

const (
	NameTokenState       = "TokenState"
	NameBondCoupon       = "BondCoupon"
	NameBondVote         = "BondVote"
	NameTokenTrackerBase = "TokenTrackerBase"
	NameTokenTracker     = "TokenTracker"
)

var ErrDiscriminatorMismatch = errors.New("account discriminator mismatch")

// Discriminator returns sha256("account:" + name)[:8].
func Discriminator(name string) [8]byte {
	hash := sha256.Sum256([]byte("account:" + name))
	var out [8]byte
	copy(out[:], hash[:8])
	return out
}

// Encode writes v as the record name.
func Encode(name string, v any) ([]byte, error) {
	buf := new(bytes.Buffer)
	disc := Discriminator(name)
	buf.Write(disc[:])
	if err := binary.NewBorshEncoder(buf).Encode(v); err != nil {
		return nil, fmt.Errorf("encode %s: %w", name, err)
	}
	return buf.Bytes(), nil
}

// Decode reads the record name from data into v.
func Decode(name string, data []byte, v any) error {
	disc := Discriminator(name)
	if len(data) < len(disc) || !bytes.Equal(data[:len(disc)], disc[:]) {
		return fmt.Errorf("decode %s: %w", name, ErrDiscriminatorMismatch)
	}
	if err := binary.NewBorshDecoder(data[len(disc):]).Decode(v); err != nil {
		return fmt.Errorf("decode %s: %w", name, err)
	}
	return nil
}

func EncodeTokenState(s *bonding.TokenState) ([]byte, error) {
	return Encode(NameTokenState, s)
}

func DecodeTokenState(data []byte) (*bonding.TokenState, error) {
	out := new(bonding.TokenState)
	if err := Decode(NameTokenState, data, out); err != nil {
		return nil, err
	}
	return out, nil
}

func EncodeBondCoupon(c *bonding.BondCoupon) ([]byte, error) {
	return Encode(NameBondCoupon, c)
}

func DecodeBondCoupon(data []byte) (*bonding.BondCoupon, error) {
	out := new(bonding.BondCoupon)
	if err := Decode(NameBondCoupon, data, out); err != nil {
		return nil, err
	}
	return out, nil
}

func EncodeBondVote(v *bonding.BondVote) ([]byte, error) {
	return Encode(NameBondVote, v)
}

func DecodeBondVote(data []byte) (*bonding.BondVote, error) {
	out := new(bonding.BondVote)
	if err := Decode(NameBondVote, data, out); err != nil {
		return nil, err
	}
	return out, nil
}

func EncodeTokenTrackerBase(t *bonding.TokenTrackerBase) ([]byte, error) {
	return Encode(NameTokenTrackerBase, t)
}

func DecodeTokenTrackerBase(data []byte) (*bonding.TokenTrackerBase, error) {
	out := new(bonding.TokenTrackerBase)
	if err := Decode(NameTokenTrackerBase, data, out); err != nil {
		return nil, err
	}
	return out, nil
}

func EncodeTokenTracker(t *bonding.TokenTracker) ([]byte, error) {
	return Encode(NameTokenTracker, t)
}

func DecodeTokenTracker(data []byte) (*bonding.TokenTracker, error) {
	out := new(bonding.TokenTracker)
	if err := Decode(NameTokenTracker, data, out); err != nil {
		return nil, err
	}
	return out, nil
}
