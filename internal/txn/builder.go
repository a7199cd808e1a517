// Package txn builds and signs send transactions offline.
//
// The signed payload is the Borsh encoding of Send. Borsh has a single
// encoding per value and Send's field order is fixed, so the same logical
// transaction always produces the same bytes and the same signature.
package txn

import (
	"bytes"
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/AlexZinkM/canopy-wallet/internal/crypto"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

const (
	MessageTypeSend = "send"
	MaxMemoLen      = 200
)

var (
	ErrInvalidAmount  = errors.New("invalid amount")
	ErrInvalidAddress = errors.New("invalid address")
)

// Params is the chain context of a send. Height must be fetched by the
// caller right before building; nothing here caches it.
type Params struct {
	Height       uint64
	NetworkID    uint64
	ChainID      uint64
	Time         time.Time
	AllowZeroFee bool
}

// Send is the canonical send payload. Do not reorder fields.
type Send struct {
	MessageType   string
	FromAddress   []byte
	ToAddress     []byte
	Amount        uint64
	Fee           uint64
	Memo          string
	CreatedHeight uint64
	Time          uint64 // unix microseconds
	NetworkID     uint64
	ChainID       uint64
}

// Marshal returns the canonical bytes of the payload.
func (s *Send) Marshal() ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := bin.NewBorshEncoder(buf).Encode(s); err != nil {
		return nil, fmt.Errorf("failed to encode payload: %w", err)
	}
	return buf.Bytes(), nil
}

// UnmarshalSend decodes canonical payload bytes.
func UnmarshalSend(data []byte) (*Send, error) {
	var s Send
	if err := bin.NewBorshDecoder(data).Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to decode payload: %w", err)
	}
	return &s, nil
}

// SignedTransaction is an immutable signed payload ready for submission.
type SignedTransaction struct {
	Tx        Send
	Payload   []byte
	Signature []byte
	PublicKey []byte
}

// Verify checks the signature against the payload and public key.
func (t *SignedTransaction) Verify() bool {
	if len(t.PublicKey) != ed25519.PublicKeySize || len(t.Signature) != ed25519.SignatureSize {
		return false
	}
	var sig solana.Signature
	copy(sig[:], t.Signature)
	return sig.Verify(solana.PublicKeyFromBytes(t.PublicKey), t.Payload)
}

// Hash returns the hex SHA-256 of the payload.
func (t *SignedTransaction) Hash() string {
	sum := sha256.Sum256(t.Payload)
	return hex.EncodeToString(sum[:])
}

// BuildSendTransaction builds and signs a send of amountMicro to recipient.
// privateKey is the sender's 64-byte key; it is only read.
func BuildSendTransaction(privateKey []byte, recipient string, amountMicro uint64, p Params, feeMicro uint64, memo string) (*SignedTransaction, error) {
	if amountMicro == 0 {
		return nil, fmt.Errorf("%w: amount must be positive", ErrInvalidAmount)
	}
	if feeMicro == 0 && !p.AllowZeroFee {
		return nil, fmt.Errorf("%w: fee must be positive", ErrInvalidAmount)
	}
	if amountMicro > math.MaxUint64-feeMicro {
		return nil, fmt.Errorf("%w: amount plus fee overflows", ErrInvalidAmount)
	}
	if len(memo) > MaxMemoLen {
		return nil, fmt.Errorf("memo exceeds %d bytes", MaxMemoLen)
	}

	to, err := DecodeAddress(recipient)
	if err != nil {
		return nil, err
	}

	pub, err := crypto.PublicKeyOf(privateKey)
	if err != nil {
		return nil, err
	}
	from, err := DecodeAddress(crypto.AddressFromPublicKey(pub))
	if err != nil {
		return nil, err
	}

	tx := Send{
		MessageType:   MessageTypeSend,
		FromAddress:   from,
		ToAddress:     to,
		Amount:        amountMicro,
		Fee:           feeMicro,
		Memo:          memo,
		CreatedHeight: p.Height,
		NetworkID:     p.NetworkID,
		ChainID:       p.ChainID,
	}
	if !p.Time.IsZero() {
		tx.Time = uint64(p.Time.UnixMicro())
	}

	payload, err := tx.Marshal()
	if err != nil {
		return nil, err
	}

	sig, err := solana.PrivateKey(privateKey).Sign(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to sign transaction: %w", err)
	}

	return &SignedTransaction{
		Tx:        tx,
		Payload:   payload,
		Signature: sig[:],
		PublicKey: pub,
	}, nil
}

// DecodeAddress parses a hex account address.
func DecodeAddress(address string) ([]byte, error) {
	raw, err := hex.DecodeString(strings.TrimPrefix(strings.ToLower(address), "0x"))
	if err != nil || len(raw) != crypto.AddressLen {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAddress, address)
	}
	return raw, nil
}
