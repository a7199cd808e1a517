package txn

import (
	"encoding/hex"
	"strings"
	"testing"
	"time"

	"github.com/AlexZinkM/canopy-wallet/internal/crypto"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPhrase = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

var recipient = strings.Repeat("ab", crypto.AddressLen)

func testKey(t *testing.T) *crypto.KeyPair {
	t.Helper()
	kp, err := crypto.DeriveKeyPair(testPhrase)
	require.NoError(t, err)
	return kp
}

func testParams() Params {
	return Params{
		Height:    12345,
		NetworkID: 1,
		ChainID:   1,
		Time:      time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC),
	}
}

func TestBuildSendTransactionEncodesInputs(t *testing.T) {
	kp := testKey(t)

	signed, err := BuildSendTransaction(kp.PrivateKey, recipient, 10_000_000, testParams(), 1000, "rent")
	require.NoError(t, err)
	require.True(t, signed.Verify())

	decoded, err := UnmarshalSend(signed.Payload)
	require.NoError(t, err)
	assert.Equal(t, MessageTypeSend, decoded.MessageType)
	assert.Equal(t, uint64(10_000_000), decoded.Amount)
	assert.Equal(t, uint64(1000), decoded.Fee)
	assert.Equal(t, uint64(12345), decoded.CreatedHeight)
	assert.Equal(t, "rent", decoded.Memo)
	assert.Equal(t, kp.Address, hex.EncodeToString(decoded.FromAddress))
	assert.Equal(t, recipient, hex.EncodeToString(decoded.ToAddress))
	assert.Equal(t, kp.PublicKey, signed.PublicKey)
}

func TestBuildSendTransactionIsReproducible(t *testing.T) {
	kp := testKey(t)

	a, err := BuildSendTransaction(kp.PrivateKey, recipient, 5, testParams(), 1, "")
	require.NoError(t, err)
	b, err := BuildSendTransaction(kp.PrivateKey, recipient, 5, testParams(), 1, "")
	require.NoError(t, err)

	assert.Equal(t, a.Payload, b.Payload)
	assert.Equal(t, a.Signature, b.Signature)
	assert.Equal(t, a.Hash(), b.Hash())
}

func TestTamperedPayloadFailsVerification(t *testing.T) {
	kp := testKey(t)
	signed, err := BuildSendTransaction(kp.PrivateKey, recipient, 42, testParams(), 1, "memo")
	require.NoError(t, err)

	for i := range signed.Payload {
		tampered := *signed
		tampered.Payload = append([]byte(nil), signed.Payload...)
		tampered.Payload[i] ^= 0x01
		assert.False(t, tampered.Verify(), "byte %d", i)
	}

	badSig := *signed
	badSig.Signature = signed.Signature[:10]
	assert.False(t, badSig.Verify())
}

func TestBuildSendTransactionValidation(t *testing.T) {
	kp := testKey(t)
	p := testParams()

	_, err := BuildSendTransaction(kp.PrivateKey, recipient, 0, p, 1, "")
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = BuildSendTransaction(kp.PrivateKey, recipient, 1, p, 0, "")
	assert.ErrorIs(t, err, ErrInvalidAmount)

	p.AllowZeroFee = true
	_, err = BuildSendTransaction(kp.PrivateKey, recipient, 1, p, 0, "")
	assert.NoError(t, err)

	_, err = BuildSendTransaction(kp.PrivateKey, recipient, ^uint64(0), p, 1, "")
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = BuildSendTransaction(kp.PrivateKey, "xyz", 1, p, 1, "")
	assert.ErrorIs(t, err, ErrInvalidAddress)

	_, err = BuildSendTransaction(kp.PrivateKey, recipient, 1, p, 1, strings.Repeat("m", MaxMemoLen+1))
	assert.Error(t, err)

	_, err = BuildSendTransaction(kp.PrivateKey[:32], recipient, 1, p, 1, "")
	assert.Error(t, err)
}

func TestBuildDoesNotMutateKey(t *testing.T) {
	kp := testKey(t)
	before := append([]byte(nil), kp.PrivateKey...)

	_, err := BuildSendTransaction(kp.PrivateKey, recipient, 1, testParams(), 1, "")
	require.NoError(t, err)
	assert.Equal(t, before, []byte(kp.PrivateKey))
}

func TestToSubmissionRequest(t *testing.T) {
	kp := testKey(t)
	signed, err := BuildSendTransaction(kp.PrivateKey, "0x"+strings.ToUpper(recipient), 10_000_000, testParams(), 1000, "hi")
	require.NoError(t, err)

	raw := ToSubmissionRequest(signed)
	assert.Equal(t, "send", raw.Type)
	assert.Equal(t, kp.Address, raw.Msg.FromAddress)
	assert.Equal(t, recipient, raw.Msg.ToAddress)
	assert.Equal(t, uint64(10_000_000), raw.Msg.Amount)
	assert.Equal(t, uint64(1000), raw.Fee)
	assert.Equal(t, uint64(12345), raw.CreatedHeight)
	assert.Equal(t, "hi", raw.Memo)
	assert.Equal(t, uint64(testParams().Time.UnixMicro()), raw.Time)
	assert.Equal(t, hex.EncodeToString(signed.Signature), raw.Signature.Signature)
	assert.Equal(t, hex.EncodeToString(kp.PublicKey), raw.Signature.PublicKey)
}
