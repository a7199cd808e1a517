package crypto

import (
	"bytes"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testN      = 1 << 10
	testPhrase = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"
)

func newTestCodec(t *testing.T) *Codec {
	t.Helper()
	c, err := NewCodec(testN)
	require.NoError(t, err)
	return c
}

func TestDeriveKeyPairDeterministic(t *testing.T) {
	a, err := DeriveKeyPair(testPhrase)
	require.NoError(t, err)
	b, err := DeriveKeyPair("  ABANDON abandon abandon abandon abandon abandon\tabandon abandon abandon abandon abandon about ")
	require.NoError(t, err)

	assert.Equal(t, a.PublicKey, b.PublicKey)
	assert.Equal(t, a.Address, b.Address)
	assert.Equal(t, []byte(a.PrivateKey), []byte(b.PrivateKey))
	assert.Len(t, a.PrivateKey, 64)
	assert.Len(t, a.Address, AddressLen*2)

	pub, err := PublicKeyOf(a.PrivateKey)
	require.NoError(t, err)
	assert.Equal(t, a.PublicKey, pub)
	assert.Equal(t, AddressFromPublicKey(pub), a.Address)
}

func TestDeriveKeyPairBytesLeavesInputIntact(t *testing.T) {
	want, err := DeriveKeyPair(testPhrase)
	require.NoError(t, err)

	phrase := []byte(" Abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon ABOUT\n")
	orig := bytes.Clone(phrase)
	got, err := DeriveKeyPairBytes(phrase)
	require.NoError(t, err)

	assert.Equal(t, want.Address, got.Address)
	assert.Equal(t, []byte(want.PrivateKey), []byte(got.PrivateKey))
	assert.Equal(t, orig, phrase)

	_, err = DeriveKeyPairBytes([]byte("abandon abandon abandon"))
	assert.ErrorIs(t, err, ErrInvalidSeedphrase)
}

func TestDeriveKeyPairRejectsInvalidPhrase(t *testing.T) {
	cases := []string{
		"",
		"abandon abandon abandon",
		"abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon",
		"notaword abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about",
	}
	for _, phrase := range cases {
		_, err := DeriveKeyPair(phrase)
		assert.ErrorIs(t, err, ErrInvalidSeedphrase, "phrase %q", phrase)
	}
}

func TestGenerateSeedPhrase(t *testing.T) {
	phrase, err := GenerateSeedPhrase()
	require.NoError(t, err)
	assert.Len(t, bytes.Fields([]byte(phrase)), 24)

	kp, err := DeriveKeyPair(phrase)
	require.NoError(t, err)
	assert.NotEmpty(t, kp.Address)
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	c := newTestCodec(t)
	kp, err := DeriveKeyPair(testPhrase)
	require.NoError(t, err)

	sealed, err := c.Encrypt(kp.PrivateKey, []byte("correct horse"))
	require.NoError(t, err)
	assert.Len(t, sealed.Salt, SaltLen)
	assert.False(t, bytes.Contains(sealed.Ciphertext, kp.PrivateKey))

	plain, err := c.Decrypt(sealed.Ciphertext, sealed.Salt, []byte("correct horse"))
	require.NoError(t, err)
	assert.Equal(t, []byte(kp.PrivateKey), plain)
}

func TestEncryptUsesFreshSalt(t *testing.T) {
	c := newTestCodec(t)
	key := bytes.Repeat([]byte{7}, 64)

	a, err := c.Encrypt(key, []byte("pw"))
	require.NoError(t, err)
	b, err := c.Encrypt(key, []byte("pw"))
	require.NoError(t, err)

	assert.NotEqual(t, a.Salt, b.Salt)
	assert.NotEqual(t, a.Ciphertext, b.Ciphertext)
}

func TestDecryptFailuresAreIndistinguishable(t *testing.T) {
	c := newTestCodec(t)
	key := bytes.Repeat([]byte{9}, 64)
	sealed, err := c.Encrypt(key, []byte("right"))
	require.NoError(t, err)

	_, err = c.Decrypt(sealed.Ciphertext, sealed.Salt, []byte("wrong"))
	assert.ErrorIs(t, err, ErrDecryptionFailed)

	corrupt := append([]byte(nil), sealed.Ciphertext...)
	corrupt[len(corrupt)-1] ^= 0xff
	_, err = c.Decrypt(corrupt, sealed.Salt, []byte("right"))
	assert.ErrorIs(t, err, ErrDecryptionFailed)

	_, err = c.Decrypt(sealed.Ciphertext[:5], sealed.Salt, []byte("right"))
	assert.ErrorIs(t, err, ErrDecryptionFailed)

	_, err = c.Decrypt(sealed.Ciphertext, sealed.Salt[:4], []byte("right"))
	assert.ErrorIs(t, err, ErrDecryptionFailed)

	otherSalt, _ := hex.DecodeString("00112233445566778899aabbccddeeff")
	_, err = c.Decrypt(sealed.Ciphertext, otherSalt, []byte("right"))
	assert.ErrorIs(t, err, ErrDecryptionFailed)
}

func TestNewCodecRejectsBadN(t *testing.T) {
	for _, n := range []int{0, 1, 3, 1000} {
		_, err := NewCodec(n)
		assert.Error(t, err, "n=%d", n)
	}
}
