package crypto

import (
	"bytes"
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/tyler-smith/go-bip39"
)

const (
	// MnemonicEntropyBits is the entropy size for 24-word mnemonics.
	MnemonicEntropyBits = 256
	// AddressLen is the byte length of an account address.
	AddressLen = 20
)

var ErrInvalidSeedphrase = errors.New("invalid seed phrase")

// KeyPair is the key material derived from a seed phrase.
// PrivateKey is the full 64-byte ed25519 key (seed || public key).
type KeyPair struct {
	PublicKey  []byte
	PrivateKey solana.PrivateKey
	Address    string
}

// GenerateSeedPhrase creates a new 24-word BIP-39 mnemonic.
func GenerateSeedPhrase() (string, error) {
	entropy, err := bip39.NewEntropy(MnemonicEntropyBits)
	if err != nil {
		return "", fmt.Errorf("generate entropy: %w", err)
	}
	mnemonic, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return "", fmt.Errorf("generate mnemonic: %w", err)
	}
	return mnemonic, nil
}

// DeriveKeyPair deterministically derives the key pair and address for a
// BIP-39 seed phrase. The phrase must pass word-list and checksum validation.
func DeriveKeyPair(seedPhrase string) (*KeyPair, error) {
	return DeriveKeyPairBytes([]byte(seedPhrase))
}

// DeriveKeyPairBytes is DeriveKeyPair for a phrase held in a caller-owned
// buffer, which is left unchanged. Runs of whitespace collapse to one space
// and words are lower-cased. Intermediate copies are zeroed; the word-list
// lookup still needs one immutable string of the phrase.
func DeriveKeyPairBytes(seedPhrase []byte) (*KeyPair, error) {
	lower := bytes.ToLower(seedPhrase)
	defer clear(lower)
	norm := bytes.Join(bytes.Fields(lower), []byte(" "))
	defer clear(norm)

	mnemonic := string(norm)
	if !bip39.IsMnemonicValid(mnemonic) {
		return nil, ErrInvalidSeedphrase
	}

	seed, err := bip39.NewSeedWithErrorChecking(mnemonic, "")
	if err != nil {
		return nil, ErrInvalidSeedphrase
	}
	defer clear(seed)

	priv := solana.PrivateKey(ed25519.NewKeyFromSeed(seed[:ed25519.SeedSize]))
	pub := priv.PublicKey()

	return &KeyPair{
		PublicKey:  pub.Bytes(),
		PrivateKey: priv,
		Address:    AddressFromPublicKey(pub.Bytes()),
	}, nil
}

// AddressFromPublicKey returns the hex address of a public key:
// the first 20 bytes of its SHA-256 digest.
func AddressFromPublicKey(pub []byte) string {
	sum := sha256.Sum256(pub)
	return hex.EncodeToString(sum[:AddressLen])
}

// PublicKeyOf returns the public key embedded in a 64-byte private key.
func PublicKeyOf(privateKey []byte) ([]byte, error) {
	if len(privateKey) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("invalid private key length: expected %d bytes", ed25519.PrivateKeySize)
	}
	return solana.PrivateKey(privateKey).PublicKey().Bytes(), nil
}

// Wipe zeroes the key pair's private key.
func (kp *KeyPair) Wipe() {
	clear(kp.PrivateKey)
}
