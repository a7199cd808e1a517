package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/scrypt"
)

const (
	// scrypt parameters for key custody.
	//
	// N=2^15 (~32MB RAM, ~100ms) keeps a single unlock interactive while
	// every password guess still costs the same memory-hard work.
	// Override through SCRYPT_N when stronger settings are acceptable.
	DefaultScryptN = 1 << 15
	scryptR        = 8
	scryptP        = 1
	scryptKeyLen   = 32
	SaltLen        = 16
	nonceLen       = 12
)

// ErrDecryptionFailed is returned for a wrong password and for corrupted
// ciphertext alike.
var ErrDecryptionFailed = errors.New("decryption failed")

// Sealed is an encrypted private key together with the salt its
// encryption key was derived from. Ciphertext is nonce || AES-GCM output.
type Sealed struct {
	Ciphertext []byte
	Salt       []byte
}

// Codec encrypts and decrypts private keys under a password.
type Codec struct {
	n int
}

// NewCodec creates a codec with the given scrypt cost parameter N.
// N must be a power of two greater than 1.
func NewCodec(n int) (*Codec, error) {
	if n <= 1 || n&(n-1) != 0 {
		return nil, fmt.Errorf("scrypt N must be a power of two > 1, got %d", n)
	}
	return &Codec{n: n}, nil
}

// Encrypt seals privateKey under password with a fresh random salt and nonce.
// password must be []byte for security (caller should zero it after use)
func (c *Codec) Encrypt(privateKey, password []byte) (*Sealed, error) {
	if len(privateKey) == 0 {
		return nil, errors.New("private key is empty")
	}

	salt := make([]byte, SaltLen)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}

	nonce := make([]byte, nonceLen)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	aesGCM, err := c.newGCM(password, salt)
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, nonceLen+len(privateKey)+aesGCM.Overhead())
	out = append(out, nonce...)
	out = aesGCM.Seal(out, nonce, privateKey, nil)

	return &Sealed{Ciphertext: out, Salt: salt}, nil
}

func (c *Codec) newGCM(password, salt []byte) (cipher.AEAD, error) {
	key, err := scrypt.Key(password, salt, c.n, scryptR, scryptP, scryptKeyLen)
	if err != nil {
		return nil, fmt.Errorf("failed to derive key: %w", err)
	}
	defer clear(key)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	aesGCM, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return aesGCM, nil
}
