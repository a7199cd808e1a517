package crypto

// Decrypt opens ciphertext produced by Encrypt.
// Any failure to authenticate, including malformed input, is ErrDecryptionFailed.
// The returned key belongs to the caller, who should clear it when done.
func (c *Codec) Decrypt(ciphertext, salt, password []byte) ([]byte, error) {
	if len(salt) != SaltLen || len(ciphertext) <= nonceLen {
		return nil, ErrDecryptionFailed
	}

	aesGCM, err := c.newGCM(password, salt)
	if err != nil {
		return nil, err
	}
	if len(ciphertext) < nonceLen+aesGCM.Overhead() {
		return nil, ErrDecryptionFailed
	}

	nonce, sealed := ciphertext[:nonceLen], ciphertext[nonceLen:]
	plaintext, err := aesGCM.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, ErrDecryptionFailed
	}
	return plaintext, nil
}
