package wallet

import (
	"context"
	"encoding/base64"
	"encoding/hex"
	"fmt"

	"github.com/AlexZinkM/canopy-wallet/internal/crypto"
	"github.com/AlexZinkM/canopy-wallet/internal/model"

	"github.com/skip2/go-qrcode"
)

const qrSize = 256

// ImportSeedPhrase derives the key pair for seedPhrase, encrypts the private
// key under password and registers the ciphertext with the backend.
// Importing the same phrase again yields the same address.
// seedPhrase and password are []byte for security (caller should zero them after use)
func (s *Store) ImportSeedPhrase(ctx context.Context, seedPhrase, password []byte, label string) (*Record, error) {
	kp, err := crypto.DeriveKeyPairBytes(seedPhrase)
	if err != nil {
		return nil, err
	}
	// Always clear private key from memory
	defer kp.Wipe()

	sealed, err := s.codec.Encrypt(kp.PrivateKey, password)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt private key: %w", err)
	}

	entry := model.KeyEntry{
		KeyAddress:  kp.Address,
		PublicKey:   hex.EncodeToString(kp.PublicKey),
		Encrypted:   hex.EncodeToString(sealed.Ciphertext),
		Salt:        hex.EncodeToString(sealed.Salt),
		KeyNickname: label,
	}
	if err := s.register(ctx, entry); err != nil {
		return nil, err
	}

	rec := recordFromEntry(kp.Address, entry)
	s.mu.Lock()
	if old, ok := s.records[rec.Address]; ok {
		rec.Active = old.Active
	}
	s.records[rec.Address] = rec
	out := *rec
	s.mu.Unlock()

	s.log.Info().Str("address", rec.Address).Msg("wallet imported")
	return &out, nil
}

// ChangePassword re-encrypts the wallet's private key under newPassword with
// a fresh salt and nonce. The lock state of the wallet is unchanged.
func (s *Store) ChangePassword(ctx context.Context, id string, oldPassword, newPassword []byte) error {
	id = normalizeID(id)
	w, err := s.Wallet(id)
	if err != nil {
		return err
	}

	key, err := s.decryptRecord(w.Record, oldPassword)
	if err != nil {
		return err
	}
	defer clear(key)

	sealed, err := s.codec.Encrypt(key, newPassword)
	if err != nil {
		return fmt.Errorf("failed to encrypt private key: %w", err)
	}

	entry := model.KeyEntry{
		KeyAddress:  w.Address,
		PublicKey:   w.PublicKey,
		Encrypted:   hex.EncodeToString(sealed.Ciphertext),
		Salt:        hex.EncodeToString(sealed.Salt),
		KeyNickname: w.Label,
	}
	if err := s.register(ctx, entry); err != nil {
		return err
	}

	s.mu.Lock()
	if rec, ok := s.records[id]; ok {
		rec.Encrypted = entry.Encrypted
		rec.Salt = entry.Salt
	}
	s.mu.Unlock()

	s.log.Info().Str("address", id).Msg("wallet re-encrypted")
	return nil
}

func (s *Store) register(ctx context.Context, entry model.KeyEntry) error {
	resp, err := s.api.ImportWallets(ctx, model.ImportRequest{entry.KeyAddress: entry})
	if err != nil {
		return fmt.Errorf("failed to import wallet: %w", err)
	}
	res, ok := resp.Result(entry.KeyAddress)
	if !ok {
		return fmt.Errorf("import of %s: no result from server", entry.KeyAddress)
	}
	if !res.Success {
		return fmt.Errorf("import of %s rejected: %s", entry.KeyAddress, res.Error)
	}
	return nil
}

// AddressQR returns a PNG QR code of address in base64.
func AddressQR(address string) (string, error) {
	qr, err := qrcode.New(address, qrcode.Medium)
	if err != nil {
		return "", fmt.Errorf("failed to create QR code: %w", err)
	}

	png, err := qr.PNG(qrSize)
	if err != nil {
		return "", fmt.Errorf("failed to generate PNG: %w", err)
	}

	return base64.StdEncoding.EncodeToString(png), nil
}

// WriteAddressQR writes a PNG QR code of address to path.
func WriteAddressQR(address, path string) error {
	if err := qrcode.WriteFile(address, qrcode.Medium, qrSize, path); err != nil {
		return fmt.Errorf("failed to write QR code: %w", err)
	}
	return nil
}
