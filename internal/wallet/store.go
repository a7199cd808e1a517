// Package wallet holds the wallet records, the unlock/lock state machine
// and the send workflow.
//
// Records carry ciphertext only. A decrypted private key exists only in the
// store's secrets map while the wallet is unlocked; every path back to
// locked removes and zeroes it under the store's lock.
package wallet

import (
	"context"
	"encoding/hex"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/AlexZinkM/canopy-wallet/internal/crypto"
	"github.com/AlexZinkM/canopy-wallet/internal/model"

	"github.com/rs/zerolog"
)

var (
	ErrWalletLocked      = errors.New("wallet is locked")
	ErrWalletNotFound    = errors.New("wallet not found")
	ErrSubmissionTimeout = errors.New("transaction still pending after polling")
	ErrCooldown          = errors.New("send cooldown active")
)

// API is the part of the backend the store talks to.
type API interface {
	ExportWallets(ctx context.Context) (*model.ExportResponse, error)
	ImportWallets(ctx context.Context, entries model.ImportRequest) (*model.ImportResponse, error)
	UpdateWallet(ctx context.Context, id string, upd model.WalletUpdate) error
	DeleteWallet(ctx context.Context, id string) error
	Height(ctx context.Context) (uint64, error)
	SendRawTransaction(ctx context.Context, raw *model.RawTransaction) (*model.SendRawResponse, error)
	TransactionStatus(ctx context.Context, hash string) (*model.StatusResponse, error)
	AccountBalance(ctx context.Context, address string) (uint64, error)
	TransactionHistory(ctx context.Context, q model.HistoryQuery) (*model.HistoryResponse, error)
}

// Record is a wallet as known to the custody backend. Its ID is the address.
type Record struct {
	Address   string `json:"address"`
	PublicKey string `json:"publicKey"`
	Encrypted string `json:"encrypted"`
	Salt      string `json:"salt"`
	Label     string `json:"label"`
	Active    bool   `json:"active"`
}

// Wallet is a record together with its lock state.
type Wallet struct {
	Record
	Unlocked bool
}

// Options configures a Store.
type Options struct {
	NetworkID    uint64
	ChainID      uint64
	AllowZeroFee bool

	PollMaxAttempts int
	PollInterval    time.Duration
	SendCooldown    time.Duration

	Logger *zerolog.Logger
	Now    func() time.Time
	Sleep  func(ctx context.Context, d time.Duration) error
}

// Store is the wallet lifecycle store. It is safe for concurrent use.
type Store struct {
	api   API
	codec *crypto.Codec
	opts  Options
	log   *zerolog.Logger

	mu       sync.RWMutex
	records  map[string]*Record
	secrets  map[string][]byte
	balances map[string]uint64
	history  map[string][]model.Transaction
	pending  map[string]*PendingSubmission

	sendMu   sync.Mutex
	lastSend time.Time
}

// New creates an empty store.
func New(api API, codec *crypto.Codec, opts Options) *Store {
	if opts.PollMaxAttempts < 1 {
		opts.PollMaxAttempts = 30
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = 2 * time.Second
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Sleep == nil {
		opts.Sleep = sleepContext
	}
	log := opts.Logger
	if log == nil {
		nop := zerolog.Nop()
		log = &nop
	}

	return &Store{
		api:      api,
		codec:    codec,
		opts:     opts,
		log:      log,
		records:  make(map[string]*Record),
		secrets:  make(map[string][]byte),
		balances: make(map[string]uint64),
		history:  make(map[string][]model.Transaction),
		pending:  make(map[string]*PendingSubmission),
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// FetchWallets replaces the local listing with the backend's export.
// Nothing is decrypted. Secrets of wallets that disappeared, or whose key
// changed, are discarded. On error the local state is left untouched.
func (s *Store) FetchWallets(ctx context.Context) ([]Wallet, error) {
	resp, err := s.api.ExportWallets(ctx)
	if err != nil {
		return nil, err
	}

	next := make(map[string]*Record, len(resp.AddressMap))
	for addr, entry := range resp.AddressMap {
		rec := recordFromEntry(addr, entry)
		if rec.Encrypted == "" || rec.Salt == "" {
			s.log.Warn().Str("address", rec.Address).Msg("skipping wallet without key material")
			continue
		}
		next[rec.Address] = rec
	}

	s.mu.Lock()
	for id, old := range s.records {
		if rec, ok := next[id]; ok {
			rec.Active = old.Active
		}
	}
	for id := range s.secrets {
		rec, ok := next[id]
		old, had := s.records[id]
		if !ok || !had || rec.PublicKey != old.PublicKey {
			s.dropSecretLocked(id)
		}
	}
	s.records = next
	s.mu.Unlock()

	s.log.Info().Int("wallets", len(next)).Msg("wallets fetched")
	return s.Wallets(), nil
}

// normalizeID maps an address in any case, with or without 0x, to its
// stored lower-case hex form.
func normalizeID(id string) string {
	id = strings.ToLower(strings.TrimSpace(id))
	return strings.TrimPrefix(id, "0x")
}

func recordFromEntry(addr string, e model.KeyEntry) *Record {
	address := e.KeyAddress
	if address == "" {
		address = addr
	}
	return &Record{
		Address:   normalizeID(address),
		PublicKey: strings.ToLower(e.PublicKey),
		Encrypted: e.Encrypted,
		Salt:      e.Salt,
		Label:     e.KeyNickname,
		Active:    true,
	}
}

// Wallets returns all wallets sorted by address.
func (s *Store) Wallets() []Wallet {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Wallet, 0, len(s.records))
	for id, rec := range s.records {
		_, unlocked := s.secrets[id]
		out = append(out, Wallet{Record: *rec, Unlocked: unlocked})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Address < out[j].Address })
	return out
}

// Wallet returns one wallet.
func (s *Store) Wallet(id string) (Wallet, error) {
	id = normalizeID(id)
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[id]
	if !ok {
		return Wallet{}, ErrWalletNotFound
	}
	_, unlocked := s.secrets[id]
	return Wallet{Record: *rec, Unlocked: unlocked}, nil
}

// UnlockWallet decrypts the wallet's private key and keeps it in memory.
// A wrong password and a corrupted record both yield crypto.ErrDecryptionFailed,
// and the wallet stays locked.
// password must be []byte for security (caller should zero it after use)
func (s *Store) UnlockWallet(id string, password []byte) error {
	id = normalizeID(id)
	rec, err := s.Wallet(id)
	if err != nil {
		return err
	}

	key, err := s.decryptRecord(rec.Record, password)
	if err != nil {
		s.log.Warn().Str("address", id).Msg("unlock failed")
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.records[id]
	if !ok || cur.PublicKey != rec.PublicKey {
		clear(key)
		return ErrWalletNotFound
	}
	s.dropSecretLocked(id)
	s.secrets[id] = key

	s.log.Info().Str("address", id).Msg("wallet unlocked")
	return nil
}

func (s *Store) decryptRecord(rec Record, password []byte) ([]byte, error) {
	ciphertext, err := hex.DecodeString(rec.Encrypted)
	if err != nil {
		return nil, crypto.ErrDecryptionFailed
	}
	salt, err := hex.DecodeString(rec.Salt)
	if err != nil {
		return nil, crypto.ErrDecryptionFailed
	}

	key, err := s.codec.Decrypt(ciphertext, salt, password)
	if err != nil {
		return nil, err
	}

	pub, err := crypto.PublicKeyOf(key)
	if err != nil || hex.EncodeToString(pub) != rec.PublicKey {
		clear(key)
		return nil, crypto.ErrDecryptionFailed
	}
	return key, nil
}

// LockWallet discards the wallet's private key. Locking a locked wallet is a no-op.
func (s *Store) LockWallet(id string) {
	id = normalizeID(id)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dropSecretLocked(id) {
		s.log.Info().Str("address", id).Msg("wallet locked")
	}
}

// LockAllWallets discards every private key.
func (s *Store) LockAllWallets() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id := range s.secrets {
		s.dropSecretLocked(id)
	}
}

// Logout locks every wallet and drops cached balances, history and pending submissions.
func (s *Store) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id := range s.secrets {
		s.dropSecretLocked(id)
	}
	s.balances = make(map[string]uint64)
	s.history = make(map[string][]model.Transaction)
	s.pending = make(map[string]*PendingSubmission)
	s.log.Info().Msg("logged out")
}

// IsUnlocked reports whether the wallet's private key is in memory.
func (s *Store) IsUnlocked(id string) bool {
	id = normalizeID(id)
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.secrets[id]
	return ok
}

// dropSecretLocked zeroes and removes a secret. s.mu must be held for writing.
func (s *Store) dropSecretLocked(id string) bool {
	key, ok := s.secrets[id]
	if !ok {
		return false
	}
	clear(key)
	delete(s.secrets, id)
	return true
}

// secretCopy returns a private copy of an unlocked key. The caller clears it.
func (s *Store) secretCopy(id string) ([]byte, error) {
	id = normalizeID(id)
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.records[id]; !ok {
		return nil, ErrWalletNotFound
	}
	key, ok := s.secrets[id]
	if !ok {
		return nil, ErrWalletLocked
	}
	return append([]byte(nil), key...), nil
}
