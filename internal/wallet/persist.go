package wallet

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/AlexZinkM/canopy-wallet/internal/model"
)

const stateVersion = 1

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// State is the persisted form of a Store. It has no field for a private
// key, and every wallet in it is locked.
type State struct {
	Version  int                 `json:"version"`
	SavedAt  time.Time           `json:"savedAt"`
	Wallets  []PersistedWallet   `json:"wallets"`
	Balances map[string]uint64   `json:"balances,omitempty"`
	Pending  []PendingSubmission `json:"pending,omitempty"`
}

// PersistedWallet is a record as written to disk.
type PersistedWallet struct {
	Record
	IsUnlocked bool `json:"isUnlocked"`
}

// Persister stores snapshot bytes.
type Persister interface {
	Save(data []byte) error
	Load() ([]byte, error)
}

// Snapshot serialises the store. Secrets are never included and every
// wallet is written as locked.
func (s *Store) Snapshot() ([]byte, error) {
	s.mu.RLock()
	st := State{
		Version:  stateVersion,
		SavedAt:  s.opts.Now().UTC(),
		Wallets:  make([]PersistedWallet, 0, len(s.records)),
		Balances: make(map[string]uint64, len(s.balances)),
	}
	for _, rec := range s.records {
		st.Wallets = append(st.Wallets, PersistedWallet{Record: *rec})
	}
	for addr, amount := range s.balances {
		st.Balances[addr] = amount
	}
	for _, p := range s.pending {
		st.Pending = append(st.Pending, *p)
	}
	s.mu.RUnlock()

	sort.Slice(st.Wallets, func(i, j int) bool { return st.Wallets[i].Address < st.Wallets[j].Address })
	sort.Slice(st.Pending, func(i, j int) bool { return st.Pending[i].TransactionHash < st.Pending[j].TransactionHash })

	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal state: %w", err)
	}
	return data, nil
}

// Restore replaces the store's records, balances and pending submissions
// with a snapshot. All wallets come back locked.
func (s *Store) Restore(data []byte) error {
	data = bytes.TrimPrefix(data, utf8BOM)

	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		return fmt.Errorf("failed to parse state: %w", err)
	}
	if st.Version != stateVersion {
		return fmt.Errorf("unsupported state version %d", st.Version)
	}

	records := make(map[string]*Record, len(st.Wallets))
	for _, w := range st.Wallets {
		if w.Address == "" || w.Encrypted == "" || w.Salt == "" {
			return fmt.Errorf("state contains incomplete wallet %q", w.Address)
		}
		rec := w.Record
		rec.Address = normalizeID(rec.Address)
		records[rec.Address] = &rec
	}
	balances := make(map[string]uint64, len(st.Balances))
	for addr, amount := range st.Balances {
		balances[normalizeID(addr)] = amount
	}
	pending := make(map[string]*PendingSubmission, len(st.Pending))
	for i := range st.Pending {
		p := st.Pending[i]
		pending[p.TransactionHash] = &p
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for id := range s.secrets {
		s.dropSecretLocked(id)
	}
	s.records = records
	s.balances = balances
	s.pending = pending
	s.history = make(map[string][]model.Transaction)

	s.log.Info().Int("wallets", len(records)).Msg("state restored")
	return nil
}

// SaveTo snapshots the store into p.
func (s *Store) SaveTo(p Persister) error {
	data, err := s.Snapshot()
	if err != nil {
		return err
	}
	return p.Save(data)
}

// LoadFrom restores the store from p. A missing snapshot leaves the store empty.
func (s *Store) LoadFrom(p Persister) error {
	data, err := p.Load()
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return nil
	}
	return s.Restore(data)
}

// FileSnapshot persists snapshots to a file readable only by its owner.
type FileSnapshot struct {
	Path string
}

// Save writes data atomically.
func (f FileSnapshot) Save(data []byte) error {
	dir := filepath.Dir(f.Path)
	tmp, err := os.CreateTemp(dir, filepath.Base(f.Path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		_ = os.Remove(tmpName)
	}()

	if err := tmp.Chmod(0600); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write state: %w", err)
	}
	if err := os.Rename(tmpName, f.Path); err != nil {
		return fmt.Errorf("failed to replace state file: %w", err)
	}
	return nil
}

// Load reads the file. A missing file yields no data and no error.
func (f FileSnapshot) Load() ([]byte, error) {
	data, err := os.ReadFile(f.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read state file: %w", err)
	}
	return data, nil
}
