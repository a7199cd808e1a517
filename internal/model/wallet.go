package model

// KeyEntry is one custody record as exchanged with /wallet/import and
// /wallet/export. Only ciphertext ever travels in this shape.
type KeyEntry struct {
	KeyAddress  string `json:"keyAddress"`
	PublicKey   string `json:"publicKey"`
	Encrypted   string `json:"encrypted"` // hex(nonce || AES-GCM ciphertext)
	Salt        string `json:"salt"`      // hex
	KeyNickname string `json:"keyNickname"`
}

// ImportRequest is the body of POST /wallet/import, keyed by address.
type ImportRequest map[string]KeyEntry

// ImportResult is the per-address outcome of an import.
type ImportResult struct {
	Address string `json:"address"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// ImportSummary counts import outcomes.
type ImportSummary struct {
	Successful int `json:"successful"`
	Failed     int `json:"failed"`
}

// ImportResponse represents response for POST /wallet/import
type ImportResponse struct {
	Results []ImportResult `json:"results"`
	Summary ImportSummary  `json:"summary"`
}

// Result returns the outcome for address, if the server reported one.
func (r *ImportResponse) Result(address string) (ImportResult, bool) {
	for _, res := range r.Results {
		if res.Address == address {
			return res, true
		}
	}
	return ImportResult{}, false
}

// ExportResponse represents response for GET /wallet/export
type ExportResponse struct {
	AddressMap map[string]KeyEntry `json:"addressMap"`
}

// WalletUpdate is the metadata-only body of PUT /wallet/:id.
type WalletUpdate struct {
	Name     *string `json:"name,omitempty"`
	IsActive *bool   `json:"is_active,omitempty"`
}
