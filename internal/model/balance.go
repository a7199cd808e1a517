package model

// AccountResponse represents response for GET /explorer/account/:address
type AccountResponse struct {
	Address string `json:"address"`
	Amount  uint64 `json:"amount"` // micro-units
}

// HeightResponse represents response for GET /explorer/height
type HeightResponse struct {
	Height uint64 `json:"height"`
}

// OverviewResponse represents response for GET /explorer/overview
type OverviewResponse struct {
	Height        uint64 `json:"height"`
	ChainID       uint64 `json:"chain_id"`
	NetworkID     uint64 `json:"network_id"`
	TotalAccounts uint64 `json:"total_accounts"`
	TotalSupply   uint64 `json:"total_supply"`
}

// HealthResponse represents response for GET /health
type HealthResponse struct {
	Status string `json:"status"`
}
