package model

// ZapReceipt is the persisted record of a single zap call.
type ZapReceipt struct {
	ID          string         `json:"id"`
	Entry       string         `json:"entry"`
	Caller      string         `json:"caller"`
	Recipient   string         `json:"recipient"`
	InputAsset  Asset          `json:"input_asset"`
	InputAmount string         `json:"input_amount"`
	Pair        string         `json:"pair,omitempty"`
	Token0      string         `json:"token0,omitempty"`
	Token1      string         `json:"token1,omitempty"`
	Amount0     string         `json:"amount0,omitempty"`
	Amount1     string         `json:"amount1,omitempty"`
	Used0       string         `json:"used0,omitempty"`
	Used1       string         `json:"used1,omitempty"`
	Liquidity   string         `json:"liquidity,omitempty"`
	Dust        []DustTransfer `json:"dust,omitempty"`
	Effects     []string       `json:"effects,omitempty"`
	State       string         `json:"state"`
	Result      string         `json:"result"`
	Error       string         `json:"error,omitempty"`
	Timestamp   uint64         `json:"timestamp"`
}

// Succeeded reports whether the receipt describes a completed zap.
func (r ZapReceipt) Succeeded() bool {
	return r.Error == ""
}
