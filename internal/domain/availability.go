package domain

const (
	StockIn        = "IN_STOCK"
	StockLow       = "LOW_STOCK"
	StockOut       = "OUT_OF_STOCK"
	StockUntracked = "UNTRACKED"
)

type Availability struct {
	Status string `json:"status"`
	Qty    int64  `json:"qty,omitempty"`
}
