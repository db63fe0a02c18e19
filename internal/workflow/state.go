package workflow

import (
	"fmt"

	"github.com/shopspring/decimal"

	"tillpos/internal/domain"
	"tillpos/internal/draft"
)

type State int

const (
	ProductEntry State = iota
	AmountEntry
	SearchOpen
	TableFocus
	DeleteConfirm
	CloseOrderConfirm
	ResetConfirm
)

var stateNames = [...]string{
	ProductEntry:      "product_entry",
	AmountEntry:       "amount_entry",
	SearchOpen:        "search_open",
	TableFocus:        "table_focus",
	DeleteConfirm:     "delete_confirm",
	CloseOrderConfirm: "close_order_confirm",
	ResetConfirm:      "reset_confirm",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("state(%d)", int(s))
	}
	return stateNames[s]
}

func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// Kind names an operator command. The values double as the wire names used
// by the HTTP front end.
type Kind string

const (
	SetToken     Kind = "set_token"
	SetAmount    Kind = "set_amount"
	SetTender    Kind = "set_tender"
	Submit       Kind = "submit"
	FocusProduct Kind = "focus_product"
	FocusAmount  Kind = "focus_amount"
	FocusTable   Kind = "focus_table"
	OpenSearch   Kind = "open_search"
	Up           Kind = "up"
	Down         Kind = "down"
	Delete       Kind = "delete"
	Clear        Kind = "clear"
	Confirm      Kind = "confirm"
	Cancel       Kind = "cancel"
	CloseSale    Kind = "close_sale"
	ResetSale    Kind = "reset_sale"
)

type Command struct {
	Kind   Kind                 `json:"kind"`
	Text   string               `json:"text,omitempty"`
	Method domain.PaymentMethod `json:"method,omitempty"`
}

type Snapshot struct {
	State  State  `json:"state"`
	Token  string `json:"token"`
	Amount string `json:"amount"`
	// Pending names the weighed product waiting for an amount.
	Pending string `json:"pending,omitempty"`

	SearchToken   string           `json:"searchToken"`
	SearchResults []domain.Product `json:"searchResults"`
	Highlight     int              `json:"highlight"`

	Lines []draft.Line    `json:"lines"`
	Total decimal.Decimal `json:"total"`
	// SelectedLine is the highlighted draft line code while the table has
	// focus, 0 otherwise.
	SelectedLine int `json:"selectedLine"`

	PaymentMethod domain.PaymentMethod `json:"paymentMethod,omitempty"`
	Tender        string               `json:"tender,omitempty"`
	Change        decimal.Decimal      `json:"change"`

	Notice    string        `json:"notice,omitempty"`
	LastOrder *domain.Order `json:"lastOrder,omitempty"`
	CanClose  bool          `json:"canClose"`
	CanReset  bool          `json:"canReset"`
	Busy      bool          `json:"busy"`
}
