// Package workflow is the till's input state machine. It owns the current
// draft and turns operator commands into lookups, draft edits and commits.
// It knows nothing about rendering: front ends send a Command and show the
// returned Snapshot.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"tillpos/internal/domain"
	"tillpos/internal/draft"
	applog "tillpos/internal/log"
	"tillpos/internal/money"
	"tillpos/internal/services"
	"tillpos/internal/validate"
)

var (
	ErrBusy           = errors.New("another operation is still running")
	ErrInvalidCommand = errors.New("command not available here")
	ErrDraftEmpty     = errors.New("the sale has no items")
)

// Lookup resolves what the operator typed into catalog matches.
type Lookup interface {
	Resolve(ctx context.Context, token string) (services.LookupResult, error)
}

// Committer records a finished sale.
type Committer interface {
	Commit(ctx context.Context, req services.CommitRequest) (domain.Order, error)
}

type field int

const (
	productField field = iota
	searchField
)

type Workflow struct {
	lookup Lookup
	commit Committer

	mu    sync.Mutex
	d     *draft.Draft
	state State

	token  string
	amount string
	// weighed product waiting for its amount
	pending *domain.Product

	query      string
	resultsFor string
	results    []domain.Product
	highlight  int

	// draft line code, 0 when nothing was selected yet
	selected int

	method domain.PaymentMethod
	tender string

	notice string
	last   *domain.Order

	gen        uint64
	inflight   [2]bool
	committing bool
}

func New(lookup Lookup, commit Committer) *Workflow {
	return &Workflow{lookup: lookup, commit: commit, d: draft.New(), state: ProductEntry}
}

// Snapshot returns the current view.
func (w *Workflow) Snapshot() Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.snapshot()
}

// Dispatch applies one command. The returned snapshot is valid even when an
// error is returned; a rejected command leaves the state as it was.
func (w *Workflow) Dispatch(ctx context.Context, cmd Command) (Snapshot, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.committing {
		return w.snapshot(), ErrBusy
	}
	w.notice = ""

	var err error
	switch cmd.Kind {
	case SetToken:
		err = w.setToken(cmd.Text)
	case SetAmount:
		err = w.setAmount(cmd.Text)
	case SetTender:
		err = w.setTender(cmd.Text)
	case Submit:
		err = w.submit(ctx)
	case FocusProduct:
		err = w.focusProduct()
	case FocusAmount:
		err = w.focusAmount()
	case FocusTable:
		err = w.focusTable()
	case OpenSearch:
		err = w.openSearch()
	case Up:
		err = w.move(-1)
	case Down:
		err = w.move(1)
	case Delete:
		err = w.delete()
	case Clear:
		err = w.clear()
	case Confirm:
		err = w.confirm(ctx)
	case Cancel:
		err = w.cancel()
	case CloseSale:
		err = w.closeSale(cmd.Method)
	case ResetSale:
		err = w.resetSale()
	default:
		err = fmt.Errorf("%w: %q", ErrInvalidCommand, cmd.Kind)
	}
	if err == nil {
		w.gen++
	}
	return w.snapshot(), err
}

func (w *Workflow) entry() bool { return w.state == ProductEntry || w.state == AmountEntry }

func (w *Workflow) clearFields() {
	w.token, w.amount = "", ""
	w.pending = nil
	w.query, w.resultsFor, w.results, w.highlight = "", "", nil, 0
}

func (w *Workflow) setToken(s string) error {
	switch {
	case w.state == SearchOpen:
		w.query = s
	case w.entry():
		w.token = s
		w.pending = nil
	default:
		return ErrInvalidCommand
	}
	return nil
}

func (w *Workflow) setAmount(s string) error {
	if !w.entry() {
		return ErrInvalidCommand
	}
	w.amount = s
	return nil
}

func (w *Workflow) setTender(s string) error {
	if w.state != CloseOrderConfirm || !w.method.AcceptsTender() {
		return ErrInvalidCommand
	}
	w.tender = s
	return nil
}

func (w *Workflow) focusProduct() error {
	switch w.state {
	case ProductEntry, AmountEntry:
		w.state = ProductEntry
	case SearchOpen, TableFocus:
		return w.cancel()
	default:
		return ErrInvalidCommand
	}
	return nil
}

func (w *Workflow) focusAmount() error {
	if !w.entry() {
		return ErrInvalidCommand
	}
	w.state = AmountEntry
	return nil
}

// focusTable enters the table on its first line. Only a cancelled delete
// returns to an earlier selection.
func (w *Workflow) focusTable() error {
	if !w.entry() {
		return ErrInvalidCommand
	}
	lines := w.d.Lines()
	if len(lines) == 0 {
		return ErrDraftEmpty
	}
	w.selected = lines[0].Code
	w.state = TableFocus
	return nil
}

func (w *Workflow) openSearch() error {
	if !w.entry() {
		return ErrInvalidCommand
	}
	w.query = w.token
	w.resultsFor, w.results, w.highlight = "", nil, 0
	w.state = SearchOpen
	return nil
}

func (w *Workflow) move(step int) error {
	switch w.state {
	case SearchOpen:
		w.highlight = clamp(w.highlight+step, len(w.results))
	case TableFocus:
		lines := w.d.Lines()
		i := clamp(w.d.Index(w.selected)+step, len(lines))
		w.selected = lines[i].Code
	default:
		return ErrInvalidCommand
	}
	return nil
}

func clamp(i, n int) int {
	if i >= n {
		i = n - 1
	}
	if i < 0 {
		i = 0
	}
	return i
}

func (w *Workflow) delete() error {
	if w.state != TableFocus {
		return ErrInvalidCommand
	}
	w.state = DeleteConfirm
	return nil
}

func (w *Workflow) clear() error {
	switch w.state {
	case ProductEntry, AmountEntry:
		w.clearFields()
		w.state = ProductEntry
	case SearchOpen:
		return w.cancel()
	case TableFocus:
		w.clearFields()
		w.selected = 0
		w.state = ProductEntry
	default:
		return ErrInvalidCommand
	}
	return nil
}

func (w *Workflow) cancel() error {
	switch w.state {
	case SearchOpen:
		w.query, w.resultsFor, w.results, w.highlight = "", "", nil, 0
		w.state = ProductEntry
	case TableFocus:
		w.clearFields()
		w.selected = 0
		w.state = ProductEntry
	case DeleteConfirm:
		w.state = TableFocus
	case CloseOrderConfirm:
		w.method, w.tender = "", ""
		w.state = ProductEntry
	case ResetConfirm:
		w.state = ProductEntry
	default:
		return ErrInvalidCommand
	}
	return nil
}

func (w *Workflow) closeSale(m domain.PaymentMethod) error {
	if !w.entry() && w.state != TableFocus && w.state != CloseOrderConfirm {
		return ErrInvalidCommand
	}
	if w.d.IsEmpty() {
		return ErrDraftEmpty
	}
	if !m.Valid() {
		return services.ErrInvalidPaymentMethod
	}
	w.method, w.tender = m, ""
	if m.AcceptsTender() {
		w.tender = w.d.Total().StringFixed(2)
	}
	w.state = CloseOrderConfirm
	return nil
}

func (w *Workflow) resetSale() error {
	if !w.entry() && w.state != TableFocus {
		return ErrInvalidCommand
	}
	if w.d.IsEmpty() {
		return ErrDraftEmpty
	}
	w.state = ResetConfirm
	return nil
}

func (w *Workflow) confirm(ctx context.Context) error {
	switch w.state {
	case DeleteConfirm:
		return w.removeSelected()
	case CloseOrderConfirm:
		return w.commitSale(ctx)
	case ResetConfirm:
		w.d.Reset()
		w.clearFields()
		w.selected = 0
		w.state = ProductEntry
		w.notice = "sale cleared"
		return nil
	}
	return ErrInvalidCommand
}

// removeSelected drops the highlighted line and hands focus back to the
// product field.
func (w *Workflow) removeSelected() error {
	if err := w.d.Remove(w.selected); err != nil {
		return err
	}
	w.selected = 0
	w.state = ProductEntry
	return nil
}

func (w *Workflow) submit(ctx context.Context) error {
	switch w.state {
	case ProductEntry, AmountEntry:
		return w.submitEntry(ctx)
	case SearchOpen:
		return w.submitSearch(ctx)
	case TableFocus:
		return w.delete()
	case DeleteConfirm, CloseOrderConfirm, ResetConfirm:
		return w.confirm(ctx)
	}
	return ErrInvalidCommand
}

func (w *Workflow) parsedAmount() (*decimal.Decimal, error) {
	a, err := validate.Amount(w.amount)
	if err != nil {
		return nil, draft.ErrInvalidAmount
	}
	return a, nil
}

func (w *Workflow) submitEntry(ctx context.Context) error {
	amount, err := w.parsedAmount()
	if err != nil {
		return err
	}
	if w.pending != nil {
		if amount == nil {
			w.state = AmountEntry
			return draft.ErrNeedsAmount
		}
		return w.add(*w.pending, amount)
	}

	token, ok := validate.Token(w.token)
	if !ok {
		// empty product field: the amount field hands focus back
		w.state = ProductEntry
		return nil
	}

	res, stale, err := w.resolve(ctx, productField, token)
	if err != nil || stale {
		return err
	}
	switch res.Kind {
	case services.NoMatch:
		w.state = ProductEntry
		w.notice = fmt.Sprintf("no product matches %q", token)
		return nil
	case services.SingleMatch:
		return w.add(res.Product(), amount)
	}
	w.query, w.resultsFor = token, token
	w.results, w.highlight = res.Products, 0
	w.state = SearchOpen
	return nil
}

func (w *Workflow) submitSearch(ctx context.Context) error {
	if w.query == w.resultsFor && len(w.results) > 0 {
		amount, err := w.parsedAmount()
		if err != nil {
			return err
		}
		return w.add(w.results[w.highlight], amount)
	}

	query := w.query
	res, stale, err := w.resolve(ctx, searchField, query)
	if err != nil || stale {
		return err
	}
	w.resultsFor = query
	w.results, w.highlight = res.Products, 0
	if res.Kind == services.NoMatch {
		w.notice = fmt.Sprintf("no product matches %q", query)
	}
	return nil
}

// resolve runs the lookup with the lock released. The result is stale when
// any command was accepted meanwhile; the caller then leaves state alone.
func (w *Workflow) resolve(ctx context.Context, f field, token string) (services.LookupResult, bool, error) {
	if w.inflight[f] {
		return services.LookupResult{}, false, ErrBusy
	}
	w.inflight[f] = true
	w.gen++
	gen := w.gen

	w.mu.Unlock()
	res, err := w.lookup.Resolve(ctx, token)
	w.mu.Lock()

	w.inflight[f] = false
	if err != nil {
		applog.Error(nil, "workflow.lookup.fail", err, map[string]any{"token": token})
		return services.LookupResult{}, false, err
	}
	if w.gen != gen {
		return services.LookupResult{}, true, nil
	}
	return res, false, nil
}

// add puts p on the draft. A weighed product without an amount becomes
// pending: its name fills the product field and focus moves to the amount.
func (w *Workflow) add(p domain.Product, amount *decimal.Decimal) error {
	line, err := w.d.Add(p, amount)
	if errors.Is(err, draft.ErrNeedsAmount) {
		pending := p
		w.clearFields()
		w.pending = &pending
		w.token = p.Name
		w.state = AmountEntry
		w.notice = fmt.Sprintf("enter the amount for %s", p.Name)
		return nil
	}
	if err != nil {
		return err
	}
	w.clearFields()
	w.selected = 0
	w.state = ProductEntry
	w.notice = fmt.Sprintf("added %s x %s", line.Amount.String(), p.Name)
	return nil
}

// commitSale records the draft with the lock released. Every command is
// refused while it runs. On failure the draft stays as it was so the
// operator can retry; the draft key makes a retry safe.
func (w *Workflow) commitSale(ctx context.Context) error {
	if w.d.IsEmpty() {
		return ErrDraftEmpty
	}
	req := services.CommitRequest{Key: w.d.Key(), Lines: w.d.Lines(), Method: w.method}
	if w.method.AcceptsTender() {
		tender, err := validate.Tender(w.tender)
		if err != nil {
			return draft.ErrInvalidAmount
		}
		req.PaymentTotal = tender
	}

	w.committing = true
	w.mu.Unlock()
	order, err := w.commit.Commit(ctx, req)
	w.mu.Lock()
	w.committing = false

	if err != nil {
		w.notice = "the sale could not be recorded"
		return err
	}
	w.d.Reset()
	w.clearFields()
	w.selected = 0
	w.method, w.tender = "", ""
	w.last = &order
	w.state = ProductEntry
	w.notice = fmt.Sprintf("order %d recorded", order.Code)
	return nil
}

func (w *Workflow) snapshot() Snapshot {
	lines := w.d.Lines()
	total := w.d.Total()
	s := Snapshot{
		State:         w.state,
		Token:         w.token,
		Amount:        w.amount,
		SearchToken:   w.query,
		SearchResults: append([]domain.Product{}, w.results...),
		Highlight:     w.highlight,
		Lines:         lines,
		Total:         total,
		PaymentMethod: w.method,
		Tender:        w.tender,
		Change:        decimal.Zero,
		Notice:        w.notice,
		LastOrder:     w.last,
		CanClose:      len(lines) > 0,
		CanReset:      len(lines) > 0,
		Busy:          w.committing || w.inflight[productField] || w.inflight[searchField],
	}
	if w.pending != nil {
		s.Pending = w.pending.Name
	}
	if w.state == TableFocus || w.state == DeleteConfirm {
		s.SelectedLine = w.selected
	}
	if w.method.AcceptsTender() {
		if t, err := validate.Tender(w.tender); err == nil && t != nil {
			s.Change = money.Positive(t.Sub(total))
		}
	}
	return s
}
