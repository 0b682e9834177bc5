package history

import (
	"time"

	"github.com/unkn0wn-root/netscope/internal/nettrace"
	"github.com/unkn0wn-root/netscope/internal/transaction"
)

// Entry is one persisted transaction. The summary columns duplicate fields
// of Transaction so listings do not need to decode the whole record.
// Timing is kept as the raw timeline plus the budget it was checked against;
// breaches are evaluated again on Restore.
type Entry struct {
	ID          string                   `json:"id"`
	CapturedAt  time.Time                `json:"capturedAt"`
	Method      string                   `json:"method"`
	URL         string                   `json:"url"`
	Host        string                   `json:"host"`
	Status      string                   `json:"status"`
	StatusCode  int                      `json:"statusCode"`
	Duration    time.Duration            `json:"duration"`
	Source      string                   `json:"source,omitempty"`
	Transaction *transaction.Transaction `json:"transaction"`
	Timeline    *nettrace.Timeline       `json:"timeline,omitempty"`
	Budget      *nettrace.Budget         `json:"budget,omitempty"`
}

const (
	SourceCapture = "capture"
	SourceFixture = "fixture"
)

func NewEntry(tx *transaction.Transaction, source string) Entry {
	e := Entry{
		ID:          tx.ID,
		CapturedAt:  tx.CreatedAt,
		Method:      tx.Method(),
		URL:         tx.URL(),
		Host:        tx.Host(),
		Status:      tx.State().String(),
		Duration:    tx.Duration,
		Source:      source,
		Transaction: tx.Clone(),
		Timeline:    tx.Timeline.Clone(),
	}
	if tx.Report != nil && !tx.Report.Budget.Empty() {
		b := tx.Report.Budget.Clone()
		e.Budget = &b
	}
	if tx.Response != nil {
		e.Status = tx.Response.Status
		e.StatusCode = tx.Response.StatusCode
	}
	if tx.Error != nil {
		e.Status = string(tx.Error.Kind)
	}
	return e
}

// Restore rebuilds the transaction with its timeline and budget report.
func (e Entry) Restore() *transaction.Transaction {
	tx := e.Transaction.Clone()
	if tx == nil {
		tx = &transaction.Transaction{
			ID:        e.ID,
			CreatedAt: e.CapturedAt,
			Duration:  e.Duration,
			Original:  &transaction.Request{Method: e.Method, URL: e.URL},
		}
	}
	if e.Timeline != nil {
		var budget nettrace.Budget
		if e.Budget != nil {
			budget = *e.Budget
		}
		tx.Timeline = e.Timeline.Clone()
		tx.Report = nettrace.NewReport(tx.Timeline, budget)
	}
	return tx
}
