package fee

import "github.com/trezcool/eduverse/core"

// Statuses
const (
	StatusPaid    = "paid"
	StatusPending = "pending"
	StatusPartial = "partial"
)

// Payment methods
const (
	MethodCreditCard   = "Credit Card"
	MethodBankTransfer = "Bank Transfer"
	MethodCash         = "Cash"
	MethodCheck        = "Check"
)

var Methods = []string{MethodCreditCard, MethodBankTransfer, MethodCash, MethodCheck}

type Fee struct {
	ID            string   `json:"id"`
	StudentID     string   `json:"studentId"`
	StudentName   string   `json:"studentName"`
	Amount        float64  `json:"amount"`
	Description   string   `json:"description"`
	DueDate       string   `json:"dueDate"` // YYYY-MM-DD
	Status        string   `json:"status"`
	PaidDate      string   `json:"paidDate,omitempty"`
	PaymentMethod string   `json:"paymentMethod,omitempty"`
	TransactionID string   `json:"transactionId,omitempty"`
	AmountPaid    *float64 `json:"amountPaid,omitempty"`
	BalanceDue    *float64 `json:"balanceDue,omitempty"`
	Notes         string   `json:"notes,omitempty"`
}

// Outstanding returns what remains to be paid.
// A missing or zero balance means nothing was paid yet, so the full amount is due.
func (f Fee) Outstanding() float64 {
	if f.BalanceDue != nil && *f.BalanceDue != 0 {
		return *f.BalanceDue
	}
	return f.Amount
}

func (f Fee) Paid() float64 {
	if f.AmountPaid == nil {
		return 0
	}
	return *f.AmountPaid
}

// Payment is a payment recorded against a Fee.
type Payment struct {
	Amount        float64 `json:"amount" validate:"gt=0"`
	Method        string  `json:"paymentMethod" validate:"omitempty,paymethod"`
	TransactionID string  `json:"transactionId"`
	Notes         string  `json:"notes"`
}

func (p *Payment) clean() {
	p.Method = core.CleanString(p.Method)
	p.TransactionID = core.CleanString(p.TransactionID)
	p.Notes = core.CleanString(p.Notes)
	if p.Method == "" {
		p.Method = MethodCreditCard
	}
}

type QueryFilter struct {
	Status    string // "" or "all" for every status
	Search    string // student name or description
	StudentID string
}

func (qf QueryFilter) Match(f Fee) bool {
	if qf.Status != "" && qf.Status != "all" && f.Status != qf.Status {
		return false
	}
	if qf.StudentID != "" && f.StudentID != qf.StudentID {
		return false
	}
	return qf.Search == "" || core.ContainsFold(qf.Search, f.StudentName, f.Description)
}

// Totals summarises the fees collected and still due.
type Totals struct {
	Revenue      float64 `json:"revenue"` // sum of paid fees
	Pending      float64 `json:"pending"` // outstanding on pending and partial fees
	PaidCount    int     `json:"paidCount"`
	PendingCount int     `json:"pendingCount"`
	PartialCount int     `json:"partialCount"`
}

func ComputeTotals(fees []Fee) Totals {
	var t Totals
	for _, f := range fees {
		switch f.Status {
		case StatusPaid:
			t.Revenue += f.Amount
			t.PaidCount++
		case StatusPending:
			t.Pending += f.Outstanding()
			t.PendingCount++
		case StatusPartial:
			t.Pending += f.Outstanding()
			t.PartialCount++
		}
	}
	return t
}
