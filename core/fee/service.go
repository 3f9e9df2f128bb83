package fee

import (
	"context"
	"errors"
	"math"
	"strconv"
	"time"

	"github.com/trezcool/eduverse/core"
	"github.com/trezcool/eduverse/core/user"
)

var (
	ErrNotFound    = errors.New("fee not found")
	ErrAlreadyPaid = errors.New("fee is already paid")
	ErrForbidden   = core.ErrForbidden

	NowFunc = time.Now // mockable
)

type (
	Repository interface {
		QueryAllFees(ctx context.Context) ([]Fee, error)
		GetFeeByID(ctx context.Context, id string) (Fee, error)
		// UpdateFee applies fn to the stored Fee having id and saves the result.
		UpdateFee(ctx context.Context, id string, fn func(*Fee) error) (Fee, error)
	}

	Service struct {
		repo     Repository
		validate *core.Validator
	}
)

func NewService(repo Repository, validate *core.Validator) *Service {
	return &Service{repo: repo, validate: validate}
}

func (svc *Service) GetByID(ctx context.Context, id string) (Fee, error) {
	return svc.repo.GetFeeByID(ctx, id)
}

func (svc *Service) Filter(ctx context.Context, filter QueryFilter) ([]Fee, error) {
	fees, err := svc.repo.QueryAllFees(ctx)
	if err != nil {
		return nil, err
	}
	filter.Status = core.CleanString(filter.Status, true /* lower */)
	filter.Search = core.CleanString(filter.Search)

	filtered := make([]Fee, 0, len(fees))
	for _, f := range fees {
		if filter.Match(f) {
			filtered = append(filtered, f)
		}
	}
	return filtered, nil
}

func (svc *Service) ForStudent(ctx context.Context, studentID string) ([]Fee, error) {
	return svc.Filter(ctx, QueryFilter{StudentID: studentID})
}

func (svc *Service) Totals(ctx context.Context) (Totals, error) {
	fees, err := svc.repo.QueryAllFees(ctx)
	if err != nil {
		return Totals{}, err
	}
	return ComputeTotals(fees), nil
}

// RecordPayment applies p to the Fee having id.
// The fee becomes paid once its balance reaches zero, partial otherwise. Overpayments are not refunded.
func (svc *Service) RecordPayment(ctx context.Context, actor user.Session, id string, p Payment) (Fee, error) {
	if !actor.HasRole(user.RoleAccountant, user.RoleAdmin) {
		return Fee{}, ErrForbidden
	}
	p.clean()
	if err := svc.validate.Struct(p); err != nil {
		return Fee{}, err
	}

	return svc.repo.UpdateFee(ctx, id, func(f *Fee) error {
		if f.Status == StatusPaid {
			return ErrAlreadyPaid
		}
		applyPayment(f, p, NowFunc())
		return nil
	})
}

func applyPayment(f *Fee, p Payment, now time.Time) {
	newBalance := f.Outstanding() - p.Amount
	if newBalance <= 0 {
		f.Status = StatusPaid
	} else {
		f.Status = StatusPartial
	}
	if f.PaidDate == "" {
		f.PaidDate = core.FormatDate(now.UTC())
	}
	f.PaymentMethod = p.Method
	f.TransactionID = p.TransactionID
	if f.TransactionID == "" {
		f.TransactionID = "TXN" + strconv.FormatInt(now.UnixMilli(), 10)
	}
	paid := f.Paid() + p.Amount
	balance := math.Max(newBalance, 0)
	f.AmountPaid = &paid
	f.BalanceDue = &balance
	f.Notes = p.Notes
}
