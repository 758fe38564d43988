package services

import (
	"context"
	"sort"
	"strings"
	"time"

	"fee-management-system/app/apperr"
	"fee-management-system/app/models"

	"github.com/shopspring/decimal"
)

const (
	defaultPageSize   = 10
	maxPageSize       = 100
	recentPaymentsLen = 5
)

// PaymentQuery is the raw admin listing request.
type PaymentQuery struct {
	Page     int
	PageSize int
	Search   string
	Status   string
	LastDays int
}

// Reports builds listings and aggregates. Nothing is cached; every call
// reads the store.
type Reports struct {
	users    UserStore
	fees     FeeStore
	payments PaymentStore
	clock    Clock
}

func NewReports(users UserStore, fees FeeStore, payments PaymentStore, clock Clock) *Reports {
	return &Reports{users: users, fees: fees, payments: payments, clock: clock}
}

func (r *Reports) filters(q PaymentQuery) (models.PaymentFilters, error) {
	filters := models.PaymentFilters{Search: strings.TrimSpace(q.Search)}

	if q.Status != "" {
		status := models.PaymentStatus(q.Status)
		if !status.Valid() {
			return filters, apperr.Validation("Invalid status filter")
		}
		filters.Status = status
	}

	if q.LastDays < 0 {
		return filters, apperr.Validation("Invalid date filter")
	}
	if q.LastDays > 0 {
		now := r.clock()
		y, m, d := now.Date()
		filters.Since = time.Date(y, m, d-q.LastDays, 0, 0, 0, 0, now.Location())
	}
	return filters, nil
}

// ListPayments returns one page of the filtered transaction listing,
// newest first.
func (r *Reports) ListPayments(ctx context.Context, q PaymentQuery) (*models.PaymentPage, error) {
	filters, err := r.filters(q)
	if err != nil {
		return nil, err
	}

	page, size := q.Page, q.PageSize
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}

	items, total, err := r.payments.ListPayments(ctx, filters, size, (page-1)*size)
	if err != nil {
		return nil, internal(err, "Error fetching transactions")
	}
	return &models.PaymentPage{
		Items:      items,
		Page:       page,
		PageSize:   size,
		TotalCount: total,
		PageCount:  (total + size - 1) / size,
	}, nil
}

func (r *Reports) AllPayments(ctx context.Context) ([]models.PaymentView, error) {
	payments, err := r.payments.ListAllPayments(ctx)
	if err != nil {
		return nil, internal(err, "Error fetching payments")
	}
	return payments, nil
}

// DashboardSummary counts unpaid obligations over general and targeted
// fees alike, split by due date.
func (r *Reports) DashboardSummary(ctx context.Context) (*models.DashboardSummary, error) {
	count, total, err := r.payments.CompletedTotals(ctx)
	if err != nil {
		return nil, internal(err, "Error fetching dashboard summary")
	}
	settlements, err := r.fees.AllSettlements(ctx)
	if err != nil {
		return nil, internal(err, "Error fetching dashboard summary")
	}
	recent, err := r.payments.RecentCompletedPayments(ctx, recentPaymentsLen)
	if err != nil {
		return nil, internal(err, "Error fetching dashboard summary")
	}

	summary := &models.DashboardSummary{
		TotalCollected: total,
		CompletedCount: count,
		RecentPayments: recent,
	}
	now := today(r.clock)
	for _, s := range settlements {
		switch models.DeriveStatus(s.Fee.DueDate, s.Paid, now) {
		case models.StatusPending:
			summary.PendingCount++
		case models.StatusOverdue:
			summary.OverdueCount++
		}
	}
	return summary, nil
}

// FullReport summarizes each guardian. Its pending count only covers
// targeted assignments, unlike DashboardSummary.
func (r *Reports) FullReport(ctx context.Context) (*models.FullReport, error) {
	guardians, err := r.users.ListGuardians(ctx)
	if err != nil {
		return nil, internal(err, "Error generating report")
	}
	payments, err := r.payments.ListAllPayments(ctx)
	if err != nil {
		return nil, internal(err, "Error generating report")
	}
	settlements, err := r.fees.AllSettlements(ctx)
	if err != nil {
		return nil, internal(err, "Error generating report")
	}

	byGuardian := make(map[string]*models.GuardianSummary, len(guardians))
	summaries := make([]*models.GuardianSummary, 0, len(guardians))
	for _, g := range guardians {
		s := &models.GuardianSummary{
			GuardianID:    g.ID,
			GuardianName:  g.Name,
			GuardianEmail: g.Email,
			AmountPaid:    decimal.Zero,
		}
		byGuardian[g.ID] = s
		summaries = append(summaries, s)
	}

	for _, p := range payments {
		s, ok := byGuardian[p.GuardianID]
		if !ok || p.Status != models.PaymentCompleted {
			continue
		}
		s.PaymentsMade++
		s.AmountPaid = s.AmountPaid.Add(p.Amount)
	}

	report := &models.FullReport{PaymentDetails: payments, UnpaidFees: []models.UnpaidFee{}}
	for _, st := range settlements {
		if !st.Targeted || st.Paid {
			continue
		}
		if s, ok := byGuardian[st.GuardianID]; ok {
			s.PendingPayments++
		}
		report.UnpaidFees = append(report.UnpaidFees, models.UnpaidFee{
			GuardianID:   st.GuardianID,
			GuardianName: st.GuardianName,
			FeeID:        st.Fee.ID,
			FeeKind:      st.Fee.Kind,
			Amount:       st.Fee.Amount,
			Description:  st.Fee.Description,
			DueDate:      st.Fee.DueDate,
		})
	}

	sort.SliceStable(summaries, func(i, j int) bool {
		return summaries[i].GuardianName < summaries[j].GuardianName
	})
	report.UserSummary = make([]models.GuardianSummary, 0, len(summaries))
	for _, s := range summaries {
		report.UserSummary = append(report.UserSummary, *s)
	}
	return report, nil
}

// balances rolls up unpaid targeted settlements per guardian. keep narrows
// which settlements count.
func balances(settlements []models.Settlement, keep func(models.Settlement) bool, now models.Date) []models.GuardianBalance {
	byGuardian := map[string]*models.GuardianBalance{}
	earliest := map[string]models.Date{}
	var order []string

	for _, s := range settlements {
		if !s.Targeted || s.Paid || !keep(s) {
			continue
		}
		b, ok := byGuardian[s.GuardianID]
		if !ok {
			b = &models.GuardianBalance{
				GuardianID: s.GuardianID,
				Name:       s.GuardianName,
				Email:      s.GuardianEmail,
				Amount:     decimal.Zero,
			}
			byGuardian[s.GuardianID] = b
			order = append(order, s.GuardianID)
		}
		b.FeeCount++
		b.Amount = b.Amount.Add(s.Fee.Amount)
		if e, ok := earliest[s.GuardianID]; !ok || s.Fee.DueDate.Before(e) {
			earliest[s.GuardianID] = s.Fee.DueDate
		}
	}

	out := make([]models.GuardianBalance, 0, len(order))
	for _, id := range order {
		b := byGuardian[id]
		if e := earliest[id]; e.Before(now) {
			b.DaysOverdue = e.DaysUntil(now)
		}
		out = append(out, *b)
	}
	return out
}

// UnpaidGuardians lists guardians with unpaid targeted fees, largest
// balance first.
func (r *Reports) UnpaidGuardians(ctx context.Context) ([]models.GuardianBalance, error) {
	settlements, err := r.fees.AllSettlements(ctx)
	if err != nil {
		return nil, internal(err, "Error fetching unpaid parents")
	}

	out := balances(settlements, func(models.Settlement) bool { return true }, today(r.clock))
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Amount.Equal(out[j].Amount) {
			return out[i].Amount.GreaterThan(out[j].Amount)
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

// OverdueGuardians lists guardians with targeted fees past due, longest
// overdue first. DaysOverdue counts from the earliest unpaid due date.
func (r *Reports) OverdueGuardians(ctx context.Context) ([]models.GuardianBalance, error) {
	settlements, err := r.fees.AllSettlements(ctx)
	if err != nil {
		return nil, internal(err, "Error fetching overdue parents")
	}

	now := today(r.clock)
	out := balances(settlements, func(s models.Settlement) bool {
		return s.Fee.DueDate.Before(now)
	}, now)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].DaysOverdue != out[j].DaysOverdue {
			return out[i].DaysOverdue > out[j].DaysOverdue
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}
