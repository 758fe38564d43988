package services

import (
	"context"

	"fee-management-system/app/models"
)

// StatusEngine derives obligation status. It never writes.
type StatusEngine struct {
	fees  FeeStore
	clock Clock
}

func NewStatusEngine(fees FeeStore, clock Clock) *StatusEngine {
	return &StatusEngine{fees: fees, clock: clock}
}

// StatusFor lists the guardian's obligations with their current status,
// ordered by due date ascending.
func (e *StatusEngine) StatusFor(ctx context.Context, guardianID string) ([]models.Obligation, error) {
	settlements, err := e.fees.GuardianSettlements(ctx, guardianID)
	if err != nil {
		return nil, internal(err, "Error fetching fee status")
	}

	now := today(e.clock)
	obligations := make([]models.Obligation, 0, len(settlements))
	for _, s := range settlements {
		obligations = append(obligations, models.Obligation{
			Fee:    s.Fee,
			Status: models.DeriveStatus(s.Fee.DueDate, s.Paid, now),
		})
	}
	return obligations, nil
}
