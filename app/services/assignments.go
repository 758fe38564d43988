package services

import (
	"context"
	"log/slog"

	"fee-management-system/app/apperr"
	"fee-management-system/app/models"
)

// AssignmentResolver decides which fees apply to which guardian. A fee with
// no assignments applies to everyone; the first assignment narrows it to
// the assigned guardians only.
type AssignmentResolver struct {
	users  UserStore
	fees   FeeStore
	logger *slog.Logger
}

func NewAssignmentResolver(users UserStore, fees FeeStore, logger *slog.Logger) *AssignmentResolver {
	return &AssignmentResolver{users: users, fees: fees, logger: logger}
}

// EffectiveFeesFor returns the ids of every fee the guardian owes, ordered
// by due date.
func (r *AssignmentResolver) EffectiveFeesFor(ctx context.Context, guardianID string) ([]string, error) {
	settlements, err := r.fees.GuardianSettlements(ctx, guardianID)
	if err != nil {
		return nil, internal(err, "Error resolving fees")
	}
	ids := make([]string, 0, len(settlements))
	for _, s := range settlements {
		ids = append(ids, s.Fee.ID)
	}
	return ids, nil
}

func (r *AssignmentResolver) requireGuardian(ctx context.Context, guardianID string) error {
	user, err := r.users.GetUserByID(ctx, guardianID)
	if isNotFound(err) || (err == nil && !user.IsGuardian()) {
		return apperr.NotFound("Parent not found")
	}
	return internal(err, "Error fetching parent")
}

// AssignFee targets an existing fee at a guardian. Assigning the same pair
// twice is a no-op reported through created=false.
func (r *AssignmentResolver) AssignFee(ctx context.Context, guardianID, feeID string) (bool, error) {
	if err := r.requireGuardian(ctx, guardianID); err != nil {
		return false, err
	}

	created, err := r.fees.AssignFee(ctx, guardianID, feeID)
	if isNotFound(err) {
		return false, apperr.NotFound("Fee not found")
	}
	if err != nil {
		return false, internal(err, "Error assigning fee")
	}
	r.logger.Info("fee assigned", "fee_id", feeID, "guardian_id", guardianID, "created", created)
	return created, nil
}

// AssignNewFee creates a fee and assigns it to one guardian atomically.
func (r *AssignmentResolver) AssignNewFee(ctx context.Context, guardianID string, in models.FeeInput) (*models.Fee, error) {
	if err := ValidateFeeInput(in); err != nil {
		return nil, err
	}
	if err := r.requireGuardian(ctx, guardianID); err != nil {
		return nil, err
	}

	fee := newFee(in)
	err := r.fees.CreateFeeWithAssignment(ctx, fee, guardianID)
	if isNotFound(err) {
		return nil, apperr.NotFound("Parent not found")
	}
	if err != nil {
		return nil, internal(err, "Error assigning fee")
	}
	r.logger.Info("fee created for guardian", "fee_id", fee.ID, "guardian_id", guardianID)
	return fee, nil
}
