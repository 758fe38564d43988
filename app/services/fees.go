package services

import (
	"context"
	"errors"
	"log/slog"

	"fee-management-system/app/apperr"
	"fee-management-system/app/database"
	"fee-management-system/app/models"

	"github.com/google/uuid"
)

// FeeCatalog owns fee definitions.
type FeeCatalog struct {
	store  FeeStore
	logger *slog.Logger
}

func NewFeeCatalog(store FeeStore, logger *slog.Logger) *FeeCatalog {
	return &FeeCatalog{store: store, logger: logger}
}

// ValidateFeeInput checks the admin-editable fee fields.
func ValidateFeeInput(in models.FeeInput) error {
	if !in.Kind.Valid() {
		return apperr.Validation("Fee type must be monthly or term")
	}
	if !in.Amount.IsPositive() {
		return apperr.Validation("Amount must be a positive number")
	}
	if in.DueDate.IsZero() {
		return apperr.Validation("Due date is required")
	}
	return nil
}

func newFee(in models.FeeInput) *models.Fee {
	return &models.Fee{
		ID:          uuid.NewString(),
		Kind:        in.Kind,
		Amount:      in.Amount,
		Description: in.Description,
		DueDate:     in.DueDate,
	}
}

func (c *FeeCatalog) CreateFee(ctx context.Context, in models.FeeInput) (*models.Fee, error) {
	if err := ValidateFeeInput(in); err != nil {
		return nil, err
	}

	fee := newFee(in)
	if err := c.store.CreateFee(ctx, fee); err != nil {
		return nil, internal(err, "Error creating fee")
	}
	c.logger.Info("fee created", "fee_id", fee.ID, "kind", fee.Kind, "amount", fee.Amount.String())
	return fee, nil
}

func (c *FeeCatalog) UpdateFee(ctx context.Context, id string, in models.FeeInput) (*models.Fee, error) {
	if err := ValidateFeeInput(in); err != nil {
		return nil, err
	}

	fee := newFee(in)
	fee.ID = id
	err := c.store.UpdateFee(ctx, fee)
	if isNotFound(err) {
		return nil, apperr.NotFound("Fee not found")
	}
	if err != nil {
		return nil, internal(err, "Error updating fee")
	}
	return fee, nil
}

// DeleteFee removes a fee that no payment references.
func (c *FeeCatalog) DeleteFee(ctx context.Context, id string) error {
	err := c.store.DeleteFee(ctx, id)
	switch {
	case isNotFound(err):
		return apperr.NotFound("Fee not found")
	case errors.Is(err, database.ErrFeeInUse):
		return apperr.Conflict("Cannot delete fee with existing payments")
	case err != nil:
		return internal(err, "Error deleting fee")
	}
	c.logger.Info("fee deleted", "fee_id", id)
	return nil
}

func (c *FeeCatalog) GetFee(ctx context.Context, id string) (*models.Fee, error) {
	fee, err := c.store.GetFee(ctx, id)
	if isNotFound(err) {
		return nil, apperr.NotFound("Fee not found")
	}
	if err != nil {
		return nil, internal(err, "Error fetching fee")
	}
	return fee, nil
}

func (c *FeeCatalog) ListFees(ctx context.Context) ([]models.Fee, error) {
	fees, err := c.store.ListFees(ctx)
	if err != nil {
		return nil, internal(err, "Error fetching fees")
	}
	return fees, nil
}
