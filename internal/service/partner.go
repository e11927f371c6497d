package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/mcpops/portal/internal/domain"
	"github.com/mcpops/portal/internal/models"
)

// PartnerService manages the partner roster visible to MCPs.
type PartnerService struct {
	store QueryStore
}

func NewPartnerService(store QueryStore) *PartnerService {
	return &PartnerService{store: store}
}

// List returns all partner accounts sorted by name.
func (s *PartnerService) List(ctx context.Context) ([]models.User, error) {
	return s.store.Queries().ListPartners(ctx)
}

func (s *PartnerService) Get(ctx context.Context, partnerID uuid.UUID) (*models.User, error) {
	partner, err := s.store.Queries().GetUser(ctx, partnerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("partner %s: %w", partnerID, models.ErrNotFound)
		}
		return nil, fmt.Errorf("get partner: %w", err)
	}
	if partner.Role != domain.RolePartner {
		return nil, fmt.Errorf("partner %s: %w", partnerID, models.ErrNotFound)
	}
	return partner, nil
}

// UpdateStatus moves a partner between active/inactive/suspended.
func (s *PartnerService) UpdateStatus(ctx context.Context, partnerID uuid.UUID, status string) (*models.User, error) {
	if !domain.ValidAccountStatus(status) {
		return nil, fmt.Errorf("invalid status %q: %w", status, models.ErrValidation)
	}

	partner, err := s.Get(ctx, partnerID)
	if err != nil {
		return nil, err
	}

	rows, err := s.store.Queries().UpdateUserStatus(ctx, partnerID, status)
	if err != nil {
		return nil, err
	}
	if err := requireExactlyOne(rows, "update partner status"); err != nil {
		return nil, err
	}
	partner.Status = status
	return partner, nil
}

// Location returns the partner's address block.
func (s *PartnerService) Location(ctx context.Context, partnerID uuid.UUID) (models.Address, error) {
	partner, err := s.Get(ctx, partnerID)
	if err != nil {
		return models.Address{}, err
	}
	return partner.Address, nil
}
