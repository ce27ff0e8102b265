package service

import (
	"context"

	appErrors "github.com/farmbasket/farmbasket-backend/internal/errors"
	"github.com/farmbasket/farmbasket-backend/internal/models"
	"github.com/google/uuid"
)

// ProfileService exposes the buyer's own profile: contact details and
// favourite articles. Order and draft bookkeeping on the profile is owned by
// the order and basket layers.
type ProfileService interface {
	GetProfile(ctx context.Context, buyerID uuid.UUID) (*models.BuyerProfile, error)
	UpdateProfile(ctx context.Context, buyerID uuid.UUID, req *models.UpdateProfileRequest) (*models.BuyerProfile, error)
}

type profileService struct {
	profiles ProfileStore
}

func NewProfileService(profiles ProfileStore) ProfileService {
	return &profileService{profiles: profiles}
}

func (s *profileService) GetProfile(ctx context.Context, buyerID uuid.UUID) (*models.BuyerProfile, error) {

	profile, err := s.profiles.GetProfile(ctx, buyerID)
	if err != nil {
		if appErrors.HasCode(err, appErrors.ErrCodeNotFound) {
			return nil, err
		}

		return nil, appErrors.RemoteFailureError("Could not load the buyer profile").WithError(err)
	}

	return profile, nil
}

func (s *profileService) UpdateProfile(ctx context.Context, buyerID uuid.UUID, req *models.UpdateProfileRequest) (*models.BuyerProfile, error) {

	req.DisplayName = sanitizeText(req.DisplayName)
	req.Phone = sanitizeText(req.Phone)

	profile, err := s.profiles.UpdateProfile(ctx, buyerID, req)
	if err != nil {
		if appErrors.HasCode(err, appErrors.ErrCodeNotFound) {
			return nil, err
		}

		return nil, appErrors.RemoteFailureError("Could not update the buyer profile").WithError(err)
	}

	return profile, nil
}
