package marketplace

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/chantierdirect/backend/internal/models"
)

// OfferInput holds the fields of a bid
type OfferInput struct {
	AmountCents int64
	DelayDays   int
	Message     string
}

// SubmitOffer places a bid on an open project. Only VERIFIED
// subcontractors may bid, once per project.
func (s *Service) SubmitOffer(ctx context.Context, bidder *models.User, projectID uuid.UUID, in OfferInput) (*models.Offer, error) {
	if bidder.Role != models.RoleSousTraitant {
		return nil, ErrForbidden
	}
	if in.AmountCents <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", ErrInvalidInput)
	}
	if in.DelayDays < 0 {
		return nil, fmt.Errorf("%w: delay must not be negative", ErrInvalidInput)
	}
	if err := s.requireVerified(ctx, bidder); err != nil {
		return nil, err
	}

	project, err := s.projects.FindByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if project.Status != models.ProjectStatusOpen {
		return nil, ErrInvalidTransition
	}

	offer := &models.Offer{
		ProjectID:   project.ID,
		BidderID:    bidder.ID,
		AmountCents: in.AmountCents,
		DelayDays:   in.DelayDays,
		Message:     strings.TrimSpace(in.Message),
	}
	if err := s.offers.Create(ctx, offer); err != nil {
		return nil, err
	}

	s.logger.Info("offer submitted",
		zap.String("offer_id", offer.ID.String()),
		zap.String("project_id", project.ID.String()),
		zap.String("bidder_id", bidder.ID.String()),
	)
	return offer, nil
}

// ListOffers returns the offers on a project. The owner and admins see
// every offer, a bidder only sees their own.
func (s *Service) ListOffers(ctx context.Context, viewer *models.User, projectID uuid.UUID) ([]models.Offer, error) {
	project, err := s.projects.FindByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	offers, err := s.offers.ListForProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if project.OwnerID == viewer.ID || viewer.IsAdmin() {
		return offers, nil
	}

	own := make([]models.Offer, 0, 1)
	for _, o := range offers {
		if o.BidderID == viewer.ID {
			own = append(own, o)
		}
	}
	return own, nil
}

// MyOffers returns a subcontractor's bids
func (s *Service) MyOffers(ctx context.Context, bidder *models.User) ([]models.Offer, error) {
	return s.offers.ListForBidder(ctx, bidder.ID)
}

// offerForOwner loads an offer and checks the actor owns its project
func (s *Service) offerForOwner(ctx context.Context, owner *models.User, offerID uuid.UUID) (*models.Offer, error) {
	offer, err := s.offers.FindByID(ctx, offerID)
	if err != nil {
		return nil, err
	}
	project, err := s.projects.FindByID(ctx, offer.ProjectID)
	if err != nil {
		return nil, err
	}
	if project.OwnerID != owner.ID {
		return nil, ErrForbidden
	}
	return offer, nil
}

// AcceptOffer awards the project to the offer. Every other pending offer
// on the project is declined.
func (s *Service) AcceptOffer(ctx context.Context, owner *models.User, offerID uuid.UUID) error {
	offer, err := s.offerForOwner(ctx, owner, offerID)
	if err != nil {
		return err
	}
	if err := s.offers.Award(ctx, offer.ProjectID, offer.ID); err != nil {
		return mapStale(err)
	}
	s.logger.Info("offer accepted",
		zap.String("offer_id", offer.ID.String()),
		zap.String("project_id", offer.ProjectID.String()),
	)
	return nil
}

// DeclineOffer refuses a pending offer
func (s *Service) DeclineOffer(ctx context.Context, owner *models.User, offerID uuid.UUID) error {
	offer, err := s.offerForOwner(ctx, owner, offerID)
	if err != nil {
		return err
	}
	return mapStale(s.offers.Transition(ctx, offer.ID, models.OfferStatusDeclined))
}

// WithdrawOffer lets a bidder take back a pending offer
func (s *Service) WithdrawOffer(ctx context.Context, bidder *models.User, offerID uuid.UUID) error {
	offer, err := s.offers.FindByID(ctx, offerID)
	if err != nil {
		return err
	}
	if offer.BidderID != bidder.ID {
		return ErrForbidden
	}
	return mapStale(s.offers.Transition(ctx, offer.ID, models.OfferStatusWithdrawn))
}
