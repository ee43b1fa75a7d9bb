package marketplace

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/chantierdirect/backend/internal/models"
	"github.com/chantierdirect/backend/internal/repository"
	"github.com/chantierdirect/backend/internal/verification"
)

// directoryChunk is how many candidates are read per scan step
const directoryChunk = 100

// DirectoryPage is one page of the public directory
type DirectoryPage struct {
	Companies []models.PublicProfile
	Page      repository.Page
	HasMore   bool
}

// Directory lists the VERIFIED subcontractors matching the filter. Paging
// applies to verified companies: candidates are scanned in chunks until the
// requested page is full, so unverified accounts never shorten a page. The
// documents of each chunk are read in one batch; if that read fails every
// company of the chunk is shown.
func (s *Service) Directory(ctx context.Context, filter repository.DirectoryFilter) (*DirectoryPage, error) {
	page := filter.Page.Normalize()
	skip := page.Offset()
	required := s.catalog.RequiredTypesForRole(models.RoleSousTraitant)

	profiles := make([]models.PublicProfile, 0, page.Size+1)
	scan := filter
	for chunk := 1; len(profiles) <= page.Size; chunk++ {
		scan.Page = repository.Page{Number: chunk, Size: directoryChunk}
		users, total, err := s.users.ListByRole(ctx, models.RoleSousTraitant, scan)
		if err != nil {
			return nil, err
		}
		if len(users) == 0 {
			break
		}

		verified := s.verifiedOnly(ctx, required, users)
		for i := range verified {
			if skip > 0 {
				skip--
				continue
			}
			profiles = append(profiles, verified[i].Profile())
			if len(profiles) > page.Size {
				break
			}
		}

		if int64(chunk*directoryChunk) >= total {
			break
		}
	}

	result := &DirectoryPage{Companies: profiles, Page: page}
	if len(profiles) > page.Size {
		result.Companies = profiles[:page.Size]
		result.HasMore = true
	}
	return result, nil
}

// verifiedOnly keeps the users whose documents make them VERIFIED
func (s *Service) verifiedOnly(ctx context.Context, required []models.DocumentType, users []models.User) []models.User {
	ids := make([]uuid.UUID, len(users))
	for i, u := range users {
		ids[i] = u.ID
	}

	grouped, fetchErr := s.submissions.ListForUsers(ctx, ids)
	if fetchErr != nil {
		s.logger.Warn("directory document fetch failed, listing every company",
			zap.Int("companies", len(users)),
			zap.Error(fetchErr),
		)
	}

	kept := make([]models.User, 0, len(users))
	for i := range users {
		if verification.Resolve(required, grouped[users[i].ID], fetchErr) == verification.StatusVerified {
			kept = append(kept, users[i])
		}
	}
	return kept
}

// ProfileView is a company profile with its verification status
type ProfileView struct {
	models.PublicProfile
	Role               models.Role         `json:"role"`
	VerificationStatus verification.Status `json:"verification_status"`
}

// Profile returns a company's public profile. Companies that are not
// VERIFIED are only visible to themselves and to admins; anyone else gets
// repository.ErrNotFound.
func (s *Service) Profile(ctx context.Context, viewer *models.User, id uuid.UUID) (*ProfileView, error) {
	target, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	status := s.verifier.Status(ctx, target.ID, target.Role)
	self := viewer != nil && viewer.ID == target.ID
	admin := viewer != nil && viewer.IsAdmin()
	if status != verification.StatusVerified && !self && !admin {
		return nil, repository.ErrNotFound
	}

	return &ProfileView{
		PublicProfile:      target.Profile(),
		Role:               target.Role,
		VerificationStatus: status,
	}, nil
}
