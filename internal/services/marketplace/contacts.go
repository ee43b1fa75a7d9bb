package marketplace

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/chantierdirect/backend/internal/models"
	"github.com/chantierdirect/backend/internal/repository"
)

// ContactInput is a message from a donneur d'ordre to a subcontractor
type ContactInput struct {
	ToUserID  uuid.UUID
	ProjectID *uuid.UUID
	Subject   string
	Message   string
}

// Contact sends a contact request to a VERIFIED subcontractor
func (s *Service) Contact(ctx context.Context, from *models.User, in ContactInput) (*models.ContactRequest, error) {
	if from.Role != models.RoleDonneurOrdre {
		return nil, ErrForbidden
	}
	subject := strings.TrimSpace(in.Subject)
	message := strings.TrimSpace(in.Message)
	if subject == "" || message == "" {
		return nil, fmt.Errorf("%w: subject and message are required", ErrInvalidInput)
	}

	target, err := s.users.FindByID(ctx, in.ToUserID)
	if err != nil {
		return nil, err
	}
	if target.Role != models.RoleSousTraitant {
		return nil, fmt.Errorf("%w: only subcontractors can be contacted", ErrInvalidInput)
	}
	if err := s.requireVerified(ctx, target); err != nil {
		return nil, err
	}

	if in.ProjectID != nil {
		project, err := s.projects.FindByID(ctx, *in.ProjectID)
		if err != nil {
			return nil, err
		}
		if project.OwnerID != from.ID {
			return nil, ErrForbidden
		}
	}

	request := &models.ContactRequest{
		FromUserID: from.ID,
		ToUserID:   target.ID,
		ProjectID:  in.ProjectID,
		Subject:    subject,
		Message:    message,
	}
	if err := s.contacts.CreateRequest(ctx, request); err != nil {
		return nil, err
	}

	s.logger.Info("contact request sent",
		zap.String("from_user_id", from.ID.String()),
		zap.String("to_user_id", target.ID.String()),
	)
	return request, nil
}

// Inbox returns the contact requests a user received
func (s *Service) Inbox(ctx context.Context, user *models.User) ([]models.ContactRequest, error) {
	return s.contacts.Inbox(ctx, user.ID)
}

// MarkRead marks a received contact request as read
func (s *Service) MarkRead(ctx context.Context, user *models.User, id uuid.UUID) error {
	return s.contacts.MarkRead(ctx, id, user.ID)
}

// SubmitContactForm stores a message from the public contact form
func (s *Service) SubmitContactForm(ctx context.Context, msg *models.ContactMessage) error {
	msg.Name = strings.TrimSpace(msg.Name)
	msg.Email = strings.TrimSpace(msg.Email)
	msg.Body = strings.TrimSpace(msg.Body)
	if msg.Name == "" || msg.Email == "" || msg.Body == "" {
		return fmt.Errorf("%w: name, email and message are required", ErrInvalidInput)
	}
	return s.contacts.CreateMessage(ctx, msg)
}

// ContactMessages lists the public contact form messages for admins
func (s *Service) ContactMessages(ctx context.Context, page repository.Page) ([]models.ContactMessage, int64, error) {
	return s.contacts.ListMessages(ctx, page)
}
