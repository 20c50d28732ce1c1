package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	contactserrors "jdpanel/internal/contacts/errors"
	"jdpanel/internal/contacts/repository"
	"jdpanel/internal/contacts/validator"
	"jdpanel/pkg/config"
	apperrors "jdpanel/pkg/errors"
	"jdpanel/pkg/locale"
	"jdpanel/pkg/model"
	"jdpanel/pkg/sanitizer"
)

const (
	DefaultSearchLimit = 20
	DefaultRecentLimit = 5
	MaxRecentLimit     = 50
)

type ContactService interface {
	List(ctx context.Context, limit int, offset int64) ([]*model.Contact, int64, error)
	Search(ctx context.Context, term string, limit int) ([]*model.Contact, error)
	GetByID(ctx context.Context, id string) (*model.Contact, error)
	Create(ctx context.Context, input *model.NewContactInput) (*model.Contact, error)
	UpdateName(ctx context.Context, id string, input *model.UpdateNameInput) error
	GetDetails(ctx context.Context, id string) (*model.ContactDetails, error)
	Stats(ctx context.Context, since time.Time) (*model.ContactStats, error)
	Recent(ctx context.Context, n int) ([]*model.Contact, error)
	TouchLastInteraction(ctx context.Context, id string, at time.Time) error
}

type contactService struct {
	repo      repository.ContactRepository
	validator *validator.ContactValidator
	cfg       *config.Config
}

func NewContactService(
	repo repository.ContactRepository,
	validator *validator.ContactValidator,
	cfg *config.Config,
) ContactService {
	return &contactService{
		repo:      repo,
		validator: validator,
		cfg:       cfg,
	}
}

func (s *contactService) List(ctx context.Context, limit int, offset int64) ([]*model.Contact, int64, error) {
	var count int64
	var contacts []*model.Contact
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.Count(ctx)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count contacts", "error", errCount)
			errCount = apperrors.Internal("Failed to count contacts", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		contacts, errFind = s.repo.FindAll(ctx, limit, offset)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list contacts", "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve contacts", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return contacts, count, nil
}

func (s *contactService) Search(ctx context.Context, term string, limit int) ([]*model.Contact, error) {
	term = sanitizer.SanitizeSearchTerm(term)
	if term == "" {
		return nil, apperrors.InvalidInput("Search term cannot be empty")
	}
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	contacts, err := s.repo.Search(ctx, term, limit)
	if err != nil {
		s.cfg.Log.Error("Failed to search contacts", "term", term, "error", err)
		return nil, apperrors.Internal("Failed to search contacts", err)
	}
	return contacts, nil
}

func (s *contactService) GetByID(ctx context.Context, id string) (*model.Contact, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Contact ID cannot be empty")
	}

	contact, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.mapLookupError(id, "Failed to retrieve contact", err)
	}
	return contact, nil
}

// Create stores the contact and its optional technical file atomically.
func (s *contactService) Create(ctx context.Context, input *model.NewContactInput) (*model.Contact, error) {
	if err := s.validator.ValidateNew(input); err != nil {
		return nil, apperrors.Validation("Contact validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	contact := s.newContact(input)

	err := s.repo.ExecuteTransaction(ctx, func(txCtx context.Context) error {
		if err := s.repo.Create(txCtx, contact); err != nil {
			if errors.Is(err, contactserrors.ErrDuplicatePhone) {
				return apperrors.Conflict(contactserrors.ErrDuplicatePhone.Error())
			}
			return apperrors.Internal("Failed to create contact", err)
		}

		if input.TechnicalFile != nil {
			file := *input.TechnicalFile
			file.ContactID = contact.ID
			if err := s.repo.CreateTechnicalFile(txCtx, &file); err != nil {
				return apperrors.Internal("Failed to create technical file", err)
			}
		}
		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Failed to create contact", "error", err)
		return nil, err
	}

	s.cfg.Log.Info("Contact created successfully",
		"id", contact.ID,
		"origem_lead", contact.LeadOrigin,
		"with_technical_file", input.TechnicalFile != nil,
	)
	return contact, nil
}

func (s *contactService) newContact(input *model.NewContactInput) *model.Contact {
	name := sanitizer.NormalizeName(input.Name)
	contact := &model.Contact{
		Name:            &name,
		Phone:           sanitizer.SanitizeContactPhone(input.Phone),
		LeadOrigin:      strings.TrimSpace(input.LeadOrigin),
		LeadScore:       sanitizer.DefaultLeadScore,
		FunnelStage:     strings.TrimSpace(input.FunnelStage),
		CurrentInterest: strings.TrimSpace(input.CurrentInterest),
	}

	if email := strings.TrimSpace(input.Email); email != "" {
		email = strings.ToLower(email)
		contact.Email = &email
	}
	if input.LeadScore != nil {
		contact.LeadScore = sanitizer.ClampLeadScore(*input.LeadScore)
	}
	if contact.LeadOrigin == "" {
		contact.LeadOrigin = model.DefaultLeadOrigin
	}
	if contact.FunnelStage == "" {
		contact.FunnelStage = model.DefaultFunnelStage
	}
	if contact.CurrentInterest == "" {
		contact.CurrentInterest = model.DefaultInterest
	}
	return contact
}

func (s *contactService) UpdateName(ctx context.Context, id string, input *model.UpdateNameInput) error {
	if id == "" {
		return apperrors.InvalidInput("Contact ID cannot be empty")
	}
	if err := s.validator.ValidateUpdateName(input); err != nil {
		return apperrors.Validation("Contact validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	if err := s.repo.UpdateName(ctx, id, sanitizer.NormalizeName(input.Name)); err != nil {
		return s.mapLookupError(id, "Failed to update contact", err)
	}

	s.cfg.Log.Info("Contact name updated", "id", id)
	return nil
}

// GetDetails loads the contact, its technical file and memories concurrently.
func (s *contactService) GetDetails(ctx context.Context, id string) (*model.ContactDetails, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Contact ID cannot be empty")
	}

	var contact *model.Contact
	var file *model.TechnicalFile
	var memories []model.MemoryNote
	var errContact, errFile, errMemories error
	var wg sync.WaitGroup
	wg.Add(3)

	go func() {
		defer wg.Done()
		contact, errContact = s.repo.FindByID(ctx, id)
	}()

	go func() {
		defer wg.Done()
		file, errFile = s.repo.FindTechnicalFile(ctx, id)
	}()

	go func() {
		defer wg.Done()
		memories, errMemories = s.repo.FindMemories(ctx, id)
	}()

	wg.Wait()
	if errContact != nil {
		return nil, s.mapLookupError(id, "Failed to retrieve contact", errContact)
	}
	if errFile != nil {
		s.cfg.Log.Error("Failed to load technical file", "contact_id", id, "error", errFile)
		return nil, apperrors.Internal("Failed to retrieve technical file", errFile)
	}
	if errMemories != nil {
		s.cfg.Log.Error("Failed to load memories", "contact_id", id, "error", errMemories)
		return nil, apperrors.Internal("Failed to retrieve memories", errMemories)
	}
	if memories == nil {
		memories = []model.MemoryNote{}
	}

	return &model.ContactDetails{
		Contact:       *contact,
		ScoreBand:     model.BandFor(contact.LeadScore),
		TimeZone:      locale.InferTimezoneFromPhone(contact.Phone),
		TechnicalFile: file,
		Memories:      memories,
	}, nil
}

func (s *contactService) Stats(ctx context.Context, since time.Time) (*model.ContactStats, error) {
	var stats model.ContactStats
	var errNew, errFollowUp error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		stats.NewLeads, errNew = s.repo.CountCreatedSince(ctx, since)
	}()

	go func() {
		defer wg.Done()
		stats.FollowUpCount, errFollowUp = s.repo.CountByFunnelStage(ctx, model.FollowUpFunnelStage)
	}()

	wg.Wait()
	if err := errors.Join(errNew, errFollowUp); err != nil {
		s.cfg.Log.Error("Failed to compute contact stats", "error", err)
		return nil, apperrors.Internal("Failed to compute contact stats", err)
	}
	return &stats, nil
}

func (s *contactService) Recent(ctx context.Context, n int) ([]*model.Contact, error) {
	if n <= 0 {
		n = DefaultRecentLimit
	}
	if n > MaxRecentLimit {
		n = MaxRecentLimit
	}

	contacts, err := s.repo.FindAll(ctx, n, 0)
	if err != nil {
		s.cfg.Log.Error("Failed to list recent contacts", "error", err)
		return nil, apperrors.Internal("Failed to retrieve recent contacts", err)
	}
	return contacts, nil
}

func (s *contactService) TouchLastInteraction(ctx context.Context, id string, at time.Time) error {
	if err := s.repo.TouchLastInteraction(ctx, id, at); err != nil {
		if errors.Is(err, contactserrors.ErrInvalidID) {
			return apperrors.InvalidInput("Invalid contact ID format")
		}
		return apperrors.Internal("Failed to record contact interaction", err)
	}
	return nil
}

func (s *contactService) mapLookupError(id, message string, err error) error {
	if errors.Is(err, contactserrors.ErrNotFound) {
		return apperrors.NotFoundWithID("Contact", id)
	}
	if errors.Is(err, contactserrors.ErrInvalidID) {
		return apperrors.InvalidInput("Invalid contact ID format")
	}
	s.cfg.Log.Error(message, "id", id, "error", err)
	return apperrors.Internal(message, err)
}
