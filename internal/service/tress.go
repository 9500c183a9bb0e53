// Package service contains the business logic layer: the handler parses
// HTTP, the service enforces the rules, the repository talks to the
// database. Services accept primitives and domain types, never *http.Request,
// and return apperror values rather than status codes.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/tressa/tressa/internal/apperror"
	"github.com/tressa/tressa/internal/guard"
	"github.com/tressa/tressa/internal/model"
	"github.com/tressa/tressa/internal/repository"
)

const (
	MaxTitleLength = 200

	// Expiry day-count bounds for a caller-supplied expires_in_days.
	// Authenticated callers get the same 365-day cap as anonymous ones;
	// an uncapped value would let a typo create a row that outlives the
	// service.
	MinExpiryDays = 1
	MaxExpiryDays = 365

	// Anonymous tresses default to a 30-day expiry when the caller does
	// not supply one. Authenticated tresses default to no expiry.
	DefaultAnonymousExpiryDays = 30

	DefaultListLimit = 20
	MaxListLimit     = 100

	MinPageSize = 1
	MaxPageSize = 100
)

// TressService owns the tress lifecycle: creation with ownership/expiry
// resolution, expiry-aware reads, owner-gated mutation, and pagination.
type TressService struct {
	repo   repository.TressRepository
	logger *slog.Logger
	now    func() time.Time // injectable clock for expiry tests
}

// NewTressService creates a TressService.
func NewTressService(repo repository.TressRepository, logger *slog.Logger) *TressService {
	return &TressService{
		repo:   repo,
		logger: logger,
		now:    time.Now,
	}
}

// CreateInput carries the client-supplied fields for a new tress.
// IsPublic and ExpiresInDays are pointers so "absent" is distinguishable
// from the zero value: absent IsPublic defaults to public, absent
// ExpiresInDays picks the per-auth-state default.
type CreateInput struct {
	Title         string
	Content       string
	Language      string
	IsPublic      *bool
	ExpiresInDays *int
}

// UpdateInput carries the mutable fields for an update. Owner identity and
// creation time are not here — they are immutable. An absent ExpiresInDays
// preserves the existing expiry unchanged; a present one recomputes it
// from now.
type UpdateInput struct {
	Title         string
	Content       string
	Language      string
	IsPublic      *bool
	ExpiresInDays *int
}

// Create validates, sanitizes, and persists a new tress.
//
// owner is nil for anonymous submissions: the tress gets no owner_id, the
// "Anonymous" username snapshot, and the 30-day default expiry. Policy
// order is size → sanitize → language — the language check runs against
// the submitted text (the sanitized copy is what gets stored).
func (s *TressService) Create(ctx context.Context, in CreateInput, owner *model.User) (*model.Tress, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, apperror.ValidationFailed("title", "tress title is required")
	}
	if len(title) > MaxTitleLength {
		return nil, apperror.ValidationFailed("title",
			fmt.Sprintf("tress title must be %d characters or less", MaxTitleLength))
	}
	if in.Content == "" {
		return nil, apperror.ValidationFailed("content", "tress content is required")
	}

	authenticated := owner != nil

	if err := guard.ValidateSize(in.Content, authenticated); err != nil {
		return nil, err
	}

	sanitized := guard.Sanitize(in.Content)

	if !guard.ValidateLanguage(in.Language, in.Content) {
		return nil, apperror.ValidationFailed("language",
			fmt.Sprintf("content does not match declared language %q", in.Language))
	}

	expiresAt, err := s.resolveExpiry(in.ExpiresInDays, authenticated, nil)
	if err != nil {
		return nil, err
	}

	tress := &model.Tress{
		Title:         title,
		Content:       sanitized,
		Language:      strings.ToLower(strings.TrimSpace(in.Language)),
		IsPublic:      in.IsPublic == nil || *in.IsPublic,
		OwnerUsername: model.AnonymousUsername,
		ExpiresAt:     expiresAt,
	}
	if owner != nil {
		id := owner.ID
		tress.OwnerID = &id
		tress.OwnerUsername = owner.Username
	}

	if err := s.repo.Create(ctx, tress); err != nil {
		s.logger.Error("failed to create tress",
			slog.String("title", title),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating tress: %w", err)
	}

	s.logger.Info("tress created",
		slog.String("id", tress.ID),
		slog.String("owner", tress.OwnerUsername),
		slog.Bool("public", tress.IsPublic),
	)

	return tress, nil
}

// GetByID retrieves a tress, applying visibility: public tresses are
// readable by anyone, private ones only by their owner. Expired tresses
// are not found (the repository filters them). requesterID is "" for
// anonymous callers.
func (s *TressService) GetByID(ctx context.Context, id, requesterID string) (*model.Tress, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "tress ID is required")
	}

	tress, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !tress.IsPublic && !isOwner(tress, requesterID) {
		return nil, apperror.Forbidden("not authorized to access this tress")
	}

	return tress, nil
}

// ListPublic returns public tresses with skip/limit pagination, newest
// first. Out-of-range values are clamped rather than rejected — this is
// the original non-paged list endpoint's behavior.
func (s *TressService) ListPublic(ctx context.Context, skip, limit int) ([]model.Tress, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	if skip < 0 {
		skip = 0
	}

	tresses, err := s.repo.ListPublic(ctx, repository.ListOptions{Limit: limit, Offset: skip})
	if err != nil {
		s.logger.Error("failed to list public tresses", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing public tresses: %w", err)
	}
	return tresses, nil
}

// ListOwned returns the requester's own tresses (public and private).
func (s *TressService) ListOwned(ctx context.Context, ownerID string, skip, limit int) ([]model.Tress, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	if skip < 0 {
		skip = 0
	}

	tresses, err := s.repo.ListOwnedBy(ctx, ownerID, repository.ListOptions{Limit: limit, Offset: skip})
	if err != nil {
		s.logger.Error("failed to list owned tresses",
			slog.String("ownerID", ownerID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("listing owned tresses: %w", err)
	}
	return tresses, nil
}

// PagePublic returns one page of public tress previews. Pages are 1-based;
// pageSize must be within [1,100] — out-of-range paging parameters are a
// validation error on the paged endpoints, unlike the clamping skip/limit
// ones.
func (s *TressService) PagePublic(ctx context.Context, page, pageSize int) (*model.TressPage, error) {
	if err := validatePaging(page, pageSize); err != nil {
		return nil, err
	}

	total, err := s.repo.CountPublic(ctx)
	if err != nil {
		return nil, fmt.Errorf("counting public tresses: %w", err)
	}

	tresses, err := s.repo.ListPublic(ctx, repository.ListOptions{
		Limit:  pageSize,
		Offset: (page - 1) * pageSize,
	})
	if err != nil {
		return nil, fmt.Errorf("listing public tresses: %w", err)
	}

	return buildPage(tresses, page, pageSize, total), nil
}

// PageOwned returns one page of the requester's own tress previews.
func (s *TressService) PageOwned(ctx context.Context, ownerID string, page, pageSize int) (*model.TressPage, error) {
	if err := validatePaging(page, pageSize); err != nil {
		return nil, err
	}

	total, err := s.repo.CountOwnedBy(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("counting owned tresses: %w", err)
	}

	tresses, err := s.repo.ListOwnedBy(ctx, ownerID, repository.ListOptions{
		Limit:  pageSize,
		Offset: (page - 1) * pageSize,
	})
	if err != nil {
		return nil, fmt.Errorf("listing owned tresses: %w", err)
	}

	return buildPage(tresses, page, pageSize, total), nil
}

// Update replaces the mutable fields of a tress. Only the owner may
// update; anonymous tresses have no owner and therefore can never be
// updated. The caller is necessarily authenticated, so the authenticated
// size ceiling applies.
func (s *TressService) Update(ctx context.Context, id string, in UpdateInput, requesterID string) (*model.Tress, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "tress ID is required")
	}

	tress, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !isOwner(tress, requesterID) {
		return nil, apperror.Forbidden("not authorized to modify this tress")
	}

	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, apperror.ValidationFailed("title", "tress title is required")
	}
	if len(title) > MaxTitleLength {
		return nil, apperror.ValidationFailed("title",
			fmt.Sprintf("tress title must be %d characters or less", MaxTitleLength))
	}
	if in.Content == "" {
		return nil, apperror.ValidationFailed("content", "tress content is required")
	}

	if err := guard.ValidateSize(in.Content, true); err != nil {
		return nil, err
	}

	sanitized := guard.Sanitize(in.Content)

	if !guard.ValidateLanguage(in.Language, in.Content) {
		return nil, apperror.ValidationFailed("language",
			fmt.Sprintf("content does not match declared language %q", in.Language))
	}

	// An omitted day count preserves the current expiry as-is, even on a
	// nearly-expired tress. A supplied one recomputes from now.
	expiresAt, err := s.resolveExpiry(in.ExpiresInDays, true, tress.ExpiresAt)
	if err != nil {
		return nil, err
	}

	tress.Title = title
	tress.Content = sanitized
	tress.Language = strings.ToLower(strings.TrimSpace(in.Language))
	if in.IsPublic != nil {
		tress.IsPublic = *in.IsPublic
	}
	tress.ExpiresAt = expiresAt

	if err := s.repo.Update(ctx, tress); err != nil {
		s.logger.Error("failed to update tress",
			slog.String("id", id),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("updating tress: %w", err)
	}

	s.logger.Info("tress updated", slog.String("id", tress.ID))
	return tress, nil
}

// Delete removes a tress permanently. Only the owner may delete, and an
// expired-but-unswept tress is still deletable — the lookup here is the
// one read that does not treat expired rows as absent.
func (s *TressService) Delete(ctx context.Context, id, requesterID string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return apperror.ValidationFailed("id", "tress ID is required")
	}

	tress, err := s.repo.GetByIDIncludingExpired(ctx, id)
	if err != nil {
		return err
	}
	if !isOwner(tress, requesterID) {
		return apperror.Forbidden("not authorized to delete this tress")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("tress deleted", slog.String("id", id))
	return nil
}

// resolveExpiry turns a caller-supplied day count into an absolute expiry.
//
//	days present → now + days (bounds-checked)
//	days absent, creating anonymously  → now + 30 days
//	days absent, creating authenticated → no expiry
//	days absent, updating → the existing expiry, untouched
func (s *TressService) resolveExpiry(days *int, authenticated bool, existing *time.Time) (*time.Time, error) {
	if days == nil {
		if existing != nil {
			return existing, nil
		}
		if !authenticated {
			t := s.now().UTC().Add(DefaultAnonymousExpiryDays * 24 * time.Hour)
			return &t, nil
		}
		return nil, nil
	}

	if *days < MinExpiryDays || *days > MaxExpiryDays {
		return nil, apperror.ValidationFailed("expiresInDays",
			fmt.Sprintf("expiry must be between %d and %d days", MinExpiryDays, MaxExpiryDays))
	}

	t := s.now().UTC().Add(time.Duration(*days) * 24 * time.Hour)
	return &t, nil
}

func isOwner(tress *model.Tress, requesterID string) bool {
	return requesterID != "" && tress.OwnerID != nil && *tress.OwnerID == requesterID
}

func validatePaging(page, pageSize int) error {
	if page < 1 {
		return apperror.ValidationFailed("page", "page must be 1 or greater")
	}
	if pageSize < MinPageSize || pageSize > MaxPageSize {
		return apperror.ValidationFailed("pageSize",
			fmt.Sprintf("page size must be between %d and %d", MinPageSize, MaxPageSize))
	}
	return nil
}

// buildPage assembles the preview page: total pages by ceiling division,
// has-next/has-prev from the 1-based page number.
func buildPage(tresses []model.Tress, page, pageSize, total int) *model.TressPage {
	previews := make([]model.TressPreview, 0, len(tresses))
	for i := range tresses {
		previews = append(previews, tresses[i].Preview())
	}

	totalPages := (total + pageSize - 1) / pageSize

	return &model.TressPage{
		Items:      previews,
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
		HasPrev:    page > 1,
	}
}
