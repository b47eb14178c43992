package campaign

import (
	"context"
	"math"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
)

var (
	// ErrNameRequired is returned when a campaign or category has no name.
	ErrNameRequired = errors.New("name is required")
	// ErrEmptyRealign is returned when a realign request carries no updates.
	ErrEmptyRealign = errors.New("realign request cannot be empty")
	// ErrRankOutOfRange is returned for ranks outside the 32-bit range.
	ErrRankOutOfRange = errors.New("rank out of range")
)

// Service manages the campaign catalog.
type Service struct {
	campaigns  Repository
	categories CategoryRepository
	newID      func() string
}

// NewService creates a catalog Service.
func NewService(campaigns Repository, categories CategoryRepository) *Service {
	return &Service{
		campaigns:  campaigns,
		categories: categories,
		newID:      func() string { return uuid.New().String() },
	}
}

// List returns every campaign, active or not.
func (s *Service) List(ctx context.Context) ([]Campaign, error) {
	return s.campaigns.List(ctx)
}

// Create validates c, assigns it an ID and stores it. Unknown discount types
// are accepted: they are stored as-is and contribute nothing when applied.
func (s *Service) Create(ctx context.Context, c *Campaign) error {
	if c.Name == "" {
		return ErrNameRequired
	}
	if err := Validate(*c); err != nil {
		return err
	}
	if c.CategoryID != "" {
		if _, err := s.category(ctx, c.CategoryID); err != nil {
			return err
		}
	}
	c.ID = s.newID()
	if err := s.campaigns.Create(ctx, c); err != nil {
		return errors.Wrap(err, "create campaign")
	}
	return nil
}

// SetActive activates or soft-deletes a campaign.
func (s *Service) SetActive(ctx context.Context, id string, active bool) error {
	return s.campaigns.SetActive(ctx, id, active)
}

// Categories returns campaign categories sorted by rank.
func (s *Service) Categories(ctx context.Context) ([]Category, error) {
	cats, err := s.categories.ListCategories(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list categories")
	}
	return SortCategories(cats), nil
}

// CreateCategory stores a new category. A missing rank places it after all
// existing categories.
func (s *Service) CreateCategory(ctx context.Context, c *Category) error {
	if c.Name == "" {
		return ErrNameRequired
	}
	if c.Rank == nil {
		cats, err := s.categories.ListCategories(ctx)
		if err != nil {
			return errors.Wrap(err, "list categories")
		}
		next := NextRank(cats)
		c.Rank = &next
	}
	if err := checkRank(*c.Rank); err != nil {
		return err
	}
	c.ID = s.newID()
	if err := s.categories.CreateCategory(ctx, c); err != nil {
		return errors.Wrap(err, "create category")
	}
	return nil
}

// Realign assigns new ranks. Updates without a category ID are ignored.
func (s *Service) Realign(ctx context.Context, updates []RankUpdate) error {
	if len(updates) == 0 {
		return ErrEmptyRealign
	}
	valid := make([]RankUpdate, 0, len(updates))
	for _, u := range updates {
		if u.CategoryID == "" {
			continue
		}
		if err := checkRank(u.Rank); err != nil {
			return err
		}
		valid = append(valid, u)
	}
	if len(valid) == 0 {
		return nil
	}
	if err := s.categories.Realign(ctx, valid); err != nil {
		return errors.Wrap(err, "realign categories")
	}
	return nil
}

func checkRank(rank int) error {
	if rank < math.MinInt32 || rank > math.MaxInt32 {
		return errors.Wrapf(ErrRankOutOfRange, "%d", rank)
	}
	return nil
}

func (s *Service) category(ctx context.Context, id string) (*Category, error) {
	cats, err := s.categories.ListCategories(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list categories")
	}
	for i := range cats {
		if cats[i].ID == id {
			return &cats[i], nil
		}
	}
	return nil, ErrCategoryNotFound
}
