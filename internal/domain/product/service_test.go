package product

import (
	"context"
	"testing"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockRepo struct {
	products   []Product
	categories []Category
	deleted    []string
	err        error
}

func (m *mockRepo) GetByIDs(_ context.Context, _ []string) ([]Product, error) {
	return m.products, m.err
}

func (m *mockRepo) List(_ context.Context) ([]Product, error) { return m.products, m.err }

func (m *mockRepo) Create(_ context.Context, p *Product) error {
	if m.err != nil {
		return m.err
	}
	m.products = append(m.products, *p)
	return nil
}

func (m *mockRepo) ListCategories(_ context.Context) ([]Category, error) {
	return m.categories, m.err
}

func (m *mockRepo) CreateCategory(_ context.Context, c *Category) error {
	if m.err != nil {
		return m.err
	}
	m.categories = append(m.categories, *c)
	return nil
}

func (m *mockRepo) DeleteCategory(_ context.Context, id string) error {
	if m.err != nil {
		return m.err
	}
	m.deleted = append(m.deleted, id)
	return nil
}

func newTestService(repo *mockRepo) *Service {
	svc := NewService(repo)
	svc.newID = func() string { return "generated" }
	return svc
}

func TestServiceCreate(t *testing.T) {
	tests := []struct {
		name    string
		product Product
		wantErr error
	}{
		{
			name:    "valid",
			product: Product{Name: "  Scarf ", CategoryID: "apparel", Price: decimal.NewFromInt(12)},
		},
		{
			name:    "blank name",
			product: Product{Name: "   ", CategoryID: "apparel", Price: decimal.NewFromInt(12)},
			wantErr: ErrNameRequired,
		},
		{
			name:    "no category",
			product: Product{Name: "Scarf", Price: decimal.NewFromInt(12)},
			wantErr: ErrCategoryRequired,
		},
		{
			name:    "zero price",
			product: Product{Name: "Scarf", CategoryID: "apparel"},
			wantErr: ErrInvalidPrice,
		},
		{
			name:    "negative price",
			product: Product{Name: "Scarf", CategoryID: "apparel", Price: decimal.NewFromInt(-1)},
			wantErr: ErrInvalidPrice,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockRepo{}
			p := tt.product

			err := newTestService(repo).Create(context.Background(), &p)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, repo.products)
				return
			}
			require.NoError(t, err)
			require.Len(t, repo.products, 1)
			assert.Equal(t, "generated", repo.products[0].ID)
			assert.Equal(t, "Scarf", repo.products[0].Name)
			assert.True(t, repo.products[0].IsActive)
		})
	}
}

func TestServiceCreate_RepoError(t *testing.T) {
	repo := &mockRepo{err: ErrDuplicateName}
	p := Product{Name: "Scarf", CategoryID: "apparel", Price: decimal.NewFromInt(1)}

	require.ErrorIs(t, newTestService(repo).Create(context.Background(), &p), ErrDuplicateName)
}

func TestServiceCategories(t *testing.T) {
	repo := &mockRepo{}
	svc := newTestService(repo)

	c := Category{Name: " Garden "}
	require.NoError(t, svc.CreateCategory(context.Background(), &c))
	assert.Equal(t, Category{ID: "generated", Name: "Garden"}, c)

	require.ErrorIs(t, svc.CreateCategory(context.Background(), &Category{Name: " "}), ErrNameRequired)

	cats, err := svc.Categories(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []Category{{ID: "generated", Name: "Garden"}}, cats)

	require.NoError(t, svc.DeleteCategory(context.Background(), "generated"))
	assert.Equal(t, []string{"generated"}, repo.deleted)

	repo.err = ErrCategoryInUse
	err = svc.DeleteCategory(context.Background(), "apparel")
	require.True(t, errors.Is(err, ErrCategoryInUse))
}
