// Package pricing loads a user's cart, campaign selection and points, and
// runs the discount engine over them.
package pricing

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/kart-campaigns/internal/domain/campaign"
	"github.com/xenking/kart-campaigns/internal/domain/cart"
	"github.com/xenking/kart-campaigns/internal/domain/discount"
	"github.com/xenking/kart-campaigns/internal/domain/product"
)

const instrumentationName = "github.com/xenking/kart-campaigns/internal/domain/pricing"

// ErrCampaignInactive is returned when toggling on a deactivated campaign.
var ErrCampaignInactive = errors.New("campaign is not active")

// Quote is the priced view of a cart.
type Quote struct {
	UserID   string
	Items    []cart.Item
	Subtotal decimal.Decimal
	Points   decimal.Decimal
	// Campaigns are the applied campaigns in application order.
	Campaigns []campaign.Campaign
	Result    discount.Result
}

// Deps holds the collaborators of a Service.
type Deps struct {
	Campaigns  campaign.Repository
	Categories campaign.CategoryRepository
	Products   product.Lookup
	Carts      cart.Repository
	Selections cart.SelectionRepository
	Points     cart.PointsRepository

	// TracerProvider and MeterProvider default to no-op providers.
	TracerProvider trace.TracerProvider
	MeterProvider  metric.MeterProvider
}

// Service prices carts and maintains campaign selections.
type Service struct {
	campaigns  campaign.Repository
	categories campaign.CategoryRepository
	products   product.Lookup
	carts      cart.Repository
	selections cart.SelectionRepository
	points     cart.PointsRepository

	tracer       trace.Tracer
	quotes       metric.Int64Counter
	applied      metric.Int64Counter
	unknownTypes metric.Int64Counter
}

// NewService creates a pricing Service.
func NewService(deps Deps) (*Service, error) {
	tp := deps.TracerProvider
	if tp == nil {
		tp = tracenoop.NewTracerProvider()
	}
	mp := deps.MeterProvider
	if mp == nil {
		mp = metricnoop.NewMeterProvider()
	}
	meter := mp.Meter(instrumentationName)

	s := &Service{
		campaigns:  deps.Campaigns,
		categories: deps.Categories,
		products:   deps.Products,
		carts:      deps.Carts,
		selections: deps.Selections,
		points:     deps.Points,
		tracer:     tp.Tracer(instrumentationName),
	}

	var err error
	if s.quotes, err = meter.Int64Counter("pricing.quotes",
		metric.WithDescription("Number of computed cart quotes"),
	); err != nil {
		return nil, errors.Wrap(err, "quotes counter")
	}
	if s.applied, err = meter.Int64Counter("pricing.campaigns.applied",
		metric.WithDescription("Number of campaigns that produced a discount"),
	); err != nil {
		return nil, errors.Wrap(err, "applied counter")
	}
	if s.unknownTypes, err = meter.Int64Counter("pricing.campaigns.unknown_type",
		metric.WithDescription("Number of selected campaigns with an unsupported discount type"),
	); err != nil {
		return nil, errors.Wrap(err, "unknown type counter")
	}
	return s, nil
}

// Quote prices the cart of userID with the campaigns the user selected.
// Every call reads fresh data; nothing is cached between calls.
func (s *Service) Quote(ctx context.Context, userID string) (_ *Quote, rerr error) {
	ctx, span := s.tracer.Start(ctx, "pricing.Quote",
		trace.WithAttributes(attribute.String("user.id", userID)),
	)
	defer func() {
		if rerr != nil {
			span.RecordError(rerr)
			span.SetStatus(codes.Error, rerr.Error())
		}
		span.End()
	}()

	var (
		items      []cart.Item
		selected   []campaign.Campaign
		categories []campaign.Category
		points     decimal.Decimal
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if items, err = s.carts.ListItems(gctx, userID); err != nil {
			return errors.Wrap(err, "list cart items")
		}
		return nil
	})
	g.Go(func() error {
		var err error
		selected, err = s.loadSelection(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		if categories, err = s.categories.ListCategories(gctx); err != nil {
			return errors.Wrap(err, "list categories")
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if points, err = s.points.Balance(gctx, userID); err != nil {
			return errors.Wrap(err, "points balance")
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	catalog, err := s.catalogFor(ctx, items)
	if err != nil {
		return nil, err
	}

	lg := zctx.From(ctx)
	ordered := campaign.Order(campaign.ActiveOnly(selected), categories)
	for _, c := range ordered {
		if err := campaign.Validate(c); err != nil {
			return nil, err
		}
		if !c.DiscountType.Known() {
			lg.Warn("Campaign has unsupported discount type, it will not discount",
				zap.String("campaign_id", c.ID),
				zap.String("discount_type", string(c.DiscountType)),
			)
			s.unknownTypes.Add(ctx, 1)
		}
	}

	engineItems := make([]discount.Item, len(items))
	for i, item := range items {
		engineItems[i] = discount.Item{
			ID:          item.ID,
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			UnitPrice:   item.UnitPrice,
			Quantity:    item.Quantity,
		}
	}
	subtotal := discount.Subtotal(engineItems)
	if err := discount.ValidateInput(engineItems, points, subtotal); err != nil {
		return nil, err
	}

	result := discount.Compute(ordered, engineItems, catalog, points, subtotal)

	s.quotes.Add(ctx, 1)
	s.applied.Add(ctx, int64(len(result.Breakdown)))
	span.SetAttributes(
		attribute.Int("cart.items", len(items)),
		attribute.Int("campaigns.selected", len(ordered)),
		attribute.Int("campaigns.applied", len(result.Breakdown)),
	)
	lg.Debug("Quote computed",
		zap.String("user_id", userID),
		zap.Stringer("subtotal", subtotal),
		zap.Stringer("discount", result.TotalDiscount),
		zap.Int("applied", len(result.Breakdown)),
	)

	return &Quote{
		UserID:    userID,
		Items:     items,
		Subtotal:  subtotal,
		Points:    points,
		Campaigns: ordered,
		Result:    result,
	}, nil
}

// Selection returns the campaigns userID selected, in application order.
func (s *Service) Selection(ctx context.Context, userID string) ([]campaign.Campaign, error) {
	selected, err := s.loadSelection(ctx, userID)
	if err != nil {
		return nil, err
	}
	categories, err := s.categories.ListCategories(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list categories")
	}
	return campaign.Order(selected, categories), nil
}

// Toggle flips campaignID in the selection of userID, replacing any selected
// campaign of the same category, and returns the new selection in
// application order.
func (s *Service) Toggle(ctx context.Context, userID, campaignID string) ([]campaign.Campaign, error) {
	target, err := s.campaigns.GetByID(ctx, campaignID)
	if err != nil {
		return nil, errors.Wrap(err, "get campaign")
	}

	selected, err := s.loadSelection(ctx, userID)
	if err != nil {
		return nil, err
	}
	isSelected := false
	for _, c := range selected {
		if c.ID == target.ID {
			isSelected = true
			break
		}
	}
	// Deactivated campaigns can still be removed, never added.
	if !isSelected && !target.IsActive {
		return nil, ErrCampaignInactive
	}

	next := campaign.Toggle(selected, *target)
	ids := make([]string, len(next))
	for i, c := range next {
		ids[i] = c.ID
	}
	if err := s.selections.Save(ctx, userID, ids); err != nil {
		return nil, errors.Wrap(err, "save selection")
	}

	categories, err := s.categories.ListCategories(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list categories")
	}
	return campaign.Order(next, categories), nil
}

// loadSelection returns the selected campaigns in selection order. IDs of
// campaigns that no longer exist are dropped.
func (s *Service) loadSelection(ctx context.Context, userID string) ([]campaign.Campaign, error) {
	ids, err := s.selections.Get(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "get selection")
	}
	if len(ids) == 0 {
		return nil, nil
	}

	found, err := s.campaigns.GetByIDs(ctx, ids)
	if err != nil {
		return nil, errors.Wrap(err, "get selected campaigns")
	}
	byID := make(map[string]campaign.Campaign, len(found))
	for _, c := range found {
		byID[c.ID] = c
	}

	out := make([]campaign.Campaign, 0, len(ids))
	for _, id := range ids {
		if c, ok := byID[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

// catalogFor resolves the category of every product in the cart. Products
// missing from the catalog are left out and become ineligible.
func (s *Service) catalogFor(ctx context.Context, items []cart.Item) (discount.Catalog, error) {
	if len(items) == 0 {
		return discount.Catalog{}, nil
	}
	ids := make([]string, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		if _, ok := seen[item.ProductID]; ok {
			continue
		}
		seen[item.ProductID] = struct{}{}
		ids = append(ids, item.ProductID)
	}

	products, err := s.products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, errors.Wrap(err, "get products")
	}
	return discount.Catalog(product.CategoryIndex(products)), nil
}
