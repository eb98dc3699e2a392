package optimizer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/smartfood/grocery-service/internal/types"
)

const tracerName = "github.com/smartfood/grocery-service/internal/optimizer"

// Service resolves stores, prices and distances for single items and whole lists.
// Every operation performs its reads inside one snapshot.
type Service struct {
	store   DataStore
	config  *Config
	metrics *MetricsRecorder
	tracer  trace.Tracer
	logger  zerolog.Logger
}

// NewService creates a new service over the given data store.
func NewService(store DataStore, config *Config) *Service {
	if config == nil {
		config = Defaults()
	}
	return &Service{
		store:   store,
		config:  config,
		metrics: NewMetricsRecorder(),
		tracer:  otel.Tracer(tracerName),
		logger:  log.With().Str("component", "optimizer_service").Logger(),
	}
}

// Config returns the service configuration.
func (s *Service) Config() *Config {
	return s.config
}

// FindClosestStore returns the nearest store carrying the food item.
func (s *Service) FindClosestStore(ctx context.Context, userID, foodID int64) (best ScoredOffer, err error) {
	ctx, finish := s.begin(ctx, "closest",
		attribute.Int64("user.id", userID),
		attribute.Int64("food.id", foodID))
	defer func() { err = finish(err) }()

	err = s.store.ReadSnapshot(ctx, func(ctx context.Context, snap Snapshot) error {
		user, err := snap.GetUser(ctx, userID)
		if err != nil {
			return err
		}
		offers, err := s.offersForKnownFood(ctx, snap, foodID)
		if err != nil {
			return err
		}
		s.metrics.RecordOffersConsidered("closest", len(offers))

		b, ok := Best(&user.Location, offers, PolicyDistance, Filter{})
		if !ok {
			return types.NoMatchingResult(fmt.Sprintf("no store carries food item %d", foodID))
		}
		best = b
		return nil
	})
	if err == nil {
		s.metrics.RecordSelectedDistance("closest", best.DistanceKm)
	}
	return best, err
}

// CompareOffers lists the cheapest offers for a food item with rank numbers.
// A zero MaxStores uses the configured default.
func (s *Service) CompareOffers(ctx context.Context, req CompareRequest) (ranked []ScoredOffer, err error) {
	ctx, finish := s.begin(ctx, "compare", attribute.Int64("food.id", req.FoodID))
	defer func() { err = finish(err) }()

	if req.MaxStores == 0 {
		req.MaxStores = s.config.DefaultCompareStores
	}
	if err := req.Validate(s.config.MaxCompareStores); err != nil {
		return nil, err
	}

	err = s.store.ReadSnapshot(ctx, func(ctx context.Context, snap Snapshot) error {
		offers, err := s.offersForKnownFood(ctx, snap, req.FoodID)
		if err != nil {
			return err
		}
		s.metrics.RecordOffersConsidered("compare", len(offers))

		ranked = Rank(nil, offers, PolicyPrice, Filter{BudgetCeiling: req.PriceCeiling})
		if len(ranked) == 0 {
			return types.NoMatchingResult(fmt.Sprintf("no offers for food item %d within the price ceiling", req.FoodID))
		}
		if len(ranked) > req.MaxStores {
			ranked = ranked[:req.MaxStores]
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ranked, nil
}

// RouteOptimize returns the closest and the cheapest store for a food item
// over the same budget-filtered candidate set. Both slots are always filled
// unless req.Collapse is set and they name the same store.
func (s *Service) RouteOptimize(ctx context.Context, req RouteRequest) (result *RouteResult, err error) {
	ctx, finish := s.begin(ctx, "route",
		attribute.Int64("user.id", req.UserID),
		attribute.Int64("food.id", req.FoodID))
	defer func() { err = finish(err) }()

	if err := (Filter{BudgetCeiling: req.BudgetCeiling}).Validate(); err != nil {
		return nil, err
	}

	err = s.store.ReadSnapshot(ctx, func(ctx context.Context, snap Snapshot) error {
		user, err := snap.GetUser(ctx, req.UserID)
		if err != nil {
			return err
		}
		offers, err := s.offersForKnownFood(ctx, snap, req.FoodID)
		if err != nil {
			return err
		}
		budget, err := resolveBudget(user, req.BudgetCeiling, req.UseBudgetPreference)
		if err != nil {
			return err
		}
		s.metrics.RecordOffersConsidered("route", len(offers))

		dual := RankDual(&user.Location, offers, Filter{BudgetCeiling: budget})
		if len(dual.ByDistance) == 0 {
			if budget != nil {
				return types.NoMatchingResult(fmt.Sprintf("no offer for food item %d fits a budget of %d", req.FoodID, *budget))
			}
			return types.NoMatchingResult(fmt.Sprintf("no store carries food item %d", req.FoodID))
		}

		closest := dual.ByDistance[0]
		bestValue := dual.ByPrice[0]
		result = &RouteResult{
			Closest:   closest,
			BestValue: &bestValue,
			SameStore: closest.StoreID == bestValue.StoreID,
		}
		if req.Collapse && result.SameStore {
			result.BestValue = nil
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.metrics.RecordSelectedDistance("route", result.Closest.DistanceKm)
	return result, nil
}

// FulfillList picks the best store for every distinct item on a user's list.
// Items without a surviving offer are reported, never dropped.
func (s *Service) FulfillList(ctx context.Context, req FulfillRequest) (plan *FulfillmentPlan, err error) {
	ctx, finish := s.begin(ctx, "fulfill",
		attribute.Int64("user.id", req.UserID),
		attribute.Int64("list.id", req.ListID))
	defer func() { err = finish(err) }()

	if err := req.Validate(); err != nil {
		return nil, err
	}
	policy := req.Policy
	if policy == 0 {
		policy = s.config.DefaultPolicy
	}

	err = s.store.ReadSnapshot(ctx, func(ctx context.Context, snap Snapshot) error {
		lc, err := s.loadList(ctx, snap, req.UserID, req.ListID)
		if err != nil {
			return err
		}
		plan, err = s.planList(ctx, snap, lc, req, policy)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.recordPlan(plan, policy)
	return plan, nil
}

// ExportList plans a list and aggregates its nutrition from one snapshot so
// both views describe the same data. Nutrition is nil for an empty list.
func (s *Service) ExportList(ctx context.Context, req FulfillRequest) (plan *FulfillmentPlan, report *NutritionReport, err error) {
	ctx, finish := s.begin(ctx, "export",
		attribute.Int64("user.id", req.UserID),
		attribute.Int64("list.id", req.ListID))
	defer func() { err = finish(err) }()

	if err := req.Validate(); err != nil {
		return nil, nil, err
	}
	policy := req.Policy
	if policy == 0 {
		policy = s.config.DefaultPolicy
	}

	err = s.store.ReadSnapshot(ctx, func(ctx context.Context, snap Snapshot) error {
		lc, err := s.loadList(ctx, snap, req.UserID, req.ListID)
		if err != nil {
			return err
		}
		if plan, err = s.planList(ctx, snap, lc, req, policy); err != nil {
			return err
		}
		if len(lc.Lines) == 0 {
			return nil
		}
		report, err = s.nutritionFor(ctx, snap, lc, req.ListID)
		return err
	})
	if err != nil {
		return nil, nil, err
	}

	s.recordPlan(plan, policy)
	return plan, report, nil
}

// loadList reads the list context and enforces its preconditions.
func (s *Service) loadList(ctx context.Context, snap Snapshot, userID, listID int64) (*ListContext, error) {
	lc, err := snap.LoadListContext(ctx, userID, listID)
	if err != nil {
		return nil, err
	}
	if err := checkListContext(lc, userID, listID); err != nil {
		return nil, err
	}
	return lc, nil
}

func (s *Service) planList(ctx context.Context, snap Snapshot, lc *ListContext, req FulfillRequest, policy RankPolicy) (*FulfillmentPlan, error) {
	foodIDs := DistinctFoodIDs(lc.Lines)
	if len(foodIDs) > s.config.MaxListItems {
		return nil, types.InvalidConstraint("listId", fmt.Sprintf("list has %d items, limit is %d", len(foodIDs), s.config.MaxListItems))
	}
	budget, err := resolveBudget(lc.User, req.BudgetCeiling, req.UseBudgetPreference)
	if err != nil {
		return nil, err
	}

	offers := map[int64][]types.CatalogOffer{}
	if len(foodIDs) > 0 {
		offers, err = snap.GetOffersForFoodIDs(ctx, foodIDs)
		if err != nil {
			return nil, err
		}
	}

	plan := Plan(lc.User.Location, lc.Lines, offers, policy, Filter{
		BudgetCeiling: budget,
		MaxRadiusKm:   req.MaxRadiusKm,
	})
	plan.ListID = req.ListID
	return plan, nil
}

func (s *Service) recordPlan(plan *FulfillmentPlan, policy RankPolicy) {
	s.metrics.RecordListSize(len(plan.Items))
	for _, item := range plan.Items {
		if !item.Fulfilled() {
			s.metrics.RecordUnfulfillable(item.Reason)
		}
	}
	s.logger.Debug().
		Int64("list_id", plan.ListID).
		Str("policy", policy.String()).
		Int("items", len(plan.Items)).
		Int("fulfilled", plan.FulfilledCount).
		Int64("estimated_total", plan.EstimatedTotal).
		Msg("list planned")
}

// FindSnack returns the single best store for a food item within a radius.
func (s *Service) FindSnack(ctx context.Context, req SnackRequest) (best ScoredOffer, err error) {
	ctx, finish := s.begin(ctx, "snack",
		attribute.Int64("user.id", req.UserID),
		attribute.Int64("food.id", req.FoodID))
	defer func() { err = finish(err) }()

	if err := req.Validate(); err != nil {
		return ScoredOffer{}, err
	}
	policy := req.Policy
	if policy == 0 {
		policy = s.config.DefaultPolicy
	}
	radius := s.config.DefaultSnackRadiusKm
	if req.MaxRadiusKm != nil {
		radius = *req.MaxRadiusKm
	}

	err = s.store.ReadSnapshot(ctx, func(ctx context.Context, snap Snapshot) error {
		user, err := snap.GetUser(ctx, req.UserID)
		if err != nil {
			return err
		}
		offers, err := s.offersForKnownFood(ctx, snap, req.FoodID)
		if err != nil {
			return err
		}
		s.metrics.RecordOffersConsidered("snack", len(offers))

		b, ok := Best(&user.Location, offers, policy, Filter{MaxRadiusKm: &radius})
		if !ok {
			return types.NoMatchingResult(fmt.Sprintf("no store within %.1f km carries food item %d", radius, req.FoodID))
		}
		best = b
		return nil
	})
	if err == nil {
		s.metrics.RecordSelectedDistance("snack", best.DistanceKm)
	}
	return best, err
}

// ListNutritionFacts aggregates nutrition over every line of a user's list.
// A list without lines yields types.ErrListEmpty.
func (s *Service) ListNutritionFacts(ctx context.Context, userID, listID int64) (report *NutritionReport, err error) {
	ctx, finish := s.begin(ctx, "nutrition",
		attribute.Int64("user.id", userID),
		attribute.Int64("list.id", listID))
	defer func() { err = finish(err) }()

	err = s.store.ReadSnapshot(ctx, func(ctx context.Context, snap Snapshot) error {
		lc, err := s.loadList(ctx, snap, userID, listID)
		if err != nil {
			return err
		}
		if len(lc.Lines) == 0 {
			return types.ErrListEmpty
		}
		report, err = s.nutritionFor(ctx, snap, lc, listID)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.metrics.RecordListSize(len(report.Items))
	return report, nil
}

// nutritionFor aggregates nutrition over the lines of a non-empty list.
func (s *Service) nutritionFor(ctx context.Context, snap Snapshot, lc *ListContext, listID int64) (*NutritionReport, error) {
	facts, err := snap.GetNutritionFacts(ctx, DistinctFoodIDs(lc.Lines))
	if err != nil {
		return nil, err
	}

	lines := make([]NutritionLine, 0, len(lc.Lines))
	for _, l := range lc.Lines {
		f, ok := facts[l.FoodID]
		if !ok {
			return nil, fmt.Errorf("nutrition facts missing for food item %d", l.FoodID)
		}
		lines = append(lines, NutritionLine{FoodID: l.FoodID, Name: l.Name, Quantity: l.Quantity, Facts: f})
	}

	report, err := AggregateNutrition(lines)
	if err != nil {
		return nil, err
	}
	report.ListID = listID
	return report, nil
}

// offersForKnownFood checks the food exists before reading its offers so an
// unknown id is reported as NotFound rather than an empty result.
func (s *Service) offersForKnownFood(ctx context.Context, snap Snapshot, foodID int64) ([]types.CatalogOffer, error) {
	exists, err := snap.FoodExists(ctx, foodID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, types.NotFound("food item", foodID)
	}
	return snap.GetOffers(ctx, foodID)
}

// begin starts a span for op. The returned function records metrics, ends
// the span, and converts unexpected errors into types.ErrInternal.
func (s *Service) begin(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, func(error) error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "optimizer."+op, trace.WithAttributes(attrs...))

	return ctx, func(err error) error {
		defer span.End()

		code := ""
		if err != nil {
			var de *types.DomainError
			if !errors.As(err, &de) && !errors.Is(err, context.Canceled) {
				s.logger.Error().Err(err).Str("operation", op).Msg("operation failed")
				err = types.Internal(op, err)
			}
			code = types.CodeOf(err)
			span.SetAttributes(attribute.String("error.code", code))
			if code == types.ErrCodeInternal {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
			}
		}
		s.metrics.RecordOperation(op, time.Since(start), code)
		return err
	}
}

// checkListContext enforces user, list and ownership preconditions.
func checkListContext(lc *ListContext, userID, listID int64) error {
	if lc == nil || lc.User == nil {
		return types.NotFound("user", userID)
	}
	if !lc.ListExists || lc.OwnerID != userID {
		return types.NotFound("shopping list", listID)
	}
	return nil
}

// resolveBudget picks the effective budget ceiling. An explicit value wins;
// otherwise the stored preference is used when requested.
func resolveBudget(user *types.User, explicit *int64, usePreference bool) (*int64, error) {
	if explicit != nil {
		return explicit, nil
	}
	if !usePreference {
		return nil, nil
	}
	if user.Budget == nil {
		return nil, types.NewDomainError(types.ErrCodePreferencesMissing,
			fmt.Sprintf("user %d has no budget preference", user.ID))
	}
	return user.Budget, nil
}
