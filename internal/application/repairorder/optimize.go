package repairorder

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"

	"github.com/jhoicas/Taller-api/internal/domain"
	"github.com/jhoicas/Taller-api/internal/domain/entity"
	"github.com/jhoicas/Taller-api/internal/domain/knapsack"
	"github.com/jhoicas/Taller-api/internal/domain/repository"
	"github.com/jhoicas/Taller-api/pkg/logger"
)

// Objective función objetivo del optimizador.
type Objective string

// Objetivos soportados.
const (
	ObjectiveProfit   Objective = "profit"   // suma de Profit de las órdenes seleccionadas
	ObjectivePriority Objective = "priority" // suma de pesos LOW=1, MEDIUM=2, HIGH=3
)

// Valid indica si el objetivo es conocido.
func (o Objective) Valid() bool {
	return o == ObjectiveProfit || o == ObjectivePriority
}

// Estrategias con que se obtuvo la recomendación.
const (
	StrategyExact     = "exact"
	StrategyHeuristic = "heuristic"
)

// OptimizerSettings límites de cómputo del optimizador.
type OptimizerSettings struct {
	TimeBudget     time.Duration // tiempo del solver exacto antes de caer a la heurística
	NodeLimit      int64         // 0 = sin límite
	MaxExactOrders int           // con más candidatos se usa directamente la heurística (0 = sin límite)
}

// OptimizeInput objetivo y estado de las órdenes a considerar (vacío = PENDING).
type OptimizeInput struct {
	Objective Objective
	Status    entity.OrderStatus
}

// OptimizationResult recomendación (no persistida) de qué órdenes ejecutar.
// SelectedOrderIDs y SkippedOrderIDs particionan exactamente las órdenes filtradas.
type OptimizationResult struct {
	Objective          Objective
	Status             entity.OrderStatus
	SelectedOrderIDs   []string
	SkippedOrderIDs    []string
	ObjectiveValue     decimal.Decimal
	ProjectedInventory map[string]int
	Optimal            bool
	Strategy           string
	Nodes              int64
	Elapsed            time.Duration
}

func (r *OptimizationResult) clone() *OptimizationResult {
	c := *r
	c.SelectedOrderIDs = append([]string{}, r.SelectedOrderIDs...)
	c.SkippedOrderIDs = append([]string{}, r.SkippedOrderIDs...)
	c.ProjectedInventory = make(map[string]int, len(r.ProjectedInventory))
	for k, v := range r.ProjectedInventory {
		c.ProjectedInventory[k] = v
	}
	return &c
}

// OptimizeUseCase selector de órdenes: mochila 0/1 multidimensional (una variable por orden,
// una restricción de capacidad por repuesto). Solo lee: aplicar la recomendación es responsabilidad
// del caller, orden por orden, vía TransitionUseCase (que vuelve a verificar el stock).
type OptimizeUseCase struct {
	tx       TxRunner
	settings OptimizerSettings
	exact    knapsack.Solver
	fallback knapsack.Solver
	rec      Recorder
	log      *logger.Logger
	group    singleflight.Group
}

// NewOptimizeUseCase construye el optimizador con branch-and-bound exacto y greedy de respaldo. rec puede ser nil.
func NewOptimizeUseCase(tx TxRunner, settings OptimizerSettings, rec Recorder, log *logger.Logger) *OptimizeUseCase {
	if rec == nil {
		rec = NopRecorder{}
	}
	if settings.TimeBudget <= 0 {
		settings.TimeBudget = 2 * time.Second
	}
	return &OptimizeUseCase{
		tx:       tx,
		settings: settings,
		exact:    knapsack.BranchAndBound{NodeLimit: settings.NodeLimit},
		fallback: knapsack.Greedy{},
		rec:      rec,
		log:      log.Component("optimizer"),
	}
}

// Optimize calcula la recomendación. Solicitudes concurrentes idénticas comparten un mismo cálculo.
// Si ctx termina antes de tener resultado devuelve domain.ErrSolverTimeout sin recomendación;
// el cálculo compartido sigue acotado por TimeBudget.
func (uc *OptimizeUseCase) Optimize(ctx context.Context, in OptimizeInput) (*OptimizationResult, error) {
	if in.Status == "" {
		in.Status = entity.OrderStatusPending
	}
	if !in.Objective.Valid() || !in.Status.Valid() {
		return nil, domain.ErrInvalidInput
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSolverTimeout, err)
	}

	key := string(in.Objective) + "|" + string(in.Status)
	ch := uc.group.DoChan(key, func() (any, error) {
		return uc.optimize(context.WithoutCancel(ctx), in)
	})
	select {
	case <-ctx.Done():
		uc.rec.OptimizationObserved(string(in.Objective), "failed", 0)
		return nil, fmt.Errorf("%w: %v", domain.ErrSolverTimeout, ctx.Err())
	case r := <-ch:
		if r.Err != nil {
			return nil, r.Err
		}
		return r.Val.(*OptimizationResult).clone(), nil
	}
}

// candidate orden que entra al modelo, con su término del objetivo.
type candidate struct {
	order *entity.RepairOrder
	term  decimal.Decimal
}

func (uc *OptimizeUseCase) optimize(ctx context.Context, in OptimizeInput) (*OptimizationResult, error) {
	start := time.Now()

	// Snapshot consistente; no se mantiene ningún bloqueo durante la resolución.
	var orders []*entity.RepairOrder
	var parts []*entity.Part
	err := uc.tx.RunReadOnly(ctx, func(
		or repository.RepairOrderRepository,
		pr repository.PartRepository,
		_ repository.StockMovementRepository,
	) error {
		var err error
		if orders, err = or.ListByStatus(ctx, in.Status); err != nil {
			return err
		}
		parts, err = pr.ListAll(ctx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("snapshot optimizador: %w", err)
	}

	sort.Slice(orders, func(i, j int) bool { return orders[i].ID < orders[j].ID })
	sort.Slice(parts, func(i, j int) bool { return parts[i].ID < parts[j].ID })

	model, candidates := buildModel(orders, parts, in.Objective)
	sol, strategy, err := uc.solve(ctx, model)
	if err != nil {
		uc.rec.OptimizationObserved(string(in.Objective), "failed", time.Since(start))
		return nil, err
	}

	result, err := assemble(in, orders, parts, candidates, sol)
	if err != nil {
		uc.log.Error().Err(err).Msg("la recomendación excede el stock")
		return nil, err
	}
	result.Strategy = strategy
	result.Optimal = sol.Optimal && strategy == StrategyExact
	result.Nodes = sol.Nodes
	result.Elapsed = time.Since(start)

	uc.rec.OptimizationObserved(string(in.Objective), strategy, result.Elapsed)
	uc.log.Info().
		Str("objective", string(in.Objective)).
		Str("status", string(in.Status)).
		Str("strategy", strategy).
		Int("orders", len(orders)).
		Int("selected", len(result.SelectedOrderIDs)).
		Str("objective_value", result.ObjectiveValue.String()).
		Dur("elapsed", result.Elapsed).
		Msg("optimización calculada")
	return result, nil
}

// buildModel traduce órdenes y stock al modelo tipado. Quedan fuera (y por tanto omitidas) las órdenes
// cuyo término del objetivo no es positivo o que requieren un repuesto inexistente.
func buildModel(orders []*entity.RepairOrder, parts []*entity.Part, objective Objective) (*knapsack.Model, []candidate) {
	dim := make(map[string]int, len(parts))
	model := &knapsack.Model{Capacities: make([]int, len(parts))}
	for i, p := range parts {
		dim[p.ID] = i
		model.Capacities[i] = p.AvailableQuantity
	}

	var candidates []candidate
	for _, o := range orders {
		term := objectiveTerm(o, objective)
		if !term.IsPositive() {
			continue
		}
		item := knapsack.Item{Key: o.ID, Value: term.InexactFloat64()}
		known := true
		for _, r := range o.Requirements {
			d, ok := dim[r.PartID]
			if !ok {
				known = false
				break
			}
			item.Weights = append(item.Weights, knapsack.Weight{Dim: d, Amount: r.Quantity})
		}
		if !known {
			continue
		}
		model.Items = append(model.Items, item)
		candidates = append(candidates, candidate{order: o, term: term})
	}
	return model, candidates
}

func objectiveTerm(o *entity.RepairOrder, objective Objective) decimal.Decimal {
	if objective == ObjectivePriority {
		return decimal.NewFromInt(int64(o.Priority.Weight()))
	}
	return o.Profit
}

// solve intenta el solver exacto dentro del presupuesto; si se agota, usa la mejor entre
// la heurística y el incumbente parcial.
func (uc *OptimizeUseCase) solve(ctx context.Context, model *knapsack.Model) (knapsack.Solution, string, error) {
	if uc.settings.MaxExactOrders > 0 && len(model.Items) > uc.settings.MaxExactOrders {
		sol, err := uc.fallback.Solve(ctx, model)
		return sol, StrategyHeuristic, err
	}

	budgetCtx, cancel := context.WithTimeout(ctx, uc.settings.TimeBudget)
	sol, err := uc.exact.Solve(budgetCtx, model)
	cancel()
	if err == nil {
		return sol, StrategyExact, nil
	}
	if !errors.Is(err, knapsack.ErrBudgetExceeded) {
		return knapsack.Solution{}, "", err
	}

	fb, ferr := uc.fallback.Solve(ctx, model)
	if ferr == nil && fb.Value > sol.Value {
		fb.Nodes = sol.Nodes
		sol = fb
	}
	sol.Optimal = false
	uc.log.Warn().Dur("budget", uc.settings.TimeBudget).Int64("nodes", sol.Nodes).
		Int("items", len(model.Items)).Msg("presupuesto del solver exacto agotado, se usa heurística")
	return sol, StrategyHeuristic, nil
}

// assemble arma el resultado y verifica que la selección respete el stock del snapshot.
func assemble(in OptimizeInput, orders []*entity.RepairOrder, parts []*entity.Part, candidates []candidate, sol knapsack.Solution) (*OptimizationResult, error) {
	chosen := make(map[string]bool, len(sol.Selected))
	value := decimal.Zero
	for _, i := range sol.Selected {
		c := candidates[i]
		chosen[c.order.ID] = true
		value = value.Add(c.term)
	}

	projected := make(map[string]int, len(parts))
	for _, p := range parts {
		projected[p.ID] = p.AvailableQuantity
	}

	res := &OptimizationResult{
		Objective:        in.Objective,
		Status:           in.Status,
		SelectedOrderIDs: []string{},
		SkippedOrderIDs:  []string{},
		ObjectiveValue:   value,
	}
	for _, o := range orders {
		if !chosen[o.ID] {
			res.SkippedOrderIDs = append(res.SkippedOrderIDs, o.ID)
			continue
		}
		res.SelectedOrderIDs = append(res.SelectedOrderIDs, o.ID)
		for _, r := range o.Requirements {
			projected[r.PartID] -= r.Quantity
		}
	}
	for id, q := range projected {
		if q < 0 {
			return nil, fmt.Errorf("%w: inventario proyectado negativo en repuesto %s", domain.ErrIntegrityViolation, id)
		}
	}
	res.ProjectedInventory = projected
	return res, nil
}
