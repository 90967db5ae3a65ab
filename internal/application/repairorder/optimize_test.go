package repairorder_test

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Taller-api/internal/application/repairorder"
	"github.com/jhoicas/Taller-api/internal/domain"
	"github.com/jhoicas/Taller-api/internal/domain/entity"
	"github.com/jhoicas/Taller-api/pkg/logger"
)

func (e *engine) optimizer(settings repairorder.OptimizerSettings) *repairorder.OptimizeUseCase {
	return repairorder.NewOptimizeUseCase(e.store, settings, nil, logger.Nop())
}

func TestOptimize_DosOrdenesCompitenPorUnRepuesto(t *testing.T) {
	e := newEngine(t, map[string]int{"A": 10})
	o1 := e.create(t, 50, entity.PriorityLow, map[string]int{"A": 6})
	o2 := e.create(t, 80, entity.PriorityLow, map[string]int{"A": 6})

	res, err := e.optimizer(repairorder.OptimizerSettings{}).Optimize(context.Background(),
		repairorder.OptimizeInput{Objective: repairorder.ObjectiveProfit})
	require.NoError(t, err)

	assert.Equal(t, []string{o2.ID}, res.SelectedOrderIDs)
	assert.Equal(t, []string{o1.ID}, res.SkippedOrderIDs)
	assert.Equal(t, "80", res.ObjectiveValue.String())
	assert.Equal(t, map[string]int{"A": 4}, res.ProjectedInventory)
	assert.Equal(t, repairorder.StrategyExact, res.Strategy)
	assert.True(t, res.Optimal)

	// Solo recomienda: nada cambia en el stock ni en los estados.
	assert.Equal(t, 10, e.available(t, "A"))
	assert.Equal(t, entity.OrderStatusPending, e.status(t, o2.ID))
}

func TestOptimize_PrioridadEligeHigh(t *testing.T) {
	e := newEngine(t, map[string]int{"A": 1})
	e.create(t, 100, entity.PriorityLow, map[string]int{"A": 1})
	e.create(t, 100, entity.PriorityMedium, map[string]int{"A": 1})
	high := e.create(t, 1, entity.PriorityHigh, map[string]int{"A": 1})

	res, err := e.optimizer(repairorder.OptimizerSettings{}).Optimize(context.Background(),
		repairorder.OptimizeInput{Objective: repairorder.ObjectivePriority})
	require.NoError(t, err)

	assert.Equal(t, []string{high.ID}, res.SelectedOrderIDs)
	assert.Len(t, res.SkippedOrderIDs, 2)
	assert.Equal(t, "3", res.ObjectiveValue.String())
	assert.Equal(t, 0, res.ProjectedInventory["A"])
}

// Greedy por razón elegiría la orden de 60; la solución exacta combina las dos de 50.
func TestOptimize_ExactoSuperaHeuristica(t *testing.T) {
	e := newEngine(t, map[string]int{"A": 10})
	e.create(t, 60, entity.PriorityLow, map[string]int{"A": 6})
	b := e.create(t, 50, entity.PriorityLow, map[string]int{"A": 5})
	c := e.create(t, 50, entity.PriorityLow, map[string]int{"A": 5})

	res, err := e.optimizer(repairorder.OptimizerSettings{}).Optimize(context.Background(),
		repairorder.OptimizeInput{Objective: repairorder.ObjectiveProfit})
	require.NoError(t, err)

	want := []string{b.ID, c.ID}
	sort.Strings(want)
	assert.Equal(t, want, res.SelectedOrderIDs)
	assert.Equal(t, "100", res.ObjectiveValue.String())
	assert.Equal(t, 0, res.ProjectedInventory["A"])
}

func TestOptimize_FallbackHeuristicoPorLimiteDeNodos(t *testing.T) {
	e := newEngine(t, map[string]int{"A": 10})
	a := e.create(t, 60, entity.PriorityLow, map[string]int{"A": 6})
	e.create(t, 50, entity.PriorityLow, map[string]int{"A": 5})
	e.create(t, 50, entity.PriorityLow, map[string]int{"A": 5})

	res, err := e.optimizer(repairorder.OptimizerSettings{NodeLimit: 1}).Optimize(context.Background(),
		repairorder.OptimizeInput{Objective: repairorder.ObjectiveProfit})
	require.NoError(t, err)

	assert.Equal(t, repairorder.StrategyHeuristic, res.Strategy)
	assert.False(t, res.Optimal)
	assert.Equal(t, []string{a.ID}, res.SelectedOrderIDs)
	assert.Equal(t, "60", res.ObjectiveValue.String())
	assert.Len(t, res.SkippedOrderIDs, 2)
}

// Instancia grande y fuertemente correlacionada (valor proporcional al consumo): el exacto no
// termina dentro del presupuesto y se devuelve la heurística sin exceder el stock.
func TestOptimize_FallbackHeuristicoPorPresupuestoDeTiempo(t *testing.T) {
	parts := []string{"P0", "P1", "P2", "P3", "P4", "P5", "P6", "P7"}
	stockByPart := map[string]int{}
	for _, p := range parts {
		stockByPart[p] = 120
	}
	e := newEngine(t, stockByPart)

	rnd := rand.New(rand.NewSource(7))
	all := map[string]*entity.RepairOrder{}
	for i := 0; i < 300; i++ {
		reqs := map[string]int{}
		units := 0
		for len(reqs) < 3 {
			q := 1 + rnd.Intn(9)
			reqs[parts[rnd.Intn(len(parts))]] = q
			units += q
		}
		o := e.create(t, int64(units*10+rnd.Intn(5)), entity.PriorityLow, reqs)
		all[o.ID] = o
	}

	budget := 20 * time.Millisecond
	start := time.Now()
	res, err := e.optimizer(repairorder.OptimizerSettings{TimeBudget: budget}).Optimize(context.Background(),
		repairorder.OptimizeInput{Objective: repairorder.ObjectiveProfit})
	elapsed := time.Since(start)
	require.NoError(t, err)

	assert.Equal(t, repairorder.StrategyHeuristic, res.Strategy)
	assert.False(t, res.Optimal)
	assert.GreaterOrEqual(t, elapsed, budget)
	assert.Less(t, elapsed, budget+time.Second, "la resolución debe cortarse cerca del presupuesto")
	assert.NotEmpty(t, res.SelectedOrderIDs)
	assert.Len(t, res.SelectedOrderIDs, len(all)-len(res.SkippedOrderIDs))

	used := map[string]int{}
	for _, id := range res.SelectedOrderIDs {
		for _, r := range all[id].Requirements {
			used[r.PartID] += r.Quantity
		}
	}
	for p, capacity := range stockByPart {
		assert.LessOrEqual(t, used[p], capacity, "repuesto %s", p)
		assert.Equal(t, capacity-used[p], res.ProjectedInventory[p])
	}
}

func TestOptimize_FallbackHeuristicoPorCantidadDeOrdenes(t *testing.T) {
	e := newEngine(t, map[string]int{"A": 10})
	e.create(t, 50, entity.PriorityLow, map[string]int{"A": 6})
	e.create(t, 80, entity.PriorityLow, map[string]int{"A": 6})

	res, err := e.optimizer(repairorder.OptimizerSettings{MaxExactOrders: 1}).Optimize(context.Background(),
		repairorder.OptimizeInput{Objective: repairorder.ObjectiveProfit})
	require.NoError(t, err)
	assert.Equal(t, repairorder.StrategyHeuristic, res.Strategy)
	assert.False(t, res.Optimal)
	assert.Equal(t, "80", res.ObjectiveValue.String())
}

func TestOptimize_OmiteOrdenesSinValorPositivo(t *testing.T) {
	e := newEngine(t, map[string]int{"A": 10})
	neg := e.create(t, -5, entity.PriorityLow, map[string]int{"A": 1})
	zero := e.create(t, 0, entity.PriorityLow, map[string]int{"A": 1})
	free := e.create(t, 7, entity.PriorityLow, nil)

	res, err := e.optimizer(repairorder.OptimizerSettings{}).Optimize(context.Background(),
		repairorder.OptimizeInput{Objective: repairorder.ObjectiveProfit})
	require.NoError(t, err)

	assert.Equal(t, []string{free.ID}, res.SelectedOrderIDs)
	assert.ElementsMatch(t, []string{neg.ID, zero.ID}, res.SkippedOrderIDs)
	assert.Equal(t, 10, res.ProjectedInventory["A"])
}

// Propiedades: selección y omitidas particionan el filtro y la selección respeta cada repuesto.
func TestOptimize_ParticionYCapacidad(t *testing.T) {
	stockByPart := map[string]int{"A": 7, "B": 5, "C": 9}
	e := newEngine(t, stockByPart)
	all := map[string]*entity.RepairOrder{}
	for i := 0; i < 12; i++ {
		reqs := map[string]int{}
		for j, p := range []string{"A", "B", "C"} {
			if (i+j)%3 != 0 {
				reqs[p] = 1 + (i*7+j*3)%4
			}
		}
		o := e.create(t, int64(10+(i*13)%40), entity.PriorityLow, reqs)
		all[o.ID] = o
	}

	res, err := e.optimizer(repairorder.OptimizerSettings{}).Optimize(context.Background(),
		repairorder.OptimizeInput{Objective: repairorder.ObjectiveProfit, Status: entity.OrderStatusPending})
	require.NoError(t, err)

	seen := map[string]bool{}
	for _, id := range append(append([]string{}, res.SelectedOrderIDs...), res.SkippedOrderIDs...) {
		require.False(t, seen[id], "orden %s repetida", id)
		seen[id] = true
	}
	assert.Len(t, seen, len(all))

	used := map[string]int{}
	for _, id := range res.SelectedOrderIDs {
		for _, r := range all[id].Requirements {
			used[r.PartID] += r.Quantity
		}
	}
	for p, capacity := range stockByPart {
		assert.LessOrEqual(t, used[p], capacity, "repuesto %s", p)
		assert.Equal(t, capacity-used[p], res.ProjectedInventory[p])
	}
	assert.True(t, sort.StringsAreSorted(res.SelectedOrderIDs))
}

func TestOptimize_Determinista(t *testing.T) {
	e := newEngine(t, map[string]int{"A": 4, "B": 4})
	for i := 0; i < 6; i++ {
		e.create(t, 20, entity.PriorityMedium, map[string]int{"A": 2, "B": 1 + i%2})
	}
	uc := e.optimizer(repairorder.OptimizerSettings{})
	in := repairorder.OptimizeInput{Objective: repairorder.ObjectiveProfit}

	first, err := uc.Optimize(context.Background(), in)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := uc.Optimize(context.Background(), in)
		require.NoError(t, err)
		assert.Equal(t, first.SelectedOrderIDs, again.SelectedOrderIDs, fmt.Sprintf("corrida %d", i))
	}
}

func TestOptimize_FiltraPorEstado(t *testing.T) {
	e := newEngine(t, map[string]int{"A": 10})
	running := e.create(t, 50, entity.PriorityLow, map[string]int{"A": 2})
	e.create(t, 80, entity.PriorityLow, map[string]int{"A": 2})
	_, err := e.move(running.ID, entity.OrderStatusInProgress, nil)
	require.NoError(t, err)

	res, err := e.optimizer(repairorder.OptimizerSettings{}).Optimize(context.Background(),
		repairorder.OptimizeInput{Objective: repairorder.ObjectiveProfit, Status: entity.OrderStatusInProgress})
	require.NoError(t, err)
	assert.Equal(t, []string{running.ID}, res.SelectedOrderIDs)
	assert.Equal(t, 6, res.ProjectedInventory["A"])
}

func TestOptimize_EntradaInvalidaYContextoCancelado(t *testing.T) {
	e := newEngine(t, map[string]int{"A": 10})
	uc := e.optimizer(repairorder.OptimizerSettings{})

	_, err := uc.Optimize(context.Background(), repairorder.OptimizeInput{Objective: "revenue"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = uc.Optimize(ctx, repairorder.OptimizeInput{Objective: repairorder.ObjectiveProfit})
	assert.ErrorIs(t, err, domain.ErrSolverTimeout)
}

// Aplicar una recomendación vieja pasa igual por el libro de stock.
func TestOptimize_RecomendacionObsoletaSeRevalidaAlAplicar(t *testing.T) {
	e := newEngine(t, map[string]int{"A": 10})
	o1 := e.create(t, 50, entity.PriorityLow, map[string]int{"A": 6})
	o2 := e.create(t, 80, entity.PriorityLow, map[string]int{"A": 6})

	res, err := e.optimizer(repairorder.OptimizerSettings{}).Optimize(context.Background(),
		repairorder.OptimizeInput{Objective: repairorder.ObjectiveProfit})
	require.NoError(t, err)
	require.Equal(t, []string{o2.ID}, res.SelectedOrderIDs)

	_, err = e.move(o1.ID, entity.OrderStatusInProgress, nil)
	require.NoError(t, err)

	_, err = e.move(o2.ID, entity.OrderStatusInProgress, nil)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Equal(t, 4, e.available(t, "A"))
}
