// Package knapsack resuelve la mochila 0/1 multidimensional sobre un modelo tipado,
// independiente del origen de los datos (órdenes y repuestos se traducen en la capa de aplicación).
package knapsack

import (
	"context"
	"errors"
	"fmt"
	"sort"
)

// ErrBudgetExceeded la búsqueda se detuvo por contexto o límite de nodos; la solución devuelta es factible
// pero puede no ser óptima.
var ErrBudgetExceeded = errors.New("knapsack: presupuesto de búsqueda agotado")

// Weight consumo de una capacidad (dimensión) por un ítem.
type Weight struct {
	Dim    int
	Amount int
}

// Item variable de decisión binaria.
type Item struct {
	Key     string
	Value   float64
	Weights []Weight
}

// Model capacidades por dimensión e ítems candidatos.
type Model struct {
	Capacities []int
	Items      []Item
}

// Solution índices (en el orden de Model.Items) de los ítems seleccionados, ascendentes.
type Solution struct {
	Selected []int
	Value    float64
	Optimal  bool
	Nodes    int64
}

// Solver backend de resolución intercambiable.
type Solver interface {
	Solve(ctx context.Context, m *Model) (Solution, error)
}

// Validate verifica dimensiones y cantidades no negativas.
func (m *Model) Validate() error {
	for d, c := range m.Capacities {
		if c < 0 {
			return fmt.Errorf("knapsack: capacidad negativa en dimensión %d", d)
		}
	}
	for i, it := range m.Items {
		for _, w := range it.Weights {
			if w.Dim < 0 || w.Dim >= len(m.Capacities) {
				return fmt.Errorf("knapsack: ítem %d usa dimensión inexistente %d", i, w.Dim)
			}
			if w.Amount < 0 {
				return fmt.Errorf("knapsack: ítem %d con consumo negativo", i)
			}
		}
	}
	return nil
}

// Usage suma el consumo por dimensión de los ítems seleccionados.
func (m *Model) Usage(selected []int) []int {
	used := make([]int, len(m.Capacities))
	for _, i := range selected {
		for _, w := range m.Items[i].Weights {
			used[w.Dim] += w.Amount
		}
	}
	return used
}

// Feasible indica si los ítems seleccionados caben en todas las capacidades.
func (m *Model) Feasible(selected []int) bool {
	for d, u := range m.Usage(selected) {
		if u > m.Capacities[d] {
			return false
		}
	}
	return true
}

// ValueOf suma de valores de los ítems seleccionados.
func (m *Model) ValueOf(selected []int) float64 {
	var v float64
	for _, i := range selected {
		v += m.Items[i].Value
	}
	return v
}

// prepared representación densa de los candidatos útiles, ordenados por eficiencia.
// Solo intervienen ítems con valor positivo que caben individualmente y las dimensiones que alguno usa.
type prepared struct {
	order []int     // índices del modelo, por eficiencia descendente
	value []float64 // por posición en order
	caps  []int     // capacidad por dimensión activa
	w     [][]int   // w[pos][d] consumo del ítem en la posición pos para la dimensión activa d
}

// aggregate suma los consumos por dimensión y los devuelve ordenados por dimensión (sin ceros).
func aggregate(ws []Weight) []Weight {
	sum := make(map[int]int, len(ws))
	for _, w := range ws {
		sum[w.Dim] += w.Amount
	}
	out := make([]Weight, 0, len(sum))
	for d, a := range sum {
		if a > 0 {
			out = append(out, Weight{Dim: d, Amount: a})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Dim < out[j].Dim })
	return out
}

func prepare(m *Model) *prepared {
	n := len(m.Items)
	agg := make([][]Weight, n)
	candidates := make([]int, 0, n)
	for i, it := range m.Items {
		if it.Value <= 0 {
			continue
		}
		ws := aggregate(it.Weights)
		fits := true
		for _, w := range ws {
			if w.Amount > m.Capacities[w.Dim] {
				fits = false
				break
			}
		}
		if !fits {
			continue
		}
		agg[i] = ws
		candidates = append(candidates, i)
	}

	activeIdx := make([]int, len(m.Capacities))
	for d := range activeIdx {
		activeIdx[d] = -1
	}
	for _, i := range candidates {
		for _, w := range agg[i] {
			activeIdx[w.Dim] = 0
		}
	}
	var caps []int
	for d, flag := range activeIdx {
		if flag < 0 {
			continue
		}
		activeIdx[d] = len(caps)
		caps = append(caps, m.Capacities[d])
	}

	eff := make([]float64, n)
	for _, i := range candidates {
		load := 1.0
		for _, w := range agg[i] {
			load += float64(w.Amount) / float64(m.Capacities[w.Dim])
		}
		eff[i] = m.Items[i].Value / load
	}
	// Estable: a igual eficiencia se respeta el orden del modelo.
	sort.SliceStable(candidates, func(a, b int) bool {
		return eff[candidates[a]] > eff[candidates[b]]
	})

	p := &prepared{
		order: candidates,
		value: make([]float64, len(candidates)),
		caps:  caps,
		w:     make([][]int, len(candidates)),
	}
	for pos, i := range candidates {
		p.value[pos] = m.Items[i].Value
		row := make([]int, len(caps))
		for _, w := range agg[i] {
			row[activeIdx[w.Dim]] = w.Amount
		}
		p.w[pos] = row
	}
	return p
}

func (p *prepared) fits(pos int, rem []int) bool {
	for d, a := range p.w[pos] {
		if a > rem[d] {
			return false
		}
	}
	return true
}

func (p *prepared) apply(pos int, rem []int, sign int) {
	for d, a := range p.w[pos] {
		rem[d] -= sign * a
	}
}

// greedy recorre los candidatos por eficiencia y toma cada uno que cabe. Devuelve posiciones tomadas.
func (p *prepared) greedy() ([]int, float64) {
	rem := append([]int(nil), p.caps...)
	var taken []int
	var value float64
	for pos := range p.order {
		if p.fits(pos, rem) {
			p.apply(pos, rem, 1)
			taken = append(taken, pos)
			value += p.value[pos]
		}
	}
	return taken, value
}

// toModelIndices traduce posiciones a índices del modelo, ascendentes.
func (p *prepared) toModelIndices(positions []int) []int {
	out := make([]int, 0, len(positions))
	for _, pos := range positions {
		out = append(out, p.order[pos])
	}
	sort.Ints(out)
	return out
}
