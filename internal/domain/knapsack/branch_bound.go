package knapsack

import (
	"context"
	"math"
	"sort"
)

// ctxCheckEvery cada cuántos nodos se consulta el contexto.
const ctxCheckEvery = 1024

// BranchAndBound solver exacto: búsqueda en profundidad (primero incluir) sobre los candidatos ordenados
// por eficiencia, con incumbente inicial greedy y cota superior por relajación fraccional de cada dimensión.
// Un incumbente solo se reemplaza por otro estrictamente mejor, así la misma entrada da siempre la misma selección.
type BranchAndBound struct {
	// NodeLimit máximo de nodos a explorar (0 = sin límite).
	NodeLimit int64
}

var _ Solver = BranchAndBound{}

// Solve devuelve la solución óptima, o la mejor encontrada junto con ErrBudgetExceeded
// si el contexto terminó o se alcanzó NodeLimit.
func (b BranchAndBound) Solve(ctx context.Context, m *Model) (Solution, error) {
	if err := m.Validate(); err != nil {
		return Solution{}, err
	}
	p := prepare(m)
	s := newSearch(ctx, p, b.NodeLimit)

	taken, value := p.greedy()
	s.bestValue = value
	s.best = taken

	if ctx.Err() != nil {
		return Solution{Selected: p.toModelIndices(s.best), Value: s.bestValue}, ErrBudgetExceeded
	}
	s.dfs(0, 0)

	sol := Solution{
		Selected: p.toModelIndices(s.best),
		Value:    s.bestValue,
		Optimal:  !s.stopped,
		Nodes:    s.nodes,
	}
	if s.stopped {
		return sol, ErrBudgetExceeded
	}
	return sol, nil
}

type search struct {
	ctx       context.Context
	p         *prepared
	nodeLimit int64

	rem  []int
	take []bool

	best      []int
	bestValue float64
	nodes     int64
	stopped   bool

	suffixValue []float64   // suma de valores desde la posición k
	weighted    [][]float64 // weighted[d][k] suma de valores desde k de los ítems que consumen la dimensión d
	byRatio     [][]int     // posiciones que consumen d, por valor/consumo descendente
}

func newSearch(ctx context.Context, p *prepared, nodeLimit int64) *search {
	n := len(p.order)
	s := &search{
		ctx:         ctx,
		p:           p,
		nodeLimit:   nodeLimit,
		rem:         append([]int(nil), p.caps...),
		take:        make([]bool, n),
		suffixValue: make([]float64, n+1),
		weighted:    make([][]float64, len(p.caps)),
		byRatio:     make([][]int, len(p.caps)),
	}
	for k := n - 1; k >= 0; k-- {
		s.suffixValue[k] = s.suffixValue[k+1] + p.value[k]
	}
	for d := range p.caps {
		acc := make([]float64, n+1)
		var users []int
		for k := n - 1; k >= 0; k-- {
			acc[k] = acc[k+1]
			if p.w[k][d] > 0 {
				acc[k] += p.value[k]
				users = append(users, k)
			}
		}
		sort.SliceStable(users, func(a, b int) bool {
			ra := p.value[users[a]] / float64(p.w[users[a]][d])
			rb := p.value[users[b]] / float64(p.w[users[b]][d])
			if ra != rb {
				return ra > rb
			}
			return users[a] < users[b]
		})
		s.weighted[d] = acc
		s.byRatio[d] = users
	}
	return s
}

func tolerance(v float64) float64 {
	return 1e-9 * math.Max(1, math.Abs(v))
}

// pruned indica si desde la posición k, con valor acumulado value, no se puede superar al incumbente.
func (s *search) pruned(k int, value float64) bool {
	limit := s.bestValue + tolerance(s.bestValue)
	if value+s.suffixValue[k] <= limit {
		return true
	}
	for d := range s.p.caps {
		// Los ítems que no consumen d entran completos; los demás, por relajación fraccional.
		bound := s.suffixValue[k] - s.weighted[d][k]
		capLeft := float64(s.rem[d])
		for _, pos := range s.byRatio[d] {
			if pos < k {
				continue
			}
			w := float64(s.p.w[pos][d])
			if w <= capLeft {
				capLeft -= w
				bound += s.p.value[pos]
				continue
			}
			bound += s.p.value[pos] * capLeft / w
			break
		}
		if value+bound <= limit {
			return true
		}
	}
	return false
}

func (s *search) budgetExhausted() bool {
	if s.nodeLimit > 0 && s.nodes > s.nodeLimit {
		return true
	}
	if s.nodes%ctxCheckEvery == 0 && s.ctx.Err() != nil {
		return true
	}
	return false
}

func (s *search) dfs(k int, value float64) {
	if s.stopped {
		return
	}
	s.nodes++
	if s.budgetExhausted() {
		s.stopped = true
		return
	}
	if value > s.bestValue+tolerance(s.bestValue) {
		s.bestValue = value
		s.best = s.best[:0:0]
		for pos := 0; pos < k; pos++ {
			if s.take[pos] {
				s.best = append(s.best, pos)
			}
		}
	}
	if k == len(s.p.order) || s.pruned(k, value) {
		return
	}
	if s.p.fits(k, s.rem) {
		s.p.apply(k, s.rem, 1)
		s.take[k] = true
		s.dfs(k+1, value+s.p.value[k])
		s.take[k] = false
		s.p.apply(k, s.rem, -1)
	}
	s.dfs(k+1, value)
}
