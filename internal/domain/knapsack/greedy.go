package knapsack

import "context"

// Greedy heurística por razón valor/consumo normalizado. Nunca viola capacidades.
type Greedy struct{}

var _ Solver = Greedy{}

// Solve toma los candidatos en orden de eficiencia mientras quepan.
// Optimal solo es true cuando todos los candidatos útiles cupieron.
func (Greedy) Solve(_ context.Context, m *Model) (Solution, error) {
	if err := m.Validate(); err != nil {
		return Solution{}, err
	}
	p := prepare(m)
	taken, value := p.greedy()
	return Solution{
		Selected: p.toModelIndices(taken),
		Value:    value,
		Optimal:  len(taken) == len(p.order),
	}, nil
}
