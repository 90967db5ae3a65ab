package workflow_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Taller-api/internal/domain"
	"github.com/jhoicas/Taller-api/internal/domain/entity"
	"github.com/jhoicas/Taller-api/internal/domain/workflow"
)

var allStatuses = []entity.OrderStatus{
	entity.OrderStatusPending,
	entity.OrderStatusInProgress,
	entity.OrderStatusCompleted,
	entity.OrderStatusCancelled,
}

func boolPtr(b bool) *bool { return &b }

func TestPlanTransition_TablaPermitida(t *testing.T) {
	cases := []struct {
		name    string
		from    entity.OrderStatus
		to      entity.OrderStatus
		restock *bool
		effect  workflow.StockEffect
		ignored bool
	}{
		{"pending a in_progress reserva", entity.OrderStatusPending, entity.OrderStatusInProgress, nil, workflow.EffectReserve, false},
		{"pending a completed sin efecto", entity.OrderStatusPending, entity.OrderStatusCompleted, nil, workflow.EffectNone, false},
		{"pending a cancelled sin efecto", entity.OrderStatusPending, entity.OrderStatusCancelled, nil, workflow.EffectNone, false},
		{"pending a cancelled con restock es no-op", entity.OrderStatusPending, entity.OrderStatusCancelled, boolPtr(true), workflow.EffectNone, true},
		{"in_progress a completed conserva reserva", entity.OrderStatusInProgress, entity.OrderStatusCompleted, nil, workflow.EffectNone, false},
		{"in_progress a cancelled con restock libera", entity.OrderStatusInProgress, entity.OrderStatusCancelled, boolPtr(true), workflow.EffectRelease, false},
		{"in_progress a cancelled restock=false", entity.OrderStatusInProgress, entity.OrderStatusCancelled, boolPtr(false), workflow.EffectNone, false},
		{"in_progress a cancelled restock omitido", entity.OrderStatusInProgress, entity.OrderStatusCancelled, nil, workflow.EffectNone, false},
		{"restock en pending a in_progress se ignora", entity.OrderStatusPending, entity.OrderStatusInProgress, boolPtr(true), workflow.EffectReserve, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			plan, err := workflow.PlanTransition(tc.from, tc.to, tc.restock)
			require.NoError(t, err)
			assert.Equal(t, tc.effect, plan.Effect)
			assert.Equal(t, tc.ignored, plan.RestockIgnored)
			assert.Equal(t, tc.from, plan.From)
			assert.Equal(t, tc.to, plan.To)
		})
	}
}

// Desde CANCELLED y COMPLETED ninguna transición es válida, con o sin restock.
func TestPlanTransition_EstadosTerminales(t *testing.T) {
	for _, from := range []entity.OrderStatus{entity.OrderStatusCancelled, entity.OrderStatusCompleted} {
		require.True(t, workflow.IsTerminal(from))
		for _, to := range allStatuses {
			for _, restock := range []*bool{nil, boolPtr(true), boolPtr(false)} {
				_, err := workflow.PlanTransition(from, to, restock)
				require.Error(t, err, "%s -> %s debe fallar", from, to)
				assert.True(t, errors.Is(err, domain.ErrInvalidTransition))

				var ite *domain.InvalidTransitionError
				require.True(t, errors.As(err, &ite))
				assert.Equal(t, string(from), ite.From)
				assert.Equal(t, string(to), ite.To)
			}
		}
	}
}

func TestPlanTransition_AutoTransicionesInvalidas(t *testing.T) {
	for _, s := range allStatuses {
		_, err := workflow.PlanTransition(s, s, nil)
		assert.ErrorIs(t, err, domain.ErrInvalidTransition, "%s -> %s", s, s)
	}
	_, err := workflow.PlanTransition(entity.OrderStatusInProgress, entity.OrderStatusPending, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition, "no se permite volver a PENDING")
}

func TestIsTerminal(t *testing.T) {
	assert.False(t, workflow.IsTerminal(entity.OrderStatusPending))
	assert.False(t, workflow.IsTerminal(entity.OrderStatusInProgress))
	assert.True(t, workflow.IsTerminal(entity.OrderStatusCompleted))
	assert.True(t, workflow.IsTerminal(entity.OrderStatusCancelled))
}
