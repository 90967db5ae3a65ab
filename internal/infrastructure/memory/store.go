// Package memory implementa los puertos de persistencia en memoria (driver STORAGE_DRIVER=memory y tests).
//
// Store serializa las transacciones de escritura con un único mutex: Run trabaja sobre una copia
// del estado y solo la publica si fn termina sin error, lo que da el mismo todo-o-nada que el
// rollback de PostgreSQL.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jhoicas/Taller-api/internal/application/repairorder"
	"github.com/jhoicas/Taller-api/internal/domain"
	"github.com/jhoicas/Taller-api/internal/domain/entity"
	"github.com/jhoicas/Taller-api/internal/domain/repository"
	"github.com/jhoicas/Taller-api/internal/infrastructure/seed"
)

var _ repairorder.TxRunner = (*Store)(nil)

// Store almacén en memoria.
type Store struct {
	mu  sync.RWMutex
	st  *state
	now func() time.Time
}

type state struct {
	parts     map[string]*entity.Part
	orders    map[string]*entity.RepairOrder
	movements []*entity.StockMovement
}

// NewStore crea un almacén vacío.
func NewStore() *Store {
	return &Store{
		st: &state{
			parts:  make(map[string]*entity.Part),
			orders: make(map[string]*entity.RepairOrder),
		},
		now: time.Now,
	}
}

func (s *state) clone() *state {
	c := &state{
		parts:     make(map[string]*entity.Part, len(s.parts)),
		orders:    make(map[string]*entity.RepairOrder, len(s.orders)),
		movements: append([]*entity.StockMovement(nil), s.movements...),
	}
	for id, p := range s.parts {
		cp := *p
		c.parts[id] = &cp
	}
	for id, o := range s.orders {
		c.orders[id] = o.Clone()
	}
	return c
}

// Run ejecuta fn con repositorios sobre una copia del estado; la copia reemplaza al estado solo si fn devuelve nil.
func (s *Store) Run(ctx context.Context, fn func(
	orders repository.RepairOrderRepository,
	parts repository.PartRepository,
	movements repository.StockMovementRepository,
) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.st.clone()
	if err := fn(&orderRepo{st: work, now: s.now}, &partRepo{st: work, now: s.now}, &movementRepo{st: work}); err != nil {
		return err
	}
	s.st = work
	return nil
}

// RunReadOnly ejecuta fn sobre el estado actual; las escrituras devuelven domain.ErrReadOnlyTx.
func (s *Store) RunReadOnly(ctx context.Context, fn func(
	orders repository.RepairOrderRepository,
	parts repository.PartRepository,
	movements repository.StockMovementRepository,
) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(
		&orderRepo{st: s.st, readOnly: true, now: s.now},
		&partRepo{st: s.st, readOnly: true, now: s.now},
		&movementRepo{st: s.st, readOnly: true},
	)
}

// SeedPart da de alta un repuesto o actualiza su catálogo. Si ya existe conserva la cantidad
// disponible: después del alta el stock solo cambia vía Run.
func (s *Store) SeedPart(p entity.Part) error {
	if p.ID == "" || p.AvailableQuantity < 0 {
		return domain.ErrInvalidInput
	}
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.st.parts[p.ID]; ok {
		p.AvailableQuantity = cur.AvailableQuantity
		p.CreatedAt = cur.CreatedAt
	} else if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	s.st.parts[p.ID] = &p
	return nil
}

// LoadSeed carga los repuestos del archivo SEED_PATH.
func (s *Store) LoadSeed(path string) (int, error) {
	parts, err := seed.LoadParts(path)
	if err != nil {
		return 0, err
	}
	for _, p := range parts {
		if err := s.SeedPart(p); err != nil {
			return 0, fmt.Errorf("repuesto %q: %w", p.ID, err)
		}
	}
	return len(parts), nil
}

// ---- repuestos ----

type partRepo struct {
	st       *state
	readOnly bool
	now      func() time.Time
}

func (r *partRepo) GetByID(_ context.Context, id string) (*entity.Part, error) {
	p, ok := r.st.parts[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (r *partRepo) GetAvailableQuantity(_ context.Context, id string) (int, error) {
	p, ok := r.st.parts[id]
	if !ok {
		return 0, domain.ErrPartNotFound
	}
	return p.AvailableQuantity, nil
}

// GetAvailableQuantityForUpdate el mutex de Run ya da exclusión; equivale a GetAvailableQuantity.
func (r *partRepo) GetAvailableQuantityForUpdate(ctx context.Context, id string) (int, error) {
	if r.readOnly {
		return 0, domain.ErrReadOnlyTx
	}
	return r.GetAvailableQuantity(ctx, id)
}

func (r *partRepo) SetAvailableQuantity(_ context.Context, id string, qty int) error {
	if r.readOnly {
		return domain.ErrReadOnlyTx
	}
	p, ok := r.st.parts[id]
	if !ok {
		return domain.ErrPartNotFound
	}
	if qty < 0 {
		return fmt.Errorf("%w: cantidad negativa para %s", domain.ErrIntegrityViolation, id)
	}
	p.AvailableQuantity = qty
	p.UpdatedAt = r.now()
	return nil
}

func (r *partRepo) ListAll(_ context.Context) ([]*entity.Part, error) {
	out := make([]*entity.Part, 0, len(r.st.parts))
	for _, p := range r.st.parts {
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// ---- órdenes ----

type orderRepo struct {
	st       *state
	readOnly bool
	now      func() time.Time
}

func (r *orderRepo) Create(_ context.Context, order *entity.RepairOrder) error {
	if r.readOnly {
		return domain.ErrReadOnlyTx
	}
	if _, dup := r.st.orders[order.ID]; dup {
		return fmt.Errorf("%w: orden %s duplicada", domain.ErrIntegrityViolation, order.ID)
	}
	r.st.orders[order.ID] = order.Clone()
	return nil
}

func (r *orderRepo) GetByID(_ context.Context, id string) (*entity.RepairOrder, error) {
	o, ok := r.st.orders[id]
	if !ok {
		return nil, nil
	}
	return o.Clone(), nil
}

func (r *orderRepo) GetForUpdate(ctx context.Context, id string) (*entity.RepairOrder, error) {
	if r.readOnly {
		return nil, domain.ErrReadOnlyTx
	}
	return r.GetByID(ctx, id)
}

func (r *orderRepo) ListByStatus(_ context.Context, status entity.OrderStatus) ([]*entity.RepairOrder, error) {
	var out []*entity.RepairOrder
	for _, o := range r.st.orders {
		if o.Status == status {
			out = append(out, o.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *orderRepo) UpdateStatus(_ context.Context, id string, status entity.OrderStatus) error {
	if r.readOnly {
		return domain.ErrReadOnlyTx
	}
	o, ok := r.st.orders[id]
	if !ok {
		return domain.ErrOrderNotFound
	}
	o.Status = status
	o.UpdatedAt = r.now()
	return nil
}

// ---- movimientos ----

type movementRepo struct {
	st       *state
	readOnly bool
}

func (r *movementRepo) Create(_ context.Context, m *entity.StockMovement) error {
	if r.readOnly {
		return domain.ErrReadOnlyTx
	}
	cp := *m
	r.st.movements = append(r.st.movements, &cp)
	return nil
}

// ListByPart más reciente primero; limit <= 0 sin límite.
func (r *movementRepo) ListByPart(_ context.Context, partID string, limit, offset int) ([]*entity.StockMovement, error) {
	var out []*entity.StockMovement
	for i := len(r.st.movements) - 1; i >= 0; i-- {
		m := r.st.movements[i]
		if m.PartID != partID {
			continue
		}
		if offset > 0 {
			offset--
			continue
		}
		cp := *m
		out = append(out, &cp)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// ListByOrder en orden de registro.
func (r *movementRepo) ListByOrder(_ context.Context, orderID string) ([]*entity.StockMovement, error) {
	var out []*entity.StockMovement
	for _, m := range r.st.movements {
		if m.OrderID == orderID {
			cp := *m
			out = append(out, &cp)
		}
	}
	return out, nil
}
