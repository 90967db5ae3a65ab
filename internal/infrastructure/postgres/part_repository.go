package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Taller-api/internal/domain"
	"github.com/jhoicas/Taller-api/internal/domain/entity"
	"github.com/jhoicas/Taller-api/internal/domain/repository"
)

var _ repository.PartRepository = (*PartRepo)(nil)

// PartRepo implementación sobre PostgreSQL (usable con pool o tx).
type PartRepo struct {
	q Querier
}

// NewPartRepository construye el adaptador. Pasar pool o tx (Querier).
func NewPartRepository(q Querier) *PartRepo {
	return &PartRepo{q: q}
}

const partColumns = `id, name, description, cost_price, sell_price, available_quantity, created_at, updated_at`

func scanPart(row pgx.Row) (*entity.Part, error) {
	var p entity.Part
	if err := row.Scan(&p.ID, &p.Name, &p.Description, &p.CostPrice, &p.SellPrice,
		&p.AvailableQuantity, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

// GetByID obtiene un repuesto por ID.
func (r *PartRepo) GetByID(ctx context.Context, id string) (*entity.Part, error) {
	p, err := scanPart(r.q.QueryRow(ctx, `SELECT `+partColumns+` FROM parts WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get part: %w", err)
	}
	return p, nil
}

// GetAvailableQuantity cantidad disponible sin bloqueo.
func (r *PartRepo) GetAvailableQuantity(ctx context.Context, id string) (int, error) {
	return r.available(ctx, `SELECT available_quantity FROM parts WHERE id = $1`, id)
}

// GetAvailableQuantityForUpdate bloquea la fila (SELECT FOR UPDATE) hasta el fin de la tx.
func (r *PartRepo) GetAvailableQuantityForUpdate(ctx context.Context, id string) (int, error) {
	return r.available(ctx, `SELECT available_quantity FROM parts WHERE id = $1 FOR UPDATE`, id)
}

func (r *PartRepo) available(ctx context.Context, query, id string) (int, error) {
	var qty int
	if err := r.q.QueryRow(ctx, query, id).Scan(&qty); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, domain.ErrPartNotFound
		}
		return 0, fmt.Errorf("get available quantity: %w", err)
	}
	return qty, nil
}

// SetAvailableQuantity fija la cantidad disponible.
func (r *PartRepo) SetAvailableQuantity(ctx context.Context, id string, qty int) error {
	tag, err := r.q.Exec(ctx,
		`UPDATE parts SET available_quantity = $2, updated_at = now() WHERE id = $1`, id, qty)
	if err != nil {
		switch {
		case isCheckViolation(err):
			return fmt.Errorf("%w: cantidad negativa para %s", domain.ErrIntegrityViolation, id)
		case isReadOnlyViolation(err):
			return domain.ErrReadOnlyTx
		}
		return fmt.Errorf("set available quantity: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrPartNotFound
	}
	return nil
}

// ListAll lista todos los repuestos ordenados por ID.
func (r *PartRepo) ListAll(ctx context.Context) ([]*entity.Part, error) {
	rows, err := r.q.Query(ctx, `SELECT `+partColumns+` FROM parts ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list parts: %w", err)
	}
	defer rows.Close()
	var list []*entity.Part
	for rows.Next() {
		p, err := scanPart(rows)
		if err != nil {
			return nil, fmt.Errorf("scan part: %w", err)
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

// upsertPartSQL la cantidad disponible solo se fija en el alta: una vez que el repuesto existe,
// el stock cambia únicamente por el libro de stock (que deja su movimiento).
const upsertPartSQL = `
	INSERT INTO parts (id, name, description, cost_price, sell_price, available_quantity, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, now(), now())
	ON CONFLICT (id) DO UPDATE SET
		name = EXCLUDED.name,
		description = EXCLUDED.description,
		cost_price = EXCLUDED.cost_price,
		sell_price = EXCLUDED.sell_price,
		updated_at = now()`

// Upsert alta de un repuesto o actualización de su catálogo (nombre, descripción, precios).
// Si ya existe, conserva su available_quantity.
func (r *PartRepo) Upsert(ctx context.Context, p *entity.Part) error {
	_, err := r.q.Exec(ctx, upsertPartSQL,
		p.ID, p.Name, p.Description, p.CostPrice, p.SellPrice, p.AvailableQuantity)
	if err != nil {
		return fmt.Errorf("upsert part: %w", err)
	}
	return nil
}
