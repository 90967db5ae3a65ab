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

var _ repository.RepairOrderRepository = (*RepairOrderRepo)(nil)

// RepairOrderRepo órdenes de reparación y sus detalles (order_details) sobre PostgreSQL.
type RepairOrderRepo struct {
	q Querier
}

// NewRepairOrderRepository construye el adaptador. Pasar pool o tx (Querier).
func NewRepairOrderRepository(q Querier) *RepairOrderRepo {
	return &RepairOrderRepo{q: q}
}

const orderColumns = `id, vehicle_id, customer_id, description, cost_price, sell_price, profit, priority, status, created_at, updated_at`

// Create inserta cabecera y detalles. Debe ejecutarse dentro de una tx para que sea atómico.
func (r *RepairOrderRepo) Create(ctx context.Context, o *entity.RepairOrder) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO repair_orders (`+orderColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		o.ID, o.VehicleID, o.CustomerID, o.Description, o.CostPrice, o.SellPrice, o.Profit,
		string(o.Priority), string(o.Status), o.CreatedAt, o.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: orden %s duplicada", domain.ErrIntegrityViolation, o.ID)
		}
		return fmt.Errorf("create repair order: %w", err)
	}
	for i, d := range o.Requirements {
		_, err := r.q.Exec(ctx, `
			INSERT INTO order_details (id, order_id, part_id, quantity, cost_price, sell_price, profit, position, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			d.ID, o.ID, d.PartID, d.Quantity, d.CostPrice, d.SellPrice, d.Profit, i, d.CreatedAt)
		if err != nil {
			return fmt.Errorf("create order detail: %w", err)
		}
	}
	return nil
}

// GetByID obtiene la orden con sus detalles.
func (r *RepairOrderRepo) GetByID(ctx context.Context, id string) (*entity.RepairOrder, error) {
	return r.getOne(ctx, `SELECT `+orderColumns+` FROM repair_orders WHERE id = $1`, id)
}

// GetForUpdate igual que GetByID pero bloquea la fila de la orden (SELECT FOR UPDATE).
func (r *RepairOrderRepo) GetForUpdate(ctx context.Context, id string) (*entity.RepairOrder, error) {
	return r.getOne(ctx, `SELECT `+orderColumns+` FROM repair_orders WHERE id = $1 FOR UPDATE`, id)
}

func (r *RepairOrderRepo) getOne(ctx context.Context, query, id string) (*entity.RepairOrder, error) {
	o, err := scanOrder(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get repair order: %w", err)
	}
	if err := r.loadDetails(ctx, []*entity.RepairOrder{o}); err != nil {
		return nil, err
	}
	return o, nil
}

// ListByStatus órdenes del estado ordenadas por ID, con detalles.
func (r *RepairOrderRepo) ListByStatus(ctx context.Context, status entity.OrderStatus) ([]*entity.RepairOrder, error) {
	rows, err := r.q.Query(ctx, `SELECT `+orderColumns+` FROM repair_orders WHERE status = $1 ORDER BY id`, string(status))
	if err != nil {
		return nil, fmt.Errorf("list repair orders: %w", err)
	}
	var list []*entity.RepairOrder
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan repair order: %w", err)
		}
		list = append(list, o)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list repair orders: %w", err)
	}
	if err := r.loadDetails(ctx, list); err != nil {
		return nil, err
	}
	return list, nil
}

// UpdateStatus cambia el estado. La validez de la transición la decide la máquina de estados.
func (r *RepairOrderRepo) UpdateStatus(ctx context.Context, id string, status entity.OrderStatus) error {
	tag, err := r.q.Exec(ctx,
		`UPDATE repair_orders SET status = $2, updated_at = now() WHERE id = $1`, id, string(status))
	if err != nil {
		if isReadOnlyViolation(err) {
			return domain.ErrReadOnlyTx
		}
		return fmt.Errorf("update repair order status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrOrderNotFound
	}
	return nil
}

// loadDetails carga los detalles de todas las órdenes en una sola consulta.
func (r *RepairOrderRepo) loadDetails(ctx context.Context, orders []*entity.RepairOrder) error {
	if len(orders) == 0 {
		return nil
	}
	ids := make([]string, len(orders))
	byID := make(map[string]*entity.RepairOrder, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
		byID[o.ID] = o
	}
	rows, err := r.q.Query(ctx, `
		SELECT id, order_id, part_id, quantity, cost_price, sell_price, profit, created_at
		FROM order_details WHERE order_id = ANY($1)
		ORDER BY order_id, position`, ids)
	if err != nil {
		return fmt.Errorf("list order details: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var d entity.OrderRequirement
		if err := rows.Scan(&d.ID, &d.OrderID, &d.PartID, &d.Quantity, &d.CostPrice, &d.SellPrice, &d.Profit, &d.CreatedAt); err != nil {
			return fmt.Errorf("scan order detail: %w", err)
		}
		if o := byID[d.OrderID]; o != nil {
			o.Requirements = append(o.Requirements, d)
		}
	}
	return rows.Err()
}

func scanOrder(row pgx.Row) (*entity.RepairOrder, error) {
	var o entity.RepairOrder
	var priority, status string
	if err := row.Scan(&o.ID, &o.VehicleID, &o.CustomerID, &o.Description, &o.CostPrice, &o.SellPrice,
		&o.Profit, &priority, &status, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return nil, err
	}
	o.Priority = entity.Priority(priority)
	o.Status = entity.OrderStatus(status)
	return &o, nil
}
