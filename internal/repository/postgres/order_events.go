package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/tiendaluna/storeapi/internal/domain"
)

type orderEventRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewOrderEventRepository creates a new order event repository
func NewOrderEventRepository(db *sql.DB, logger *zap.Logger) *orderEventRepository {
	return &orderEventRepository{
		db:     db,
		logger: logger,
	}
}

func (r *orderEventRepository) Create(ctx context.Context, event *domain.OrderEvent) error {
	query := `
		INSERT INTO order_events (order_number, event_type, event_data, created_at)
		VALUES ($1, $2, $3, $4)
	`

	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	eventJSON, err := json.Marshal(event.EventData)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, query,
		event.OrderNumber,
		event.EventType,
		eventJSON,
		event.CreatedAt,
	)

	if err != nil {
		r.logger.Error("Failed to create order event", zap.Error(err))
		return err
	}

	return nil
}

func (r *orderEventRepository) GetByOrderNumber(ctx context.Context, orderNumber string) ([]*domain.OrderEvent, error) {
	query := `
		SELECT id, order_number, event_type, event_data, created_at
		FROM order_events
		WHERE order_number = $1
		ORDER BY created_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query, orderNumber)
	if err != nil {
		r.logger.Error("Failed to get order events", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	events := make([]*domain.OrderEvent, 0)
	for rows.Next() {
		var event domain.OrderEvent
		var eventJSON []byte
		if err := rows.Scan(
			&event.ID,
			&event.OrderNumber,
			&event.EventType,
			&eventJSON,
			&event.CreatedAt,
		); err != nil {
			return nil, err
		}
		if len(eventJSON) > 0 {
			if err := json.Unmarshal(eventJSON, &event.EventData); err != nil {
				return nil, err
			}
		}
		events = append(events, &event)
	}

	return events, rows.Err()
}
