package postgres

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/greenmart/groceryapi/internal/domain"
)

type orderEventRepository struct {
	db     DBTX
	logger *zap.Logger
}

// NewOrderEventRepository creates a new order event repository
func NewOrderEventRepository(db DBTX, logger *zap.Logger) *orderEventRepository {
	return &orderEventRepository{db: db, logger: logger}
}

func (r *orderEventRepository) Create(ctx context.Context, event *domain.OrderEvent) error {
	query := `
		INSERT INTO order_events (id, order_id, event_type, event_data, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	eventData, err := json.Marshal(event.EventData)
	if err != nil {
		r.logger.Error("Failed to marshal event data", zap.Error(err))
		return err
	}

	_, err = r.db.ExecContext(ctx, query,
		event.ID,
		event.OrderID,
		event.EventType,
		eventData,
		event.CreatedAt,
	)

	if err != nil {
		r.logger.Error("Failed to create order event", zap.Error(err))
		return err
	}

	return nil
}

func (r *orderEventRepository) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]*domain.OrderEvent, error) {
	query := `
		SELECT id, order_id, event_type, event_data, created_at
		FROM order_events
		WHERE order_id = $1
		ORDER BY created_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query, orderID)
	if err != nil {
		r.logger.Error("Failed to list order events", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var events []*domain.OrderEvent
	for rows.Next() {
		var (
			event     domain.OrderEvent
			eventData []byte
		)
		if err := rows.Scan(
			&event.ID,
			&event.OrderID,
			&event.EventType,
			&eventData,
			&event.CreatedAt,
		); err != nil {
			return nil, err
		}
		if len(eventData) > 0 {
			if err := json.Unmarshal(eventData, &event.EventData); err != nil {
				return nil, err
			}
		}
		events = append(events, &event)
	}

	return events, rows.Err()
}
