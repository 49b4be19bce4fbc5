package analytics

import (
	"context"
	"database/sql"
	"fmt"

	"gallery-be/internal/logger"

	"go.uber.org/zap"
)

type Repository interface {
	InsertHit(ctx context.Context, hit Hit) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) InsertHit(ctx context.Context, hit Hit) error {
	query := `
		INSERT INTO analytics_hits (hit_type, client_id, screen_name, category, action, label, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.ExecContext(ctx, query,
		string(hit.Type),
		hit.ClientID,
		hit.Screen,
		hit.Category,
		hit.Action,
		hit.Label,
		hit.At,
	)
	if err != nil {
		logger.FromCtx(ctx).Debug("InsertHit failed",
			zap.String("hit_type", string(hit.Type)),
			zap.Error(err),
		)
		return fmt.Errorf("insert hit: %w", err)
	}
	return nil
}
