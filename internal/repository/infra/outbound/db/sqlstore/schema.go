package sqlstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/davicafu/hexaquery/internal/repository/domain"
)

// ------------------ Inicialización de DB ------------------

// InitOutbox crea la tabla del outbox si no existe. Las columnas son TEXT
// para que SQLite no convierta created_at a fecha y el orden siga siendo
// lexicográfico.
func InitOutbox(ctx context.Context, db *sql.DB, d Dialect) error {
	_, err := db.ExecContext(ctx, fmt.Sprintf(`
        CREATE TABLE IF NOT EXISTS %s (
            id TEXT PRIMARY KEY,
            resource TEXT NOT NULL,
            event_type TEXT NOT NULL,
            payload TEXT NOT NULL,
            created_at TEXT NOT NULL,
            processed BOOLEAN NOT NULL DEFAULT FALSE
        )
    `, d.QuoteIdent(domain.OutboxResource)))
	if err != nil {
		return fmt.Errorf("failed to create outbox table: %w", err)
	}
	return nil
}
