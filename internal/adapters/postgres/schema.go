package postgres

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/kevin07696/bnpl-service/internal/domain/ports"
)

// Schema creates every table the connector reads or writes. It is idempotent.
//
//go:embed schema.sql
var Schema string

// ApplySchema runs Schema against the database.
// Exec without arguments uses the simple protocol, which accepts multiple statements.
func ApplySchema(ctx context.Context, db ports.DBTX) error {
	if _, err := db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
