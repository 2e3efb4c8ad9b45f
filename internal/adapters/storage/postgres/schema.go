package postgres

import (
	"context"
	"database/sql"

	_ "embed"
)

//go:embed schema.sql
var schemaSQL string

// EnsureSchema aplica el DDL (idempotente) al arrancar. Suficiente para
// este tamaño de sistema; si algún día hay migraciones reales, esto se
// reemplaza por un runner versionado.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, schemaSQL)
	return err
}
