package database

import (
	"fmt"

	_ "github.com/lib/pq"
)

// PostgresDialect implements Dialect for PostgreSQL databases.
type PostgresDialect struct{}

// DriverName returns "postgres" for the lib/pq driver.
func (d *PostgresDialect) DriverName() string {
	return "postgres"
}

// Placeholder returns "$N" for the given position.
func (d *PostgresDialect) Placeholder(position int) string {
	return fmt.Sprintf("$%d", position)
}

// InitStatements returns nothing; PostgreSQL needs no session setup.
func (d *PostgresDialect) InitStatements() []string {
	return nil
}

// BigIntType returns BIGINT.
func (d *PostgresDialect) BigIntType() string {
	return "BIGINT"
}
