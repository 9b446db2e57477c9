package postgres

import (
	"github.com/itsatony/w4b_v3/server/geosensor/internal/database"
)

// PostgresBaseRepo carries the shared handle of every relational repository
type PostgresBaseRepo struct {
	db database.DB
}
