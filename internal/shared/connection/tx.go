package connection

import (
	"context"
	"database/sql"

	"gorm.io/gorm"
)

// Conn returns a gorm handle bound to ctx. When tx is not nil every statement
// issued through the handle runs inside that transaction.
func Conn(ctx context.Context, db *gorm.DB, tx *sql.Tx) *gorm.DB {
	g := db.WithContext(ctx)
	if tx != nil {
		g.Statement.ConnPool = tx
	}
	return g
}
