package database

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// isPostgres reports whether tx runs on postgres. Row locks and sequences exist only
// there: SQLite serializes writers itself and rejects locking clauses.
func isPostgres(tx *gorm.DB) bool {
	return tx.Dialector.Name() == string(DriverPostgres)
}

// ForUpdate locks the selected rows against concurrent writers until commit.
func ForUpdate(tx *gorm.DB) *gorm.DB {
	if !isPostgres(tx) {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

// ForShare locks the selected rows against concurrent deletes and updates until commit.
func ForShare(tx *gorm.DB) *gorm.DB {
	if !isPostgres(tx) {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "SHARE"})
}
