package database

import "gorm.io/gorm"

const advanceSequenceSQL = `SELECT setval(pg_get_serial_sequence(?, 'id'), ?) ` +
	`WHERE ? > COALESCE(pg_sequence_last_value(pg_get_serial_sequence(?, 'id')::regclass), 0)`

// AdvanceSequence moves the id sequence of table past id after a row was inserted
// with an explicit id, so later store-assigned ids do not collide with it. SQLite
// derives the next rowid from the table itself and needs nothing.
func AdvanceSequence(tx *gorm.DB, table string, id uint) error {
	if !isPostgres(tx) || id == 0 {
		return nil
	}
	return tx.Exec(advanceSequenceSQL, table, id, id, table).Error
}
