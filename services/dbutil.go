package services

import (
	"errors"
	"strings"

	mysql "github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// isDuplicateKey covers translated gorm errors, raw MySQL 1062 and the
// message text other drivers produce.
func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var me *mysql.MySQLError
	if errors.As(err, &me) && me.Number == 1062 {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") || strings.Contains(msg, "unique")
}

// MySQL lock conflicts: deadlock victim and lock wait timeout.
const (
	mysqlDeadlock        = 1213
	mysqlLockWaitTimeout = 1205
)

// isRetryableWrite reports whether a transaction lost a race on the
// (user, date) key and can be replayed. Two first check-ins on InnoDB take
// gap locks on the missing row, so the loser sees a deadlock rather than a
// duplicate key.
func isRetryableWrite(err error) bool {
	if isDuplicateKey(err) {
		return true
	}
	var me *mysql.MySQLError
	if errors.As(err, &me) && (me.Number == mysqlDeadlock || me.Number == mysqlLockWaitTimeout) {
		return true
	}
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "deadlock")
}

// forUpdate locks the selected rows where the dialect supports it.
func forUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}
