package helper

import (
	"errors"
	"net/http"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

const (
	SQLStateUniqueViolation     = "23505"
	SQLStateForeignKeyViolation = "23503"
	SQLStateCheckViolation      = "23514"
)

// SQLState extracts the SQLSTATE from a pgx or lib/pq error, "" otherwise.
func SQLState(err error) string {
	var pgxErr *pgconn.PgError
	if errors.As(err, &pgxErr) {
		return pgxErr.Code
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	return ""
}

// IsUniqueViolation also accepts gorm's translated error.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return SQLState(err) == SQLStateUniqueViolation
}

// MapPGError turns a database error into an HTTP status and a client-safe message.
func MapPGError(err error) (int, string) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return http.StatusNotFound, "record not found"
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return http.StatusConflict, "duplicate record (unique violation)"
	}
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return http.StatusBadRequest, "referenced record not found (FK violation)"
	}
	switch SQLState(err) {
	case SQLStateUniqueViolation:
		return http.StatusConflict, "duplicate record (unique violation)"
	case SQLStateForeignKeyViolation:
		return http.StatusBadRequest, "referenced record not found (FK violation)"
	case SQLStateCheckViolation:
		return http.StatusBadRequest, "value rejected by check constraint"
	}
	return http.StatusInternalServerError, "database error"
}
