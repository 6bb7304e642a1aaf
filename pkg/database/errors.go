package database

import (
	"errors"

	"github.com/lib/pq"
)

// PostgreSQL SQLSTATE codes the repositories react to.
const (
	CodeForeignKeyViolation  = "23503"
	CodeUniqueViolation      = "23505"
	CodeExclusionViolation   = "23P01"
	CodeSerializationFailure = "40001"
)

// Code extracts the SQLSTATE of a lib/pq error, or "" for anything else.
func Code(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	return ""
}

func IsExclusionViolation(err error) bool { return Code(err) == CodeExclusionViolation }

func IsForeignKeyViolation(err error) bool { return Code(err) == CodeForeignKeyViolation }

func IsUniqueViolation(err error) bool { return Code(err) == CodeUniqueViolation }

func IsSerializationFailure(err error) bool { return Code(err) == CodeSerializationFailure }
