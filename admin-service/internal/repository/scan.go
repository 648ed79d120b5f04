package repository

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"github.com/startupstarter/admin/shared/apperrors"
	"github.com/startupstarter/admin/shared/database"
)

type rowScanner interface {
	Scan(dest ...any) error
}

// notFound maps sql.ErrNoRows to the given sentinel and wraps anything else.
func notFound(err error, sentinel *apperrors.AppError, action string) error {
	if err == sql.ErrNoRows {
		return sentinel
	}
	return fmt.Errorf("failed to %s: %w", action, err)
}

// conflict maps a unique violation on one of the given constraints to its
// sentinel, or wraps the error.
func conflict(err error, action string, byConstraint map[string]*apperrors.AppError) error {
	if name, ok := database.UniqueViolation(err); ok {
		if sentinel, found := byConstraint[name]; found {
			return sentinel.WithCause(err)
		}
	}
	return fmt.Errorf("failed to %s: %w", action, err)
}

func requireRow(res sql.Result, sentinel *apperrors.AppError) error {
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return sentinel
	}
	return nil
}

// filter accumulates WHERE clauses with positional arguments.
type filter struct {
	clauses []string
	args    []any
}

func newFilter(base string, args ...any) *filter {
	return &filter{clauses: []string{base}, args: args}
}

func (f *filter) add(clause string, arg any) {
	f.args = append(f.args, arg)
	f.clauses = append(f.clauses, strings.ReplaceAll(clause, "?", fmt.Sprintf("$%d", len(f.args))))
}

func (f *filter) where() string {
	return " WHERE " + strings.Join(f.clauses, " AND ")
}

// page appends LIMIT and OFFSET placeholders and returns the full args.
func (f *filter) page(limit, offset int) (string, []any) {
	args := append(append([]any{}, f.args...), limit, offset)
	return fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args)), args
}

func stringArray(s *[]string) any {
	return pq.Array(s)
}
