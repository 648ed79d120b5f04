package database

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestUniqueViolation(t *testing.T) {
	err := fmt.Errorf("insert: %w", &pq.Error{Code: "23505", Constraint: "users_account_email_key"})
	name, ok := UniqueViolation(err)
	assert.True(t, ok)
	assert.Equal(t, "users_account_email_key", name)

	_, ok = UniqueViolation(&pq.Error{Code: "23503"})
	assert.False(t, ok)

	_, ok = UniqueViolation(errors.New("boom"))
	assert.False(t, ok)
}

func TestNullTime(t *testing.T) {
	assert.False(t, NullTime(nil).Valid)
	now := time.Now()
	nt := NullTime(&now)
	assert.True(t, nt.Valid)
	assert.True(t, now.Equal(*TimePtr(nt)))
	assert.Nil(t, TimePtr(NullTime(nil)))
}

func TestLikePattern(t *testing.T) {
	assert.Equal(t, `%50\% off\_now%`, LikePattern("50% off_now"))
}

func TestMigrationsAreEmbedded(t *testing.T) {
	body, err := migrationFiles.ReadFile("migrations/0001_init.sql")
	assert.NoError(t, err)
	assert.Contains(t, string(body), "CREATE TABLE IF NOT EXISTS audit_entries")
}
