package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/startupstarter/admin/shared/database"
)

const purgedAccounts = `SELECT id FROM accounts WHERE deleted_at IS NOT NULL AND deleted_at < $1`

// purgeStatements run in order inside one transaction; children before parents.
var purgeStatements = []struct {
	table string
	query string
}{
	{"sessions", `DELETE FROM sessions WHERE (revoked_at IS NOT NULL AND revoked_at < $1) OR expires_at < $1`},
	{"webhook_deliveries", `DELETE FROM webhook_deliveries WHERE created_at < $1`},
	{"audit_entries", `DELETE FROM audit_entries WHERE created_at < $1`},
	{"content", `DELETE FROM content WHERE (deleted_at IS NOT NULL AND deleted_at < $1)
		OR account_id IN (` + purgedAccounts + `)`},
	{"users", `DELETE FROM users WHERE (deleted_at IS NOT NULL AND deleted_at < $1)
		OR account_id IN (` + purgedAccounts + `)`},
	{"roles", `DELETE FROM roles WHERE account_id IN (` + purgedAccounts + `)`},
	{"workflows", `DELETE FROM workflows WHERE account_id IN (` + purgedAccounts + `)`},
	{"media", `DELETE FROM media WHERE account_id IN (` + purgedAccounts + `)`},
	{"api_keys", `DELETE FROM api_keys WHERE account_id IN (` + purgedAccounts + `)`},
	{"webhooks", `DELETE FROM webhooks WHERE account_id IN (` + purgedAccounts + `)`},
	{"accounts", `DELETE FROM accounts WHERE deleted_at IS NOT NULL AND deleted_at < $1`},
}

type SystemRepository struct {
	db *sql.DB
}

func NewSystemRepository(db *sql.DB) *SystemRepository {
	return &SystemRepository{db: db}
}

func (r *SystemRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// PurgeResult lists the rows removed per table and the blobs orphaned by
// purged media rows.
type PurgeResult struct {
	Counts      map[string]int64
	StorageKeys []string
}

// Purge hard-deletes data older than cutoff.
func (r *SystemRepository) Purge(ctx context.Context, cutoff time.Time) (*PurgeResult, error) {
	out := &PurgeResult{Counts: make(map[string]int64, len(purgeStatements))}
	err := database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, `SELECT storage_key FROM media WHERE account_id IN (`+purgedAccounts+`)`, cutoff)
		if err != nil {
			return fmt.Errorf("failed to collect media keys: %w", err)
		}
		for rows.Next() {
			var key string
			if err := rows.Scan(&key); err != nil {
				rows.Close()
				return err
			}
			out.StorageKeys = append(out.StorageKeys, key)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}

		for _, st := range purgeStatements {
			res, err := tx.ExecContext(ctx, st.query, cutoff)
			if err != nil {
				return fmt.Errorf("failed to purge %s: %w", st.table, err)
			}
			n, err := res.RowsAffected()
			if err != nil {
				return err
			}
			out.Counts[st.table] = n
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
