package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// PGRepo persists audit entries to the audit_logs table.
//
// The table is INSERT-only for the application role; UPDATE/DELETE grants
// belong to an administrative principal only. PurgeOlderThan exists for the
// out-of-band retention job, not for the Logger.
type PGRepo struct {
	db *sql.DB
}

func NewPGRepo(db *sql.DB) (*PGRepo, error) {
	if db == nil {
		return nil, errors.New("audit: db is required")
	}
	return &PGRepo{db: db}, nil
}

const insertColumns = `
id, timestamp, action, severity, user_id, target_id, target_type,
ip_address, user_agent, metadata, success, error_message
`

func (r *PGRepo) Insert(ctx context.Context, e Entry) error {
	q := `
INSERT INTO audit_logs (` + insertColumns + `) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
`
	meta, err := marshalMetadata(e.Metadata)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, q,
		e.ID,
		e.Timestamp,
		string(e.Action),
		string(e.Severity),
		nullable(e.UserID),
		nullable(e.TargetID),
		nullable(e.TargetType),
		nullable(e.IPAddress),
		nullable(e.UserAgent),
		meta,
		e.Success,
		nullable(e.ErrorMessage),
	)
	return err
}

// InsertBatch writes the batch in one multi-row statement.
func (r *PGRepo) InsertBatch(ctx context.Context, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}

	var b strings.Builder
	b.WriteString(`INSERT INTO audit_logs (` + insertColumns + `) VALUES `)
	args := make([]any, 0, len(entries)*12)
	for i, e := range entries {
		meta, err := marshalMetadata(e.Metadata)
		if err != nil {
			return err
		}
		if i > 0 {
			b.WriteString(",")
		}
		base := i * 12
		b.WriteString("(")
		for j := 1; j <= 12; j++ {
			if j > 1 {
				b.WriteString(",")
			}
			fmt.Fprintf(&b, "$%d", base+j)
		}
		b.WriteString(")")
		args = append(args,
			e.ID,
			e.Timestamp,
			string(e.Action),
			string(e.Severity),
			nullable(e.UserID),
			nullable(e.TargetID),
			nullable(e.TargetType),
			nullable(e.IPAddress),
			nullable(e.UserAgent),
			meta,
			e.Success,
			nullable(e.ErrorMessage),
		)
	}

	_, err := r.db.ExecContext(ctx, b.String(), args...)
	return err
}

// PurgeOlderThan deletes entries older than the cutoff and returns the count.
// Reserved for the retention process; never called from the Logger.
func (r *PGRepo) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	const q = `
DELETE FROM audit_logs
WHERE timestamp < $1
`
	res, err := r.db.ExecContext(ctx, q, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func marshalMetadata(m map[string]any) (string, error) {
	if len(m) == 0 {
		return "{}", nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("audit: marshal metadata: %w", err)
	}
	return string(data), nil
}

func nullable(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
