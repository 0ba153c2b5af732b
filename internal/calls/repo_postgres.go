package calls

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"medremind/pkg/utils"

	"github.com/jackc/pgx/v5/pgconn"
)

const callLogsSchema = `
CREATE TABLE IF NOT EXISTS call_logs (
	call_sid         TEXT PRIMARY KEY,
	patient_phone    TEXT NOT NULL,
	status           TEXT NOT NULL,
	direction        TEXT NOT NULL,
	patient_response TEXT NOT NULL DEFAULT '',
	duration         INT NOT NULL DEFAULT 0,
	recording_url    TEXT NOT NULL DEFAULT '',
	voicemail_left   BOOLEAN NOT NULL DEFAULT FALSE,
	sms_sent         BOOLEAN NOT NULL DEFAULT FALSE,
	error_message    TEXT NOT NULL DEFAULT '',
	medication_list  JSONB NOT NULL DEFAULT '[]',
	call_attempts    INT NOT NULL DEFAULT 1,
	last_attempt_at  TIMESTAMPTZ NOT NULL,
	next_attempt_at  TIMESTAMPTZ,
	created_at       TIMESTAMPTZ NOT NULL,
	updated_at       TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_call_logs_created_at ON call_logs (created_at DESC);
CREATE INDEX IF NOT EXISTS idx_call_logs_phone_status ON call_logs (patient_phone, status);
CREATE INDEX IF NOT EXISTS idx_call_logs_next_attempt ON call_logs (next_attempt_at)
	WHERE next_attempt_at IS NOT NULL;
`

const callLogColumns = `call_sid, patient_phone, status, direction, patient_response,
	duration, recording_url, voicemail_left, sms_sent, error_message,
	medication_list, call_attempts, last_attempt_at, next_attempt_at,
	created_at, updated_at`

// PostgresRepo persists call logs via database/sql over the pgx stdlib driver.
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo { return &PostgresRepo{db: db} }

// EnsureSchema creates the call_logs table and indexes if missing. The table
// and its indexes land together or not at all.
func (r *PostgresRepo) EnsureSchema(ctx context.Context) error {
	err := utils.WithTx(ctx, r.db, nil, func(ctx context.Context, tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, callLogsSchema)
		return err
	})
	if err != nil {
		return fmt.Errorf("calls: ensure schema: %w", err)
	}
	return nil
}

func (r *PostgresRepo) Create(ctx context.Context, log *CallLog) error {
	if log.CallSID == "" {
		return validationf("call sid is required")
	}
	meds, err := json.Marshal(log.MedicationList)
	if err != nil {
		return fmt.Errorf("calls: encode medication list: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO call_logs (`+callLogColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
		log.CallSID, log.PatientPhone, log.Status, log.Direction, log.PatientResponse,
		log.DurationSeconds, log.RecordingURL, log.VoicemailLeft, log.SMSSent, log.ErrorMessage,
		meds, log.CallAttempts, log.LastAttemptAt, log.NextAttemptAt,
		log.CreatedAt, log.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicate
		}
		return fmt.Errorf("calls: insert call log: %w", err)
	}
	return nil
}

func (r *PostgresRepo) GetBySID(ctx context.Context, callSID string) (CallLog, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+callLogColumns+` FROM call_logs WHERE call_sid = $1`, callSID)
	log, err := scanCallLog(row)
	if errors.Is(err, sql.ErrNoRows) {
		return CallLog{}, ErrNotFound
	}
	if err != nil {
		return CallLog{}, fmt.Errorf("calls: get call log: %w", err)
	}
	return log, nil
}

func (r *PostgresRepo) Update(ctx context.Context, log *CallLog) error {
	meds, err := json.Marshal(log.MedicationList)
	if err != nil {
		return fmt.Errorf("calls: encode medication list: %w", err)
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE call_logs SET
			patient_phone = $2, status = $3, direction = $4, patient_response = $5,
			duration = $6, recording_url = $7, voicemail_left = $8, sms_sent = $9,
			error_message = $10, medication_list = $11, call_attempts = $12,
			last_attempt_at = $13, next_attempt_at = $14, updated_at = $15
		WHERE call_sid = $1`,
		log.CallSID, log.PatientPhone, log.Status, log.Direction, log.PatientResponse,
		log.DurationSeconds, log.RecordingURL, log.VoicemailLeft, log.SMSSent,
		log.ErrorMessage, meds, log.CallAttempts,
		log.LastAttemptAt, log.NextAttemptAt, log.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("calls: update call log: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("calls: update call log: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepo) List(ctx context.Context, f Filter, page, limit int) ([]CallLog, int, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}

	where := "WHERE ($1 = '' OR status = $1) AND ($2 = '' OR patient_phone = $2)"

	var total int
	if err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM call_logs "+where,
		string(f.Status), f.PatientPhone,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("calls: count call logs: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+callLogColumns+` FROM call_logs `+where+`
		ORDER BY created_at DESC, call_sid DESC
		LIMIT $3 OFFSET $4`,
		string(f.Status), f.PatientPhone, limit, (page-1)*limit,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("calls: list call logs: %w", err)
	}
	defer rows.Close()

	logs, err := collectCallLogs(rows)
	if err != nil {
		return nil, 0, err
	}
	return logs, total, nil
}

func (r *PostgresRepo) ListDueRetries(ctx context.Context, now time.Time, limit int) ([]CallLog, error) {
	if limit < 1 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+callLogColumns+` FROM call_logs
		WHERE next_attempt_at IS NOT NULL AND next_attempt_at <= $1
		ORDER BY next_attempt_at ASC
		LIMIT $2`, now, limit)
	if err != nil {
		return nil, fmt.Errorf("calls: list due retries: %w", err)
	}
	defer rows.Close()
	return collectCallLogs(rows)
}

func (r *PostgresRepo) ListBetween(ctx context.Context, from, to time.Time) ([]CallLog, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+callLogColumns+` FROM call_logs
		WHERE created_at >= $1 AND created_at < $2
		ORDER BY created_at DESC, call_sid DESC`, from, to)
	if err != nil {
		return nil, fmt.Errorf("calls: list call logs by range: %w", err)
	}
	defer rows.Close()
	return collectCallLogs(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCallLog(row rowScanner) (CallLog, error) {
	var (
		log  CallLog
		meds []byte
		next sql.NullTime
	)
	err := row.Scan(
		&log.CallSID, &log.PatientPhone, &log.Status, &log.Direction, &log.PatientResponse,
		&log.DurationSeconds, &log.RecordingURL, &log.VoicemailLeft, &log.SMSSent, &log.ErrorMessage,
		&meds, &log.CallAttempts, &log.LastAttemptAt, &next,
		&log.CreatedAt, &log.UpdatedAt,
	)
	if err != nil {
		return CallLog{}, err
	}
	if len(meds) > 0 {
		if err := json.Unmarshal(meds, &log.MedicationList); err != nil {
			return CallLog{}, fmt.Errorf("calls: decode medication list: %w", err)
		}
	}
	if next.Valid {
		at := next.Time
		log.NextAttemptAt = &at
	}
	return log, nil
}

func collectCallLogs(rows *sql.Rows) ([]CallLog, error) {
	logs := make([]CallLog, 0)
	for rows.Next() {
		log, err := scanCallLog(rows)
		if err != nil {
			return nil, fmt.Errorf("calls: scan call log: %w", err)
		}
		logs = append(logs, log)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("calls: iterate call logs: %w", err)
	}
	return logs, nil
}
