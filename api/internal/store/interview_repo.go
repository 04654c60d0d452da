package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"hiring-bot/api/internal/session"
)

var ErrNotFound = sql.ErrNoRows

// InterviewRepo archives finished transcripts in Postgres.
type InterviewRepo struct{ DB *sql.DB }

func NewInterviewRepo(db *sql.DB) *InterviewRepo { return &InterviewRepo{DB: db} }

// TranscriptRow is one archived conversation.
type TranscriptRow struct {
	SessionID     string        `json:"session_id"`
	Phase         session.Phase `json:"phase"`
	CandidateName string        `json:"candidate_name"`
	Email         string        `json:"email"`
	Position      string        `json:"position"`
	Transcript    session.View  `json:"transcript"`
	StartedAt     time.Time     `json:"started_at"`
	FinishedAt    time.Time     `json:"finished_at"`
}

const schema = `
create table if not exists interview_transcripts (
	session_id     text primary key,
	phase          text not null,
	candidate_name text not null default '',
	email          text not null default '',
	position       text not null default '',
	transcript     jsonb not null,
	started_at     timestamptz not null,
	finished_at    timestamptz not null default now()
)`

func (r *InterviewRepo) EnsureSchema(ctx context.Context) error {
	_, err := r.DB.ExecContext(ctx, schema)
	return err
}

// SaveTranscript upserts by session id, so a restarted conversation in the
// same chat overwrites the previous one.
func (r *InterviewRepo) SaveTranscript(ctx context.Context, v session.View) error {
	js, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal transcript: %w", err)
	}
	const q = `
insert into interview_transcripts(session_id, phase, candidate_name, email, position, transcript, started_at)
values ($1,$2,$3,$4,$5,$6,$7)
on conflict (session_id)
do update set phase=excluded.phase,
              candidate_name=excluded.candidate_name,
              email=excluded.email,
              position=excluded.position,
              transcript=excluded.transcript,
              started_at=excluded.started_at,
              finished_at=now()`
	_, err = r.DB.ExecContext(ctx, q,
		v.ID, string(v.Phase),
		v.Profile.String("name"), v.Profile.String("email"), v.Profile.String("position"),
		js, v.StartedAt)
	return err
}

func (r *InterviewRepo) FindBySession(ctx context.Context, id string) (*TranscriptRow, error) {
	const q = `
select session_id, phase, candidate_name, email, position, transcript, started_at, finished_at
from interview_transcripts
where session_id = $1`
	var (
		row   TranscriptRow
		phase string
		js    []byte
	)
	err := r.DB.QueryRowContext(ctx, q, id).Scan(
		&row.SessionID, &phase, &row.CandidateName, &row.Email, &row.Position,
		&js, &row.StartedAt, &row.FinishedAt)
	if err != nil {
		return nil, err
	}
	row.Phase = session.Phase(phase)
	if err := json.Unmarshal(js, &row.Transcript); err != nil {
		return nil, fmt.Errorf("decode transcript %s: %w", id, err)
	}
	return &row, nil
}

// PurgeOlderThan deletes transcripts finished before now-age and returns
// how many went.
func (r *InterviewRepo) PurgeOlderThan(ctx context.Context, age time.Duration) (int64, error) {
	if age <= 0 {
		return 0, errors.New("purge: age must be positive")
	}
	res, err := r.DB.ExecContext(ctx,
		`delete from interview_transcripts where finished_at < $1`, time.Now().Add(-age))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

var _ session.Archive = (*InterviewRepo)(nil)
