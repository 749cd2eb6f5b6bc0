package store

import "context"

// Migrate bootstraps the schema. Idempotent; runs at API startup.
func (d *DB) Migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS students (
		id            UUID PRIMARY KEY,
		user_id       TEXT NOT NULL UNIQUE,
		name          TEXT NOT NULL,
		password_hash TEXT NOT NULL,
		roll          TEXT NOT NULL DEFAULT '',
		course        TEXT NOT NULL DEFAULT '',
		year          INT  NOT NULL DEFAULT 0,
		semester      INT  NOT NULL DEFAULT 0,
		photo_url     TEXT NOT NULL DEFAULT '',
		approved      BOOLEAN NOT NULL DEFAULT FALSE,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS teachers (
		id            UUID PRIMARY KEY,
		user_id       TEXT NOT NULL UNIQUE,
		name          TEXT NOT NULL,
		password_hash TEXT NOT NULL,
		department    TEXT NOT NULL DEFAULT '',
		courses       TEXT NOT NULL DEFAULT '',
		photo_url     TEXT NOT NULL DEFAULT '',
		created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS admins (
		id            UUID PRIMARY KEY,
		user_id       TEXT NOT NULL UNIQUE,
		name          TEXT NOT NULL,
		password_hash TEXT NOT NULL,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS attendance_records (
		id         UUID PRIMARY KEY,
		student_id UUID NOT NULL REFERENCES students(id) ON DELETE CASCADE,
		day        DATE NOT NULL,
		status     TEXT NOT NULL,
		marked_by  TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (student_id, day)
	);

	CREATE TABLE IF NOT EXISTS complaints (
		id         UUID PRIMARY KEY,
		student_id UUID NOT NULL REFERENCES students(id) ON DELETE CASCADE,
		message    TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_attendance_student ON attendance_records(student_id);
	CREATE INDEX IF NOT EXISTS idx_complaints_student ON complaints(student_id);
	`
	_, err := d.Client.ExecContext(ctx, schema)
	return err
}
