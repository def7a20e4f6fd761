// Package sqlite persists encounters and their SOAP notes.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/clinicore/scribe/internal/medical"

	_ "modernc.org/sqlite" // database/sql driver
)

// ErrNotFound signals a lookup for an encounter id that does not exist.
var ErrNotFound = errors.New("encounter not found")

// EncounterStore handles storage of encounters and SOAP notes.
type EncounterStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens (creating if needed) the database at path and initializes
// the schema. Use ":memory:" for tests.
func Open(path string, logger *slog.Logger) (*EncounterStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", path, err)
	}

	store := &EncounterStore{
		db:     db,
		logger: logger,
	}

	if err := store.initDB(); err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

// Close closes the underlying database.
func (s *EncounterStore) Close() error {
	return s.db.Close()
}

// Ping verifies the database connection, for health checks.
func (s *EncounterStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// initDB initializes the database tables.
func (s *EncounterStore) initDB() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS encounters (
			id TEXT PRIMARY KEY,
			physician_id TEXT NOT NULL,
			patient_id_hash TEXT NOT NULL,
			chief_complaint TEXT NOT NULL,
			encounter_type TEXT NOT NULL,
			encounter_date TIMESTAMP NOT NULL,
			transcription TEXT,
			audio_duration_seconds INTEGER,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create encounters table: %w", err)
	}

	_, err = s.db.Exec(`
		CREATE TABLE IF NOT EXISTS soap_notes (
			id TEXT PRIMARY KEY,
			encounter_id TEXT NOT NULL UNIQUE,
			subjective TEXT,
			objective TEXT,
			assessment TEXT,
			plan TEXT,
			icd10_codes TEXT,
			cpt_codes TEXT,
			generated_by TEXT,
			completeness_score REAL,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL,
			FOREIGN KEY (encounter_id) REFERENCES encounters(id)
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create soap_notes table: %w", err)
	}

	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_encounters_physician ON encounters(physician_id)`,
		`CREATE INDEX IF NOT EXISTS idx_encounters_patient ON encounters(patient_id_hash)`,
		`CREATE INDEX IF NOT EXISTS idx_encounters_date ON encounters(encounter_date)`,
		`CREATE INDEX IF NOT EXISTS idx_soap_notes_encounter ON soap_notes(encounter_id)`,
	}

	for _, indexSQL := range indexes {
		if _, err := s.db.Exec(indexSQL); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	return nil
}

// SaveEncounter stores an encounter and its optional SOAP note in a single
// transaction: either the full pair is persisted or nothing is.
func (s *EncounterStore) SaveEncounter(ctx context.Context, enc *medical.Encounter) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	_, err = tx.ExecContext(ctx,
		`INSERT INTO encounters
		(id, physician_id, patient_id_hash, chief_complaint, encounter_type, encounter_date,
		 transcription, audio_duration_seconds, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		enc.ID,
		enc.PhysicianID,
		enc.PatientIDHash,
		enc.ChiefComplaint,
		string(enc.EncounterType),
		enc.EncounterDate.Format(time.RFC3339),
		enc.Transcription,
		enc.AudioDurationSeconds,
		enc.CreatedAt.Format(time.RFC3339),
		enc.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to insert encounter: %w", err)
	}

	if note := enc.SOAPNote; note != nil {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO soap_notes
			(id, encounter_id, subjective, objective, assessment, plan,
			 icd10_codes, cpt_codes, generated_by, completeness_score, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			note.ID,
			enc.ID,
			note.Subjective,
			note.Objective,
			note.Assessment,
			note.Plan,
			note.ICD10Codes,
			note.CPTCodes,
			note.GeneratedBy,
			note.CompletenessScore,
			note.CreatedAt.Format(time.RFC3339),
			note.UpdatedAt.Format(time.RFC3339),
		)
		if err != nil {
			return fmt.Errorf("failed to insert SOAP note: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit encounter: %w", err)
	}

	return nil
}

// GetEncounter returns one encounter with its SOAP note, or ErrNotFound.
func (s *EncounterStore) GetEncounter(ctx context.Context, id string) (*medical.Encounter, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, physician_id, patient_id_hash, chief_complaint, encounter_type,
		        encounter_date, transcription, audio_duration_seconds, created_at, updated_at
		 FROM encounters WHERE id = ?`, id)

	enc, err := scanEncounter(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to query encounter: %w", err)
	}

	note, err := s.getNote(ctx, id)
	if err != nil {
		return nil, err
	}
	enc.SOAPNote = note

	return enc, nil
}

// ListEncounters returns all encounters newest-first, each with its note.
func (s *EncounterStore) ListEncounters(ctx context.Context) ([]*medical.Encounter, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, physician_id, patient_id_hash, chief_complaint, encounter_type,
		        encounter_date, transcription, audio_duration_seconds, created_at, updated_at
		 FROM encounters ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query encounters: %w", err)
	}
	defer rows.Close()

	encounters := []*medical.Encounter{}
	for rows.Next() {
		enc, err := scanEncounter(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan encounter: %w", err)
		}
		encounters = append(encounters, enc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate encounters: %w", err)
	}

	for _, enc := range encounters {
		note, err := s.getNote(ctx, enc.ID)
		if err != nil {
			return nil, err
		}
		enc.SOAPNote = note
	}

	return encounters, nil
}

func (s *EncounterStore) getNote(ctx context.Context, encounterID string) (*medical.SOAPNote, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, encounter_id, subjective, objective, assessment, plan,
		        icd10_codes, cpt_codes, generated_by, completeness_score, created_at, updated_at
		 FROM soap_notes WHERE encounter_id = ?`, encounterID)

	var (
		note       medical.SOAPNote
		subjective sql.NullString
		objective  sql.NullString
		assessment sql.NullString
		plan       sql.NullString
		icd10      sql.NullString
		cpt        sql.NullString
		genBy      sql.NullString
		score      sql.NullFloat64
		createdAt  string
		updatedAt  string
	)

	err := row.Scan(&note.ID, &note.EncounterID, &subjective, &objective, &assessment, &plan,
		&icd10, &cpt, &genBy, &score, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil // encounter without a note
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query SOAP note: %w", err)
	}

	note.Subjective = subjective.String
	note.Objective = objective.String
	note.Assessment = assessment.String
	note.Plan = plan.String
	note.ICD10Codes = icd10.String
	note.CPTCodes = cpt.String
	note.GeneratedBy = genBy.String
	note.CompletenessScore = score.Float64
	note.CreatedAt = parseTime(createdAt)
	note.UpdatedAt = parseTime(updatedAt)

	return &note, nil
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanEncounter(row rowScanner) (*medical.Encounter, error) {
	var (
		enc           medical.Encounter
		encounterType string
		encounterDate string
		transcription sql.NullString
		duration      sql.NullInt64
		createdAt     string
		updatedAt     string
	)

	err := row.Scan(&enc.ID, &enc.PhysicianID, &enc.PatientIDHash, &enc.ChiefComplaint,
		&encounterType, &encounterDate, &transcription, &duration, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	enc.EncounterType = medical.EncounterType(encounterType)
	enc.EncounterDate = parseTime(encounterDate)
	enc.Transcription = transcription.String
	enc.AudioDurationSeconds = int(duration.Int64)
	enc.CreatedAt = parseTime(createdAt)
	enc.UpdatedAt = parseTime(updatedAt)

	return &enc, nil
}

func parseTime(value string) time.Time {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}
	}
	return t
}
