package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/activemonkeys/geneax/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/activemonkeys/geneax/internal/core/domain"
	"github.com/activemonkeys/geneax/internal/core/ports/driven"
)

// Store is a unified SQLite-based storage that provides access to
// all relational store interfaces through wrapper types.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore opens (and creates if needed) the database at dbPath.
func NewStore(dbPath string) (*Store, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("%w: database path is required", domain.ErrInvalidInput)
	}

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	// Pragmas in the DSN apply to every pooled connection
	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	// Run migrations
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// SourceStore returns a SourceStore interface backed by this store.
func (s *Store) SourceStore() driven.SourceStore {
	return &sourceStore{store: s}
}

// HarvestLogStore returns a HarvestLogStore interface backed by this store.
func (s *Store) HarvestLogStore() driven.HarvestLogStore {
	return &harvestLogStore{store: s}
}

// RecordStore returns a RecordStore interface backed by this store.
func (s *Store) RecordStore() driven.RecordStore {
	return &recordStore{store: s}
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	// Ensure schema_migrations table exists
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	// Get current version
	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	// Find all up migrations
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// "001_initial.up.sql" -> 1
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
	}

	return nil
}

// ==================== Source Store ====================

// sourceStore implements driven.SourceStore.
type sourceStore struct {
	store *Store
}

var _ driven.SourceStore = (*sourceStore)(nil)

const sourceColumns = `code, name, oai_url, website, parser_type, parser_config, is_active,
	overall_status, last_health_check, created_at, updated_at`

// Save stores or updates a source.
// Health fields are left untouched on update; UpdateHealth owns them.
func (s *sourceStore) Save(ctx context.Context, source domain.Source) error {
	configJSON, err := json.Marshal(source.ParserConfig)
	if err != nil {
		return fmt.Errorf("marshalling parser config: %w", err)
	}

	now := time.Now().UTC()
	if source.CreatedAt.IsZero() {
		source.CreatedAt = now
	}
	source.UpdatedAt = now
	if source.OverallStatus == "" {
		source.OverallStatus = domain.SourceStatusUnknown
	}

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO sources (`+sourceColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(code) DO UPDATE SET
			name = excluded.name,
			oai_url = excluded.oai_url,
			website = excluded.website,
			parser_type = excluded.parser_type,
			parser_config = excluded.parser_config,
			is_active = excluded.is_active,
			updated_at = excluded.updated_at
	`, domain.NormaliseSourceCode(source.Code), source.Name, source.OAIURL, source.Website,
		source.ParserType, string(configJSON), source.IsActive,
		source.OverallStatus, nullTime(source.LastHealthCheck),
		source.CreatedAt, source.UpdatedAt)
	if err != nil {
		return fmt.Errorf("saving source: %w", err)
	}
	return nil
}

// Get retrieves a source by code.
func (s *sourceStore) Get(ctx context.Context, code string) (*domain.Source, error) {
	row := s.store.db.QueryRowContext(ctx,
		`SELECT `+sourceColumns+` FROM sources WHERE code = ?`,
		domain.NormaliseSourceCode(code))
	source, err := scanSource(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return source, err
}

// List returns all sources ordered by code.
func (s *sourceStore) List(ctx context.Context) ([]domain.Source, error) {
	rows, err := s.store.db.QueryContext(ctx, `SELECT `+sourceColumns+` FROM sources ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("querying sources: %w", err)
	}
	defer rows.Close()

	var sources []domain.Source //nolint:prealloc // size unknown from query
	for rows.Next() {
		source, err := scanSource(rows)
		if err != nil {
			return nil, err
		}
		sources = append(sources, *source)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating sources: %w", err)
	}
	return sources, nil
}

// UpdateHealth records the result of a health check.
func (s *sourceStore) UpdateHealth(ctx context.Context, code, status string, checkedAt time.Time) error {
	res, err := s.store.db.ExecContext(ctx, `
		UPDATE sources SET overall_status = ?, last_health_check = ? WHERE code = ?
	`, status, checkedAt.UTC(), domain.NormaliseSourceCode(code))
	if err != nil {
		return fmt.Errorf("updating source health: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ==================== Harvest Log Store ====================

// harvestLogStore implements driven.HarvestLogStore.
type harvestLogStore struct {
	store *Store
}

var _ driven.HarvestLogStore = (*harvestLogStore)(nil)

const harvestLogColumns = `id, source_code, set_spec, status, resumption_token,
	records_harvested, files_created, last_error, started_at, completed_at`

// Get retrieves the log for a (source, set) pair.
func (s *harvestLogStore) Get(ctx context.Context, sourceCode, setSpec string) (*domain.HarvestLog, error) {
	row := s.store.db.QueryRowContext(ctx,
		`SELECT `+harvestLogColumns+` FROM harvest_logs WHERE source_code = ? AND set_spec = ?`,
		sourceCode, setSpec)
	log, err := scanHarvestLog(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return log, err
}

// Save inserts or updates the log for its (source, set) pair.
// The first ID stored for a pair is kept.
func (s *harvestLogStore) Save(ctx context.Context, log domain.HarvestLog) error {
	var completedAt any
	if log.CompletedAt != nil {
		completedAt = log.CompletedAt.UTC()
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO harvest_logs (`+harvestLogColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(source_code, set_spec) DO UPDATE SET
			status = excluded.status,
			resumption_token = excluded.resumption_token,
			records_harvested = excluded.records_harvested,
			files_created = excluded.files_created,
			last_error = excluded.last_error,
			started_at = excluded.started_at,
			completed_at = excluded.completed_at
	`, log.ID, log.SourceCode, log.SetSpec, string(log.Status), log.ResumptionToken,
		log.RecordsHarvested, log.FilesCreated, log.LastError, log.StartedAt.UTC(), completedAt)
	if err != nil {
		return fmt.Errorf("saving harvest log: %w", err)
	}
	return nil
}

// List returns the logs of a source ordered by set, or every log when
// sourceCode is empty.
func (s *harvestLogStore) List(ctx context.Context, sourceCode string) ([]domain.HarvestLog, error) {
	query := `SELECT ` + harvestLogColumns + ` FROM harvest_logs`
	var args []any
	if sourceCode != "" {
		query += ` WHERE source_code = ?`
		args = append(args, sourceCode)
	}
	query += ` ORDER BY source_code, set_spec`

	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying harvest logs: %w", err)
	}
	defer rows.Close()

	var logs []domain.HarvestLog //nolint:prealloc // size unknown from query
	for rows.Next() {
		log, err := scanHarvestLog(rows)
		if err != nil {
			return nil, err
		}
		logs = append(logs, *log)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating harvest logs: %w", err)
	}
	return logs, nil
}

// ==================== Record Store ====================

// recordStore implements driven.RecordStore.
type recordStore struct {
	store *Store
}

var _ driven.RecordStore = (*recordStore)(nil)

const recordColumns = `external_id, event_year, source_code, set_spec, record_type,
	event_month, event_day, date_precision, date_original, event_place, raw_data,
	created_at, updated_at`

const personColumns = `id, external_id, event_year, position, role, given_name, surname,
	patronym, prefix, age, birth_year, occupation, residence`

// WithTx runs fn inside one database transaction.
func (s *recordStore) WithTx(ctx context.Context, fn func(tx driven.RecordTx) error) (err error) {
	sqlTx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	tx := &recordTx{tx: sqlTx}
	defer func() {
		tx.close()
		if err != nil {
			_ = sqlTx.Rollback()
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	if err = sqlTx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// GetRecord retrieves a stored record by key.
func (s *recordStore) GetRecord(ctx context.Context, key domain.RecordKey) (*domain.StoredRecord, error) {
	row := s.store.db.QueryRowContext(ctx,
		`SELECT `+recordColumns+` FROM records WHERE external_id = ? AND event_year = ?`,
		key.ExternalID, key.EventYear)

	var rec domain.StoredRecord
	var recordType, precision string
	var createdAt, updatedAt sql.NullTime
	err := row.Scan(&rec.Key.ExternalID, &rec.Key.EventYear, &rec.SourceCode, &rec.SetSpec, &recordType,
		&rec.EventDate.Month, &rec.EventDate.Day, &precision, &rec.EventDate.Original,
		&rec.EventPlace, &rec.RawData, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning record: %w", err)
	}

	rec.RecordType = domain.RecordType(recordType)
	rec.EventDate.Year = rec.Key.EventYear
	rec.EventDate.Precision = domain.Precision(precision)
	rec.CreatedAt = createdAt.Time
	rec.UpdatedAt = updatedAt.Time
	return &rec, nil
}

// ListPersons returns the persons of a record in insertion order.
func (s *recordStore) ListPersons(ctx context.Context, key domain.RecordKey) ([]domain.StoredPerson, error) {
	rows, err := s.store.db.QueryContext(ctx,
		`SELECT `+personColumns+` FROM persons WHERE external_id = ? AND event_year = ? ORDER BY position, id`,
		key.ExternalID, key.EventYear)
	if err != nil {
		return nil, fmt.Errorf("querying persons: %w", err)
	}
	defer rows.Close()

	persons := []domain.StoredPerson{}
	for rows.Next() {
		var p domain.StoredPerson
		var role string
		var age, birthYear sql.NullInt64
		if err := rows.Scan(&p.ID, &p.RecordKey.ExternalID, &p.RecordKey.EventYear, &p.Position, &role,
			&p.GivenName, &p.Surname, &p.Patronym, &p.Prefix, &age, &birthYear,
			&p.Occupation, &p.Residence); err != nil {
			return nil, fmt.Errorf("scanning person: %w", err)
		}
		p.Role = domain.PersonRole(role)
		if age.Valid {
			v := int(age.Int64)
			p.Age = &v
		}
		p.BirthYear = int(birthYear.Int64)
		persons = append(persons, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating persons: %w", err)
	}
	return persons, nil
}

// Stats returns record and person counts per source.
func (s *recordStore) Stats(ctx context.Context) ([]domain.SourceStats, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT r.source_code, COUNT(*), COALESCE(SUM(p.n), 0)
		FROM records r
		LEFT JOIN (
			SELECT external_id, event_year, COUNT(*) AS n
			FROM persons GROUP BY external_id, event_year
		) p ON p.external_id = r.external_id AND p.event_year = r.event_year
		GROUP BY r.source_code
		ORDER BY r.source_code
	`)
	if err != nil {
		return nil, fmt.Errorf("querying stats: %w", err)
	}
	defer rows.Close()

	var stats []domain.SourceStats //nolint:prealloc // size unknown from query
	for rows.Next() {
		var st domain.SourceStats
		if err := rows.Scan(&st.SourceCode, &st.Records, &st.Persons); err != nil {
			return nil, fmt.Errorf("scanning stats: %w", err)
		}
		stats = append(stats, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating stats: %w", err)
	}
	return stats, nil
}

// recordTx implements driven.RecordTx over a database transaction.
// The person insert statement is prepared on first use.
type recordTx struct {
	tx           *sql.Tx
	insertPerson *sql.Stmt
}

var _ driven.RecordTx = (*recordTx)(nil)

// UpsertRecord creates the record or refreshes its date, place and raw data.
func (t *recordTx) UpsertRecord(ctx context.Context, rec *domain.ParsedRecord) error {
	now := time.Now().UTC()
	precision := rec.EventDate.Precision
	if precision == "" {
		precision = domain.PrecisionUnknown
	}

	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO records (`+recordColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(external_id, event_year) DO UPDATE SET
			event_month = excluded.event_month,
			event_day = excluded.event_day,
			date_precision = excluded.date_precision,
			date_original = excluded.date_original,
			event_place = excluded.event_place,
			raw_data = excluded.raw_data,
			updated_at = excluded.updated_at
	`, rec.ExternalID, rec.EventDate.Year, rec.SourceCode, rec.SetSpec, string(rec.RecordType),
		rec.EventDate.Month, rec.EventDate.Day, string(precision), rec.EventDate.Original,
		rec.EventPlace, rec.RawData, now, now)
	if err != nil {
		return fmt.Errorf("upserting record: %w", err)
	}
	return nil
}

// DeletePersons removes all persons owned by a record.
func (t *recordTx) DeletePersons(ctx context.Context, key domain.RecordKey) (int64, error) {
	res, err := t.tx.ExecContext(ctx,
		`DELETE FROM persons WHERE external_id = ? AND event_year = ?`,
		key.ExternalID, key.EventYear)
	if err != nil {
		return 0, fmt.Errorf("deleting persons: %w", err)
	}
	return res.RowsAffected()
}

// InsertPersons appends persons to a record, numbering them after any
// persons it already has.
func (t *recordTx) InsertPersons(ctx context.Context, key domain.RecordKey, persons []domain.ParsedPerson) error {
	var next int
	err := t.tx.QueryRowContext(ctx, `
		SELECT (SELECT COUNT(*) FROM persons WHERE external_id = r.external_id AND event_year = r.event_year)
		FROM records r WHERE r.external_id = ? AND r.event_year = ?
	`, key.ExternalID, key.EventYear).Scan(&next)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("checking record: %w", err)
	}

	if t.insertPerson == nil {
		t.insertPerson, err = t.tx.PrepareContext(ctx, `
			INSERT INTO persons (external_id, event_year, position, role, given_name, surname,
				patronym, prefix, age, birth_year, occupation, residence)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("preparing person insert: %w", err)
		}
	}

	for i, p := range persons {
		var age, birthYear any
		if p.Age != nil {
			age = *p.Age
		}
		if by := p.BirthYear(key.EventYear); by != 0 {
			birthYear = by
		}
		if _, err := t.insertPerson.ExecContext(ctx,
			key.ExternalID, key.EventYear, next+i, string(p.Role), p.GivenName, p.Surname,
			p.Patronym, p.Prefix, age, birthYear, p.Occupation, p.Residence); err != nil {
			return fmt.Errorf("inserting person %d: %w", i, err)
		}
	}
	return nil
}

func (t *recordTx) close() {
	if t.insertPerson != nil {
		_ = t.insertPerson.Close()
	}
}

// ==================== Helpers ====================

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanSource(row rowScanner) (*domain.Source, error) {
	var source domain.Source
	var configJSON string
	var lastCheck, createdAt, updatedAt sql.NullTime
	if err := row.Scan(&source.Code, &source.Name, &source.OAIURL, &source.Website,
		&source.ParserType, &configJSON, &source.IsActive, &source.OverallStatus,
		&lastCheck, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning source: %w", err)
	}

	if configJSON != "" && configJSON != jsonNull {
		if err := json.Unmarshal([]byte(configJSON), &source.ParserConfig); err != nil {
			return nil, fmt.Errorf("unmarshaling parser config: %w", err)
		}
	}
	source.LastHealthCheck = lastCheck.Time
	source.CreatedAt = createdAt.Time
	source.UpdatedAt = updatedAt.Time
	return &source, nil
}

func scanHarvestLog(row rowScanner) (*domain.HarvestLog, error) {
	var log domain.HarvestLog
	var status string
	var startedAt, completedAt sql.NullTime
	if err := row.Scan(&log.ID, &log.SourceCode, &log.SetSpec, &status, &log.ResumptionToken,
		&log.RecordsHarvested, &log.FilesCreated, &log.LastError, &startedAt, &completedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning harvest log: %w", err)
	}

	log.Status = domain.HarvestStatus(status)
	log.StartedAt = startedAt.Time
	if completedAt.Valid {
		t := completedAt.Time
		log.CompletedAt = &t
	}
	return &log, nil
}

// jsonNull is the JSON representation of null.
const jsonNull = "null"

func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC()
}
