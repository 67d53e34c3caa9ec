package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/forgeevents/eventcatalog/internal/catalog/transaction"
	"github.com/forgeevents/eventcatalog/internal/release"

	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver (pgx)
	_ "github.com/lib/pq"              // PostgreSQL driver (lib/pq)
	_ "github.com/mattn/go-sqlite3"    // SQLite driver
)

const recordColumns = "name, class, superclass, fields, description, eventbus, since, result, side, deprecated"

// Options configures Open.
type Options struct {
	Driver string
	DSN    string
	// Target is a printable description of the store (no credentials)
	Target string
	// ConnectRetries is the number of extra ping attempts before giving up
	ConnectRetries int
	Logger         *zap.Logger
}

// Store is the SQL-backed catalog.
type Store struct {
	db      *sql.DB
	dialect Dialect
	tx      *transaction.Manager
	logger  *zap.Logger
}

// Open connects to the store and makes sure the versions table exists.
// Every failure is reported as a *StorageConnectionError.
func Open(ctx context.Context, opts Options) (*Store, error) {
	target := opts.Target
	if target == "" {
		target = opts.Driver
	}

	dialect, err := DialectFor(opts.Driver)
	if err != nil {
		return nil, &StorageConnectionError{Target: target, Err: err}
	}

	db, err := sql.Open(dialect.Driver, opts.DSN)
	if err != nil {
		return nil, &StorageConnectionError{Target: target, Err: err}
	}
	if dialect.Driver == SQLite.Driver {
		// SQLite allows a single writer
		db.SetMaxOpenConns(1)
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	retries := opts.ConnectRetries
	if retries < 0 {
		retries = 0
	}
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 250 * time.Millisecond
	ping := func() error {
		err := db.PingContext(ctx)
		if err != nil {
			logger.Warn("catalog store not reachable", zap.String("target", target), zap.Error(err))
		}
		return err
	}
	if err := backoff.Retry(ping, backoff.WithContext(backoff.WithMaxRetries(policy, uint64(retries)), ctx)); err != nil {
		db.Close()
		return nil, &StorageConnectionError{Target: target, Err: err}
	}

	store := New(db, dialect, logger)
	if err := store.Initialize(ctx); err != nil {
		db.Close()
		return nil, &StorageConnectionError{Target: target, Err: err}
	}

	logger.Debug("connected to catalog store", zap.String("target", target), zap.String("driver", dialect.Driver))
	return store, nil
}

// New wraps an open database handle.
func New(db *sql.DB, dialect Dialect, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		db:      db,
		dialect: dialect,
		tx:      transaction.NewManager(db),
		logger:  logger,
	}
}

// Initialize creates the versions table if it does not exist.
func (s *Store) Initialize(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, s.dialect.versionsDDL()); err != nil {
		return fmt.Errorf("failed to create versions table: %w", err)
	}
	return nil
}

// Close releases the database handle
func (s *Store) Close() error {
	return s.db.Close()
}

// StagingTable returns the staging table name of a release
func StagingTable(rel string) string {
	return "raw_" + release.Escape(rel)
}

// ProductionTable returns the production table name of a release
func ProductionTable(rel string) string {
	return release.Escape(rel)
}

// RegisterRelease records a release in the versions table, replacing any
// previous row for it.
func (s *Store) RegisterRelease(ctx context.Context, info ReleaseInfo) error {
	query := s.dialect.Rebind(`
INSERT INTO versions (tableid, mcversion, forgeversion, eventbus_list)
VALUES (?, ?, ?, ?)
ON CONFLICT (tableid) DO UPDATE SET
	mcversion = excluded.mcversion,
	forgeversion = excluded.forgeversion,
	eventbus_list = excluded.eventbus_list`)

	_, err := s.db.ExecContext(ctx, query, release.Escape(info.Release), info.Release, info.ForgeVersion, info.EventBusList)
	return storageErr("register", info.Release, nil, err)
}

// Releases returns every row of the versions table, in storage order.
func (s *Store) Releases(ctx context.Context) ([]ReleaseInfo, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT mcversion, forgeversion, eventbus_list FROM versions")
	if err != nil {
		return nil, storageErr("releases", "", nil, err)
	}
	defer rows.Close()

	var infos []ReleaseInfo
	for rows.Next() {
		var info ReleaseInfo
		var busList sql.NullString
		if err := rows.Scan(&info.Release, &info.ForgeVersion, &busList); err != nil {
			return nil, storageErr("releases", "", nil, err)
		}
		info.EventBusList = busList.String
		infos = append(infos, info)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("releases", "", nil, err)
	}
	return infos, nil
}

// KnownReleases returns the release ids of the versions table.
func (s *Store) KnownReleases(ctx context.Context) ([]string, error) {
	infos, err := s.Releases(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(infos))
	for i, info := range infos {
		ids[i] = info.Release
	}
	return ids, nil
}

// BeginRelease creates the staging table of a release if needed and
// discards anything staged by an earlier run.
func (s *Store) BeginRelease(ctx context.Context, rel string) error {
	table := StagingTable(rel)
	err := s.tx.WithRetry(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, s.dialect.eventTableDDL(table)); err != nil {
			return fmt.Errorf("failed to create %s: %w", table, err)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+s.dialect.Quote(table)); err != nil {
			return fmt.Errorf("failed to truncate %s: %w", table, err)
		}
		return nil
	})
	return storageErr("begin", rel, nil, err)
}

// Put stages a record. A record staged earlier under the same name is
// replaced.
func (s *Store) Put(ctx context.Context, rel string, rec EventRecord) error {
	table := s.dialect.Quote(StagingTable(rel))
	del := s.dialect.Rebind("DELETE FROM " + table + " WHERE name = ?")
	ins := s.dialect.Rebind("INSERT INTO " + table + " (" + recordColumns + ") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")

	err := s.tx.WithRetry(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, del, rec.Name); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, ins,
			rec.Name, rec.QualifiedName, rec.SuperclassName, rec.Fields, rec.Description,
			rec.EventBus, rec.Since, int(rec.ResultFlags), int(rec.Side), rec.Deprecated)
		return err
	})
	if err != nil {
		return storageErr("put", rel, ErrPersist, fmt.Errorf("event %s: %w", rec.Name, err))
	}
	return nil
}

// LookupByName returns the staged record of a release with the given name,
// or nil when the release has no staging table or no such record.
func (s *Store) LookupByName(ctx context.Context, rel, name string) (*EventRecord, error) {
	table := StagingTable(rel)
	exists, err := s.tableExists(ctx, table)
	if err != nil {
		return nil, storageErr("lookup", rel, nil, err)
	}
	if !exists {
		return nil, nil
	}

	query := s.dialect.Rebind("SELECT " + recordColumns + " FROM " + s.dialect.Quote(table) + " WHERE name = ? ORDER BY id DESC LIMIT 1")
	rec, err := scanRecord(s.db.QueryRowContext(ctx, query, name))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storageErr("lookup", rel, nil, err)
	}
	return rec, nil
}

// Records returns every record of a release view in insertion order. A
// missing staging table yields no records; a missing production table is
// ErrNoProduction.
func (s *Store) Records(ctx context.Context, rel string, view View) ([]EventRecord, error) {
	table := StagingTable(rel)
	if view == Production {
		table = ProductionTable(rel)
	}

	exists, err := s.tableExists(ctx, table)
	if err != nil {
		return nil, storageErr("records", rel, nil, err)
	}
	if !exists {
		if view == Production {
			return nil, storageErr("records", rel, nil, ErrNoProduction)
		}
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx, "SELECT "+recordColumns+" FROM "+s.dialect.Quote(table)+" ORDER BY id ASC")
	if err != nil {
		return nil, storageErr("records", rel, nil, err)
	}
	defer rows.Close()

	var records []EventRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, storageErr("records", rel, nil, err)
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("records", rel, nil, err)
	}
	return records, nil
}

// HasProduction reports whether a release has been promoted.
func (s *Store) HasProduction(ctx context.Context, rel string) (bool, error) {
	exists, err := s.tableExists(ctx, ProductionTable(rel))
	if err != nil {
		return false, storageErr("production", rel, nil, err)
	}
	return exists, nil
}

// Promote copies the staging set of a release into its production table.
// It only runs when the release has no production table yet or when force
// is set, and reports whether it ran. The copy happens in one transaction:
// on failure the previous production view is left as it was.
func (s *Store) Promote(ctx context.Context, rel string, force bool) (bool, error) {
	staging, production := StagingTable(rel), ProductionTable(rel)

	exists, err := s.tableExists(ctx, production)
	if err != nil {
		return false, storageErr("promote", rel, ErrPromotion, err)
	}
	if exists && !force {
		s.logger.Debug("production view exists, skipping promotion", zap.String("release", rel))
		return false, nil
	}

	hasStaging, err := s.tableExists(ctx, staging)
	if err != nil {
		return false, storageErr("promote", rel, ErrPromotion, err)
	}
	if !hasStaging {
		return false, storageErr("promote", rel, ErrPromotion, fmt.Errorf("no staging table %s", staging))
	}

	copyRows := fmt.Sprintf("INSERT INTO %s (id, %s) SELECT id, %s FROM %s",
		s.dialect.Quote(production), recordColumns, recordColumns, s.dialect.Quote(staging))

	err = s.tx.WithRetry(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, s.dialect.eventTableDDL(production)); err != nil {
			return fmt.Errorf("failed to create %s: %w", production, err)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+s.dialect.Quote(production)); err != nil {
			return fmt.Errorf("failed to clear %s: %w", production, err)
		}
		if _, err := tx.ExecContext(ctx, copyRows); err != nil {
			return fmt.Errorf("failed to copy %s into %s: %w", staging, production, err)
		}
		return nil
	})
	if err != nil {
		return false, storageErr("promote", rel, ErrPromotion, err)
	}
	return true, nil
}

func (s *Store) tableExists(ctx context.Context, table string) (bool, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, s.dialect.Rebind(s.dialect.tableExists), table).Scan(&n); err != nil {
		return false, fmt.Errorf("failed to check table %s: %w", table, err)
	}
	return n > 0, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(row rowScanner) (*EventRecord, error) {
	var rec EventRecord
	var description, eventBus, since sql.NullString
	var result, side sql.NullInt64
	var deprecated sql.NullBool

	if err := row.Scan(&rec.Name, &rec.QualifiedName, &rec.SuperclassName, &rec.Fields,
		&description, &eventBus, &since, &result, &side, &deprecated); err != nil {
		return nil, err
	}

	rec.Description = description.String
	rec.EventBus = eventBus.String
	rec.Since = since.String
	rec.ResultFlags = ResultFlags(result.Int64)
	rec.Side = Side(side.Int64)
	rec.Deprecated = deprecated.Bool
	return &rec, nil
}
