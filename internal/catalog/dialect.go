package catalog

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/lib/pq"
)

// Dialect captures the SQL differences between the supported drivers.
type Dialect struct {
	// Driver is the database/sql driver name
	Driver string
	// positional selects $1-style placeholders instead of ?
	positional bool
	// idColumn is the auto-incrementing primary key definition
	idColumn string
	// tableExists counts tables with a given name
	tableExists string
}

var (
	// Postgres uses the pgx stdlib driver
	Postgres = Dialect{
		Driver:      "pgx",
		positional:  true,
		idColumn:    "id BIGSERIAL PRIMARY KEY",
		tableExists: "SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = current_schema() AND table_name = ?",
	}

	// PostgresPQ uses the lib/pq driver
	PostgresPQ = Dialect{
		Driver:      "postgres",
		positional:  true,
		idColumn:    "id BIGSERIAL PRIMARY KEY",
		tableExists: "SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = current_schema() AND table_name = ?",
	}

	// SQLite uses mattn/go-sqlite3
	SQLite = Dialect{
		Driver:      "sqlite3",
		idColumn:    "id INTEGER PRIMARY KEY AUTOINCREMENT",
		tableExists: "SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?",
	}
)

// DialectFor returns the dialect for a driver name.
func DialectFor(driver string) (Dialect, error) {
	switch driver {
	case "pgx", "postgresql":
		return Postgres, nil
	case "postgres", "pq":
		return PostgresPQ, nil
	case "sqlite3", "sqlite":
		return SQLite, nil
	default:
		return Dialect{}, fmt.Errorf("unsupported database driver %q", driver)
	}
}

// Rebind rewrites ? placeholders into the dialect's form.
func (d Dialect) Rebind(query string) string {
	if !d.positional {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Quote quotes an identifier. Both PostgreSQL and SQLite accept
// double-quoted identifiers, which release tables need since they start
// with a digit.
func (d Dialect) Quote(ident string) string {
	return pq.QuoteIdentifier(ident)
}

// eventTableDDL is the schema shared by staging and production tables.
func (d Dialect) eventTableDDL(table string) string {
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	%s,
	name TEXT NOT NULL,
	class TEXT NOT NULL,
	superclass TEXT NOT NULL,
	fields TEXT,
	description TEXT,
	eventbus TEXT,
	since TEXT,
	result SMALLINT,
	side SMALLINT,
	deprecated BOOLEAN
)`, d.Quote(table), d.idColumn)
}

func (d Dialect) versionsDDL() string {
	return `CREATE TABLE IF NOT EXISTS versions (
	tableid VARCHAR(32) NOT NULL PRIMARY KEY,
	mcversion VARCHAR(32) NOT NULL,
	forgeversion VARCHAR(64) NOT NULL,
	eventbus_list TEXT
)`
}
