package source

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/sambeau/viewscope/pkg/viewscope/errors"
	"github.com/sambeau/viewscope/pkg/viewscope/item"
)

// driverNames maps configured driver names to database/sql driver names.
var driverNames = map[string]string{
	"sqlite":     "sqlite",
	"sqlite3":    "sqlite",
	"postgres":   "postgres",
	"postgresql": "postgres",
	"mysql":      "mysql",
}

// DriverName returns the database/sql name for a configured driver.
func DriverName(driver string) (string, bool) {
	name, ok := driverNames[strings.ToLower(strings.TrimSpace(driver))]
	return name, ok
}

func dbError(driver, operation string, err error) error {
	return errors.New("DB-0001", map[string]any{
		"Driver":    driver,
		"Operation": operation,
		"GoError":   err.Error(),
	})
}

// OpenSQL opens and pings a database.
func OpenSQL(ctx context.Context, driver, dsn string) (*sql.DB, error) {
	name, ok := DriverName(driver)
	if !ok {
		return nil, errors.New("DB-0002", map[string]any{"Driver": driver})
	}
	db, err := sql.Open(name, dsn)
	if err != nil {
		return nil, dbError(name, "open", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, dbError(name, "ping", err)
	}
	return db, nil
}

// QueryList runs query and returns one Map per row, keyed by column name.
func QueryList(ctx context.Context, db *sql.DB, query string, args ...any) (*item.List, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, dbError("sql", "query", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, dbError("sql", "columns", err)
	}

	list := item.NewList()
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, dbError("sql", "scan", err)
		}

		row := item.NewMap()
		for i, col := range columns {
			row.Set(col, columnValue(values[i]))
		}
		list.Append(row)
	}
	if err := rows.Err(); err != nil {
		return nil, dbError("sql", "iterate", err)
	}
	return list, nil
}

func columnValue(v any) any {
	switch val := v.(type) {
	case []byte:
		return string(val)
	case int64, float64, string, bool, time.Time, nil:
		return val
	}
	return fmt.Sprintf("%v", v)
}

// LoadLists runs each named query and stores its rows on m under the name.
func LoadLists(ctx context.Context, db *sql.DB, lists map[string]string, m *item.Map) error {
	names := make([]string, 0, len(lists))
	for name := range lists {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		list, err := QueryList(ctx, db, lists[name])
		if err != nil {
			return fmt.Errorf("list %s: %w", name, err)
		}
		m.Set(name, list)
	}
	return nil
}
