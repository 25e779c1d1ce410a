package sink

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/gdgarcadevarunteja30042006-collab/predpost-dashboard/internal/domain"
	"github.com/gdgarcadevarunteja30042006-collab/predpost-dashboard/internal/ports"
)

const journalColumns = 7

// rowsPerInsert keeps one statement under the Postgres limit of 65535 bind parameters.
var rowsPerInsert = 65535 / journalColumns

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

// TimescaleSink appends alerts to a journal hypertable.
type TimescaleSink struct {
	db        *sql.DB
	tableName string
}

func NewTimescaleSink(db *sql.DB, table string) *TimescaleSink {
	return &TimescaleSink{db: db, tableName: table}
}

func (t *TimescaleSink) Name() string { return "timescaledb" }

// CreateTable creates the journal table when it is missing.
func (t *TimescaleSink) CreateTable() error {
	_, err := t.db.Exec("CREATE TABLE IF NOT EXISTS " + t.tableName + ` (
	machine_id TEXT NOT NULL,
	ts TIMESTAMPTZ NOT NULL,
	severity TEXT NOT NULL,
	temperature DOUBLE PRECISION NOT NULL,
	vibration DOUBLE PRECISION NOT NULL,
	rpm_dev DOUBLE PRECISION NOT NULL,
	current_delta DOUBLE PRECISION NOT NULL,
	PRIMARY KEY (machine_id, ts)
)`)
	return err
}

func (t *TimescaleSink) WriteBatch(alerts []domain.Alert) error {
	if len(alerts) == 0 {
		return nil
	}
	if len(alerts) <= rowsPerInsert {
		return t.insert(t.db, alerts)
	}

	tx, err := t.db.Begin()
	if err != nil {
		return fmt.Errorf("begin journal batch: %w", err)
	}
	for start := 0; start < len(alerts); start += rowsPerInsert {
		end := min(start+rowsPerInsert, len(alerts))
		if err := t.insert(tx, alerts[start:end]); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit journal batch: %w", err)
	}
	return nil
}

func (t *TimescaleSink) insert(db execer, alerts []domain.Alert) error {
	// the same fault is reported on every refresh until it ages out of the page
	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(t.tableName)
	b.WriteString(" (machine_id, ts, severity, temperature, vibration, rpm_dev, current_delta) VALUES ")

	args := make([]any, 0, len(alerts)*journalColumns)
	for i, a := range alerts {
		if i > 0 {
			b.WriteString(",")
		}
		n := len(args)
		fmt.Fprintf(&b, "($%d,$%d,$%d,$%d,$%d,$%d,$%d)", n+1, n+2, n+3, n+4, n+5, n+6, n+7)

		r := a.Record
		args = append(args,
			r.MachineID,
			r.Timestamp,
			a.Severity.String(),
			r.Temperature,
			r.Vibration,
			r.RPMDev,
			r.CurrentDelta,
		)
	}

	b.WriteString(" ON CONFLICT (machine_id, ts) DO NOTHING")

	if _, err := db.Exec(b.String(), args...); err != nil {
		return fmt.Errorf("insert %d alerts into %s: %w", len(alerts), t.tableName, err)
	}
	return nil
}

var _ ports.JournalSink = (*TimescaleSink)(nil)
