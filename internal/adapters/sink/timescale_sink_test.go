package sink

import (
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/gdgarcadevarunteja30042006-collab/predpost-dashboard/internal/domain"
)

func TestTimescaleSinkWriteBatch(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	sink := NewTimescaleSink(db, "alert_journal")
	ts := time.Now()

	alerts := []domain.Alert{
		{
			Record: domain.Record{
				MachineID:    "7",
				Timestamp:    ts,
				Temperature:  85,
				Vibration:    4,
				RPMDev:       50,
				CurrentDelta: 1,
				Prediction:   domain.PredictionFault,
			},
			Severity: domain.SeverityHigh,
		},
		{
			Record:   domain.Record{MachineID: "9", Timestamp: ts, Prediction: domain.PredictionFault},
			Severity: domain.SeverityLow,
		},
	}

	expectedQuery := regexp.QuoteMeta("INSERT INTO alert_journal (machine_id, ts, severity, temperature, vibration, rpm_dev, current_delta) VALUES ($1,$2,$3,$4,$5,$6,$7),($8,$9,$10,$11,$12,$13,$14) ON CONFLICT (machine_id, ts) DO NOTHING")
	mock.ExpectExec(expectedQuery).
		WithArgs("7", ts, "high", 85.0, 4.0, 50.0, 1.0,
			"9", ts, "low", 0.0, 0.0, 0.0, 0.0).
		WillReturnResult(sqlmock.NewResult(0, 2))

	if err := sink.WriteBatch(alerts); err != nil {
		t.Fatalf("write batch: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestTimescaleSinkSplitsLargeBatches(t *testing.T) {
	if rowsPerInsert*journalColumns > 65535 {
		t.Fatalf("statement of %d rows exceeds the bind parameter limit", rowsPerInsert)
	}

	prev := rowsPerInsert
	rowsPerInsert = 2
	defer func() { rowsPerInsert = prev }()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	ts := time.Now()
	alerts := make([]domain.Alert, 5)
	for i := range alerts {
		alerts[i] = domain.Alert{Record: domain.Record{MachineID: "m", Timestamp: ts.Add(time.Duration(i) * time.Second)}}
	}

	two := regexp.QuoteMeta("VALUES ($1,$2,$3,$4,$5,$6,$7),($8,$9,$10,$11,$12,$13,$14) ON CONFLICT")
	one := regexp.QuoteMeta("VALUES ($1,$2,$3,$4,$5,$6,$7) ON CONFLICT")
	mock.ExpectBegin()
	mock.ExpectExec(two).WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(two).WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(one).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := NewTimescaleSink(db, "alert_journal").WriteBatch(alerts); err != nil {
		t.Fatalf("write batch: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestTimescaleSinkRollsBackFailedChunk(t *testing.T) {
	prev := rowsPerInsert
	rowsPerInsert = 1
	defer func() { rowsPerInsert = prev }()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	alerts := []domain.Alert{
		{Record: domain.Record{MachineID: "a", Timestamp: time.Now()}},
		{Record: domain.Record{MachineID: "b", Timestamp: time.Now()}},
	}
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO alert_journal").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO alert_journal").WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	if err := NewTimescaleSink(db, "alert_journal").WriteBatch(alerts); err == nil {
		t.Fatalf("expected chunk failure to surface")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestTimescaleSinkWriteBatchNoAlerts(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	sink := NewTimescaleSink(db, "alert_journal")
	if err := sink.WriteBatch(nil); err != nil {
		t.Fatalf("expected nil error for empty batch, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestTimescaleSinkWrapsExecError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	boom := errors.New("connection reset")
	mock.ExpectExec("INSERT INTO alert_journal").WillReturnError(boom)

	sink := NewTimescaleSink(db, "alert_journal")
	err = sink.WriteBatch([]domain.Alert{{Record: domain.Record{MachineID: "1"}}})
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped exec error, got %v", err)
	}
}

func TestTimescaleSinkCreateTable(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS alert_journal")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := NewTimescaleSink(db, "alert_journal").CreateTable(); err != nil {
		t.Fatalf("create table: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestTimescaleSinkName(t *testing.T) {
	db, _, _ := sqlmock.New()
	defer db.Close()

	sink := NewTimescaleSink(db, "alert_journal")
	if sink.Name() != "timescaledb" {
		t.Fatalf("expected sink name timescaledb, got %s", sink.Name())
	}
}
