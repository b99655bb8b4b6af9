package sink

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestTimescaleSinkSend(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	sink := NewTimescaleSink(db, "sensor_events", 10)
	ctx := context.Background()

	batch, err := sink.CreateBatch(ctx)
	if err != nil {
		t.Fatalf("create batch: %v", err)
	}
	first := `{"deviceId":"VDK09","eco2":412,"timestamp":"2021-07-01T00:00:00Z"}`
	second := `{"deviceId":"VDK05","eco2":398,"timestamp":"2021-07-01T00:00:01Z"}`
	for _, p := range []string{first, second} {
		if ok, err := batch.TryAppend([]byte(p)); !ok || err != nil {
			t.Fatalf("append %s: ok=%v err=%v", p, ok, err)
		}
	}

	expectedQuery := regexp.QuoteMeta("INSERT INTO sensor_events (payload) VALUES ($1),($2)")
	mock.ExpectExec(expectedQuery).
		WithArgs(first, second).
		WillReturnResult(sqlmock.NewResult(0, 2))

	if err := sink.Send(ctx, batch); err != nil {
		t.Fatalf("send: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestTimescaleSinkRowBudget(t *testing.T) {
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	sink := NewTimescaleSink(db, "sensor_events", 2)
	batch, _ := sink.CreateBatch(context.Background())

	for i := 0; i < 2; i++ {
		if ok, _ := batch.TryAppend([]byte(`{}`)); !ok {
			t.Fatalf("expected row %d to fit", i)
		}
	}
	if ok, _ := batch.TryAppend([]byte(`{}`)); ok {
		t.Fatalf("expected third row to be rejected")
	}
}

func TestTimescaleSinkSendError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	sink := NewTimescaleSink(db, "sensor_events", 10)
	batch, _ := sink.CreateBatch(context.Background())
	_, _ = batch.TryAppend([]byte(`{}`))

	boom := errors.New("connection reset")
	mock.ExpectExec("INSERT INTO sensor_events").WillReturnError(boom)

	if err := sink.Send(context.Background(), batch); !errors.Is(err, boom) {
		t.Fatalf("expected exec error, got %v", err)
	}
}

func TestTimescaleSinkSendEmptyBatch(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	sink := NewTimescaleSink(db, "sensor_events", 10)
	batch, _ := sink.CreateBatch(context.Background())
	if err := sink.Send(context.Background(), batch); err != nil {
		t.Fatalf("expected nil error for empty batch, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestTimescaleSinkEnsureTable(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS sensor_events")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	sink := NewTimescaleSink(db, "sensor_events", 10)
	if err := sink.EnsureTable(context.Background()); err != nil {
		t.Fatalf("ensure table: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestTimescaleSinkName(t *testing.T) {
	db, _, _ := sqlmock.New()
	defer db.Close()

	sink := NewTimescaleSink(db, "sensor_events", 10)
	if sink.Name() != "timescaledb" {
		t.Fatalf("expected sink name timescaledb, got %s", sink.Name())
	}
}

func TestTimescaleConfigValidate(t *testing.T) {
	cfg := TimescaleConfig{ConnString: "postgres://localhost/db", Table: "events; DROP TABLE x"}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected invalid table name to be rejected")
	}

	cfg = TimescaleConfig{ConnString: "postgres://localhost/db"}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}
