package sink

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"

	"github.com/ghalamif/sck2eventhub/internal/ports"
)

// Postgres caps bind parameters per statement at 65535; one row uses one.
const maxPostgresParams = 65535

var tableNameRE = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

type TimescaleConfig struct {
	ConnString   string `yaml:"conn_string"`
	Table        string `yaml:"table"`
	MaxBatchRows int    `yaml:"max_batch_rows"`
	CreateTable  bool   `yaml:"create_table"`
}

func (c *TimescaleConfig) ApplyDefaults() {
	if c.Table == "" {
		c.Table = "sensor_events"
	}
	if c.MaxBatchRows == 0 {
		c.MaxBatchRows = 1_000
	}
}

func (c *TimescaleConfig) Validate() error {
	if c.ConnString == "" {
		return fmt.Errorf("conn_string is required")
	}
	if !tableNameRE.MatchString(c.Table) {
		return fmt.Errorf("table %q is not a valid identifier", c.Table)
	}
	if c.MaxBatchRows < 1 || c.MaxBatchRows > maxPostgresParams {
		return fmt.Errorf("max_batch_rows must be between 1 and %d", maxPostgresParams)
	}
	return nil
}

// TimescaleSink archives payloads as JSONB rows, one multi-row INSERT per batch.
type TimescaleSink struct {
	db        *sql.DB
	tableName string
	maxRows   int
}

func NewTimescaleSink(db *sql.DB, table string, maxRows int) *TimescaleSink {
	if maxRows <= 0 || maxRows > maxPostgresParams {
		maxRows = maxPostgresParams
	}
	return &TimescaleSink{db: db, tableName: table, maxRows: maxRows}
}

func (t *TimescaleSink) Name() string { return "timescaledb" }

// EnsureTable creates the archive table when it does not exist yet.
func (t *TimescaleSink) EnsureTable(ctx context.Context) error {
	_, err := t.db.ExecContext(ctx, "CREATE TABLE IF NOT EXISTS "+t.tableName+
		" (payload JSONB NOT NULL, ingested_at TIMESTAMPTZ NOT NULL DEFAULT now())")
	if err != nil {
		return fmt.Errorf("create table %s: %w", t.tableName, err)
	}
	return nil
}

func (t *TimescaleSink) CreateBatch(context.Context) (ports.Batch, error) {
	return newBufferedBatch(t, 0, t.maxRows, 0), nil
}

func (t *TimescaleSink) Send(ctx context.Context, b ports.Batch) error {
	batch, err := ownedBatch(t, b)
	if err != nil {
		return err
	}
	if batch.Len() == 0 {
		return nil
	}

	var sb strings.Builder
	sb.WriteString("INSERT INTO ")
	sb.WriteString(t.tableName)
	sb.WriteString(" (payload) VALUES ")

	args := make([]any, 0, batch.Len())
	for i, payload := range batch.items {
		if i > 0 {
			sb.WriteString(",")
		}
		fmt.Fprintf(&sb, "($%d)", i+1)
		args = append(args, string(payload))
	}

	_, err = t.db.ExecContext(ctx, sb.String(), args...)
	return err
}

func (t *TimescaleSink) Close(context.Context) error {
	return t.db.Close()
}

var _ ports.Sink = (*TimescaleSink)(nil)
