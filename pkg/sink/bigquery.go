package sink

import (
	"context"
	stderrors "errors"
	"net/http"

	"cloud.google.com/go/bigquery"
	"go.uber.org/zap"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/ajitpratap0/csvconf/pkg/errors"
	jsonpool "github.com/ajitpratap0/csvconf/pkg/json"
	"github.com/ajitpratap0/csvconf/pkg/logger"
	"github.com/ajitpratap0/csvconf/pkg/materialize"
)

// Putter is the subset of *bigquery.Inserter used by BigQuerySink.
type Putter interface {
	Put(ctx context.Context, src interface{}) error
}

// BigQuerySchema is the schema of the table BigQuerySink appends to.
var BigQuerySchema = bigquery.Schema{
	{Name: "slot", Type: bigquery.StringFieldType, Required: true},
	{Name: "revision", Type: bigquery.StringFieldType, Required: true},
	{Name: "columns", Type: bigquery.JSONFieldType, Required: true},
	{Name: "records", Type: bigquery.JSONFieldType, Required: true},
	{Name: "skipped", Type: bigquery.StringFieldType, Repeated: true},
	{Name: "stored_at", Type: bigquery.TimestampFieldType, Required: true},
}

// BigQuerySink streams one row per stored revision. BigQuery streaming
// inserts cannot update rows, so the current asset of a slot is its row with
// the latest stored_at.
type BigQuerySink struct {
	rows   Putter
	close  func() error
	logger *zap.Logger
}

// NewBigQuerySink creates a sink over an existing inserter.
func NewBigQuerySink(rows Putter) *BigQuerySink {
	return &BigQuerySink{
		rows:   rows,
		logger: logger.Get().With(zap.String("component", "bigquery_sink")),
	}
}

// DialBigQuery connects to project and creates dataset.table with
// BigQuerySchema when it does not exist.
func DialBigQuery(ctx context.Context, project, dataset, table, credentialsFile string) (*BigQuerySink, error) {
	if table == "" {
		table = DefaultTable
	}
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := bigquery.NewClient(ctx, project, opts...)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConnection, "failed to create bigquery client")
	}

	tbl := client.Dataset(dataset).Table(table)
	if _, err := tbl.Metadata(ctx); err != nil {
		if !isNotFound(err) {
			_ = client.Close()
			return nil, errors.Wrap(err, errors.ErrorTypeConnection, "failed to read table "+dataset+"."+table)
		}
		if err := tbl.Create(ctx, &bigquery.TableMetadata{Schema: BigQuerySchema}); err != nil {
			_ = client.Close()
			return nil, errors.Wrap(err, errors.ErrorTypeConnection, "failed to create table "+dataset+"."+table)
		}
	}

	s := NewBigQuerySink(tbl.Inserter())
	s.close = client.Close
	s.logger = s.logger.With(zap.String("table", dataset+"."+table))
	return s, nil
}

func isNotFound(err error) bool {
	var apiErr *googleapi.Error
	return stderrors.As(err, &apiErr) && apiErr.Code == http.StatusNotFound
}

// bigQueryRow saves an asset as one table row.
type bigQueryRow struct {
	asset   *Asset
	columns string
	records string
}

// Save implements bigquery.ValueSaver. The revision doubles as insert id so
// retried inserts are deduplicated.
func (r *bigQueryRow) Save() (map[string]bigquery.Value, string, error) {
	skipped := make([]bigquery.Value, len(r.asset.Skipped))
	for i, name := range r.asset.Skipped {
		skipped[i] = name
	}
	return map[string]bigquery.Value{
		"slot":      r.asset.Slot,
		"revision":  r.asset.Revision,
		"columns":   r.columns,
		"records":   r.records,
		"skipped":   skipped,
		"stored_at": r.asset.StoredAt,
	}, r.asset.Revision, nil
}

// Store appends the slot's revision.
func (s *BigQuerySink) Store(ctx context.Context, slot string, ds *materialize.Dataset) error {
	asset, err := NewAsset(slot, ds)
	if err != nil {
		return err
	}
	columns, err := jsonpool.Marshal(asset.Columns)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeData, "failed to encode columns of "+slot)
	}
	records, err := jsonpool.Marshal(asset.Records)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeData, "failed to encode records of "+slot)
	}

	row := &bigQueryRow{asset: asset, columns: string(columns), records: string(records)}
	if err := s.rows.Put(ctx, row); err != nil {
		return errors.Wrap(err, errors.ErrorTypeConnection, "failed to insert slot "+slot)
	}
	s.logger.Info("slot stored",
		zap.String("slot", slot),
		zap.String("revision", asset.Revision),
		zap.Int("records", len(asset.Records)))
	return nil
}

// Close closes the client opened by DialBigQuery.
func (s *BigQuerySink) Close() error {
	if s.close != nil {
		return s.close()
	}
	return nil
}
