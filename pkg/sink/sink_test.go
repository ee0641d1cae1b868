package sink

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/ajitpratap0/csvconf/pkg/compression"
	"github.com/ajitpratap0/csvconf/pkg/config"
	"github.com/ajitpratap0/csvconf/pkg/csvtable"
	"github.com/ajitpratap0/csvconf/pkg/errors"
	jsonpool "github.com/ajitpratap0/csvconf/pkg/json"
	"github.com/ajitpratap0/csvconf/pkg/materialize"
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"gopkg.in/yaml.v3"
)

const itemsTable = "Id,Name,Initial,Tags,Pos,Reward\n" +
	"int,string,char,int[],Vector2,\"Tuple<float,string>\"\n" +
	"1,Sword,S,1|2,1;2,0.5;gold\n" +
	"2,Shield,D,,3;4,\n"

func dataset(t *testing.T) *materialize.Dataset {
	t.Helper()
	tbl, err := csvtable.Parse(itemsTable)
	require.NoError(t, err)
	ds, err := materialize.Dynamic(tbl, nil)
	require.NoError(t, err)
	require.Equal(t, 2, ds.Len())
	return ds
}

func TestNewAsset(t *testing.T) {
	a, err := NewAsset("items", dataset(t))
	require.NoError(t, err)
	_, err = uuid.Parse(a.Revision)
	assert.NoError(t, err)
	assert.Equal(t, "S", a.Records[0]["Initial"])
	assert.Equal(t, int32(1), a.Records[0]["Id"])

	b, err := NewAsset("items", dataset(t))
	require.NoError(t, err)
	assert.NotEqual(t, a.Revision, b.Revision)

	_, err = NewAsset("", dataset(t))
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
	_, err = NewAsset("items", nil)
	assert.True(t, errors.IsType(err, errors.ErrorTypeData))
}

func TestFileSinkPath(t *testing.T) {
	s, err := NewJSONSink("out", false, "")
	require.NoError(t, err)

	p, err := s.Path("levels/world1")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("out", "levels", "world1.json"), p)

	for _, slot := range []string{"", "..", "../escape", "/abs"} {
		_, err := s.Path(slot)
		assert.Error(t, err, slot)
	}
}

func TestJSONSink(t *testing.T) {
	dir := t.TempDir()
	s, err := NewJSONSink(dir, true, "")
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Store(context.Background(), "items", dataset(t)))

	data, err := os.ReadFile(filepath.Join(dir, "items.json"))
	require.NoError(t, err)

	var doc map[string]interface{}
	require.NoError(t, jsonpool.Unmarshal(data, &doc))
	assert.Equal(t, "items", doc["slot"])

	records := doc["records"].([]interface{})
	require.Len(t, records, 2)
	first := records[0].(map[string]interface{})
	assert.Equal(t, "Sword", first["Name"])
	assert.Equal(t, "S", first["Initial"])
	assert.Equal(t, map[string]interface{}{"x": float64(1), "y": float64(2)}, first["Pos"])
	assert.Equal(t, []interface{}{0.5, "gold"}, first["Reward"])

	columns := doc["columns"].([]interface{})
	assert.Equal(t, map[string]interface{}{"name": "Reward", "type": "Tuple<float,string>"}, columns[5])
}

func TestJSONSinkCompressed(t *testing.T) {
	dir := t.TempDir()
	s, err := NewJSONSink(dir, false, "zstd")
	require.NoError(t, err)
	require.NoError(t, s.Store(context.Background(), "items", dataset(t)))

	path := filepath.Join(dir, "items.json.zst")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	plain, err := compression.Decompress(path, data)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(plain), `{"slot":"items"`))

	_, err = NewJSONSink(dir, false, "brotli")
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
}

func TestYAMLSink(t *testing.T) {
	dir := t.TempDir()
	s, err := NewYAMLSink(dir, "")
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, s.Store(ctx, "nested/items", dataset(t)))

	data, err := os.ReadFile(filepath.Join(dir, "nested", "items.yaml"))
	require.NoError(t, err)

	var doc struct {
		Slot    string                   `yaml:"slot"`
		Records []map[string]interface{} `yaml:"records"`
		Columns []map[string]string      `yaml:"columns"`
	}
	require.NoError(t, yaml.Unmarshal(data, &doc))
	assert.Equal(t, "nested/items", doc.Slot)
	require.Len(t, doc.Records, 2)
	assert.Equal(t, "Shield", doc.Records[1]["Name"])
	assert.Equal(t, "int[]", doc.Columns[3]["type"])

	ctx, cancel := context.WithCancel(ctx)
	cancel()
	assert.ErrorIs(t, s.Store(ctx, "items", dataset(t)), context.Canceled)
}

func TestArrowSink(t *testing.T) {
	dir := t.TempDir()
	s, err := NewArrowSink(dir)
	require.NoError(t, err)
	require.NoError(t, s.Store(context.Background(), "items", dataset(t)))

	schema, rows, err := ReadArrowFile(filepath.Join(dir, "items.arrow"))
	require.NoError(t, err)
	assert.EqualValues(t, 2, rows)

	want := []arrow.Type{arrow.INT32, arrow.STRING, arrow.STRING, arrow.LIST, arrow.STRING, arrow.STRING}
	require.Len(t, schema.Fields(), len(want))
	for i, id := range want {
		assert.Equal(t, id, schema.Field(i).Type.ID(), schema.Field(i).Name)
	}
	slot, ok := schema.Metadata().GetValue(ArrowMetaSlot)
	assert.True(t, ok)
	assert.Equal(t, "items", slot)
}

type fakeExecer struct {
	sql  []string
	args [][]any
}

func (f *fakeExecer) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.sql = append(f.sql, sql)
	f.args = append(f.args, args)
	return pgconn.NewCommandTag("INSERT 0 1"), nil
}

func TestPostgresSink(t *testing.T) {
	db := &fakeExecer{}
	s := NewPostgresSink(db, "")
	defer s.Close()

	ctx := context.Background()
	require.NoError(t, s.Store(ctx, "items", dataset(t)))
	require.NoError(t, s.Store(ctx, "levels", dataset(t)))

	require.Len(t, db.sql, 3)
	assert.Contains(t, db.sql[0], `CREATE TABLE IF NOT EXISTS "csvconf_assets"`)
	assert.Contains(t, db.sql[1], "ON CONFLICT (slot) DO UPDATE")
	assert.Equal(t, "items", db.args[1][0])
	assert.Equal(t, "levels", db.args[2][0])
	assert.Contains(t, db.args[1][2], `"name":"Id"`)
	assert.Contains(t, db.args[1][3], `"Initial":"S"`)
}

type fakeSQL struct {
	queries []string
	args    [][]any
}

func (f *fakeSQL) ExecContext(_ context.Context, query string, args ...any) (sql.Result, error) {
	f.queries = append(f.queries, query)
	f.args = append(f.args, args)
	return driver.RowsAffected(1), nil
}

func TestMySQLSink(t *testing.T) {
	db := &fakeSQL{}
	s := NewMySQLSink(db, "game`assets")
	defer s.Close()

	ctx := context.Background()
	require.NoError(t, s.Store(ctx, "items", dataset(t)))
	require.NoError(t, s.Store(ctx, "items", dataset(t)))

	require.Len(t, db.queries, 3)
	assert.Contains(t, db.queries[0], "CREATE TABLE IF NOT EXISTS `game``assets`")
	assert.Contains(t, db.queries[1], "ON DUPLICATE KEY UPDATE")
	assert.Equal(t, "items", db.args[1][0])
	assert.NotEqual(t, db.args[1][1], db.args[2][1], "each store gets a new revision")
	assert.Contains(t, db.args[1][3], `"Initial":"S"`)

	_, err := DialMySQL(ctx, "not a dsn", "")
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
}

type fakePutter struct {
	rows []interface{}
}

func (f *fakePutter) Put(_ context.Context, src interface{}) error {
	f.rows = append(f.rows, src)
	return nil
}

func TestBigQuerySink(t *testing.T) {
	rows := &fakePutter{}
	s := NewBigQuerySink(rows)
	require.NoError(t, s.Store(context.Background(), "items", dataset(t)))
	require.NoError(t, s.Close())

	require.Len(t, rows.rows, 1)
	saver, ok := rows.rows[0].(bigquery.ValueSaver)
	require.True(t, ok)
	row, insertID, err := saver.Save()
	require.NoError(t, err)

	assert.Equal(t, "items", row["slot"])
	assert.Equal(t, row["revision"], insertID)
	assert.Contains(t, row["columns"], `"name":"Id"`)
	assert.Contains(t, row["records"], `"Name":"Shield"`)
	assert.IsType(t, time.Time{}, row["stored_at"])
	for _, field := range BigQuerySchema {
		assert.Contains(t, row, field.Name)
	}

	err = s.Store(context.Background(), "", dataset(t))
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
	assert.Len(t, rows.rows, 1)
}

type fakeCollection struct {
	filter interface{}
	doc    bson.D
}

func (f *fakeCollection) ReplaceOne(_ context.Context, filter interface{}, replacement interface{}, _ ...*options.ReplaceOptions) (*mongo.UpdateResult, error) {
	f.filter = filter
	f.doc = replacement.(bson.D)
	return &mongo.UpdateResult{UpsertedCount: 1}, nil
}

func TestMongoSink(t *testing.T) {
	coll := &fakeCollection{}
	s := NewMongoSink(coll)
	require.NoError(t, s.Store(context.Background(), "items", dataset(t)))
	require.NoError(t, s.Close())

	assert.Equal(t, bson.D{{Key: "_id", Value: "items"}}, coll.filter)
	doc := coll.doc.Map()
	assert.Equal(t, "items", doc["_id"])
	assert.Len(t, doc["records"], 2)
	assert.Equal(t, bson.D{{Key: "name", Value: "Id"}, {Key: "type", Value: "int"}}, doc["columns"].(bson.A)[0])

	_, err := bson.Marshal(coll.doc)
	assert.NoError(t, err)
}

func TestNew(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s, err := New(ctx, config.SinkConfig{Kind: config.SinkJSON, Dir: dir})
	require.NoError(t, err)
	assert.IsType(t, &FileSink{}, s)

	s, err = New(ctx, config.SinkConfig{Kind: config.SinkArrow, Dir: dir})
	require.NoError(t, err)
	assert.IsType(t, &ArrowSink{}, s)

	s, err = New(ctx, config.SinkConfig{Kind: config.SinkYAML})
	assert.Error(t, err)
	assert.Nil(t, s)

	s, err = New(ctx, config.SinkConfig{Kind: config.SinkMySQL, DSN: "missing slash"})
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
	assert.Nil(t, s)

	_, err = New(ctx, config.SinkConfig{Kind: "kafka"})
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
}
