package sink

import (
	"context"

	"github.com/ajitpratap0/csvconf/pkg/errors"
	"github.com/ajitpratap0/csvconf/pkg/logger"
	"github.com/ajitpratap0/csvconf/pkg/materialize"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// Replacer is the subset of mongo.Collection used by MongoSink.
type Replacer interface {
	ReplaceOne(ctx context.Context, filter interface{}, replacement interface{}, opts ...*options.ReplaceOptions) (*mongo.UpdateResult, error)
}

// MongoSink upserts one document per slot, keyed by the slot name.
type MongoSink struct {
	coll       Replacer
	disconnect func(context.Context) error
	logger     *zap.Logger
}

// NewMongoSink creates a sink over an existing collection.
func NewMongoSink(coll Replacer) *MongoSink {
	return &MongoSink{
		coll:   coll,
		logger: logger.Get().With(zap.String("component", "mongo_sink")),
	}
}

// DialMongo connects to uri and stores into database.collection.
func DialMongo(ctx context.Context, uri, database, collection string) (*MongoSink, error) {
	if database == "" || collection == "" {
		return nil, errors.New(errors.ErrorTypeConfig, "mongo sink needs a database and a collection")
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConnection, "failed to connect to mongo")
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, errors.Wrap(err, errors.ErrorTypeConnection, "failed to reach mongo")
	}
	s := NewMongoSink(client.Database(database).Collection(collection))
	s.disconnect = client.Disconnect
	return s, nil
}

// Document returns the stored form of an asset.
func Document(a *Asset) bson.D {
	columns := make(bson.A, len(a.Columns))
	for i, c := range a.Columns {
		columns[i] = bson.D{{Key: "name", Value: c.Name}, {Key: "type", Value: c.Descriptor}}
	}
	records := make(bson.A, len(a.Records))
	for i, r := range a.Records {
		records[i] = bson.M(r)
	}
	return bson.D{
		{Key: "_id", Value: a.Slot},
		{Key: "revision", Value: a.Revision},
		{Key: "columns", Value: columns},
		{Key: "records", Value: records},
		{Key: "skipped", Value: a.Skipped},
		{Key: "stored_at", Value: a.StoredAt},
	}
}

// Store replaces or inserts the slot's document.
func (s *MongoSink) Store(ctx context.Context, slot string, ds *materialize.Dataset) error {
	asset, err := NewAsset(slot, ds)
	if err != nil {
		return err
	}

	_, err = s.coll.ReplaceOne(ctx,
		bson.D{{Key: "_id", Value: slot}},
		Document(asset),
		options.Replace().SetUpsert(true))
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeConnection, "failed to upsert slot "+slot)
	}
	s.logger.Info("slot stored",
		zap.String("slot", slot),
		zap.String("revision", asset.Revision),
		zap.Int("records", len(asset.Records)))
	return nil
}

// Close disconnects the client opened by DialMongo.
func (s *MongoSink) Close() error {
	if s.disconnect == nil {
		return nil
	}
	return s.disconnect(context.Background())
}
