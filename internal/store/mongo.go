package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/joomcode/errorx"
	"github.com/maxbolgarin/errm"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/ordobot/ordo/internal/config"
	"github.com/ordobot/ordo/internal/logging"
)

const snapshotsCollection = "snapshots"

// MongoBackend stores every collection snapshot as a single document
// {_id: <name>, data: <snapshot>} in one MongoDB collection, keeping the
// same whole-snapshot semantics as the file backend.
type MongoBackend struct {
	client *mongo.Client
	coll   *mongo.Collection
	log    logging.Logger
}

// NewMongoBackend connects to MongoDB and pings the primary.
func NewMongoBackend(ctx context.Context, cfg config.DatabaseConfig, log logging.Logger) (*MongoBackend, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	dsn := fmt.Sprintf("mongodb://%s/%s", cfg.Address, cfg.DBName)
	opts := options.Client().ApplyURI(dsn)
	if len(cfg.Username) > 0 && len(cfg.Password) > 0 {
		opts.SetAuth(options.Credential{
			AuthMechanism: "SCRAM-SHA-256",
			AuthSource:    cfg.DBName,
			Username:      cfg.Username,
			Password:      cfg.Password,
		})
	}

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, errm.Wrap(err, "connect")
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return nil, errm.Wrap(err, "ping")
	}

	return &MongoBackend{
		client: client,
		coll:   client.Database(cfg.DBName).Collection(snapshotsCollection),
		log:    log,
	}, nil
}

// Disconnect closes the underlying client.
func (m *MongoBackend) Disconnect(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

type snapshotDoc struct {
	ID   string        `bson:"_id"`
	Data bson.RawValue `bson:"data"`
}

// Load reads the snapshot document and decodes its data field into dest.
func (m *MongoBackend) Load(ctx context.Context, name string, dest any) (bool, error) {
	res := m.coll.FindOne(ctx, bson.M{"_id": name})
	err := res.Err()
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return false, nil
	case err != nil:
		return false, errm.Wrap(err, "find")
	}

	var doc snapshotDoc
	if err := res.Decode(&doc); err != nil {
		return false, errm.Wrap(err, "decode")
	}

	if err := doc.Data.Unmarshal(dest); err != nil {
		m.log.Warn("corrupt snapshot document, starting empty", "collection", name, "error", err)
		return false, nil
	}

	return true, nil
}

// Save upserts the whole snapshot document.
func (m *MongoBackend) Save(ctx context.Context, name string, v any) error {
	err := m.replace(ctx, name, v)
	if errorx.IsDuplicate(err) {
		// Two upserts raced on the first insert, one of them lost.
		err = m.replace(ctx, name, v)
	}
	if err != nil {
		return errm.Wrap(err, "replace")
	}
	return nil
}

func (m *MongoBackend) replace(ctx context.Context, name string, v any) error {
	trueUpsert := true
	_, err := m.coll.ReplaceOne(ctx, bson.M{"_id": name}, bson.M{"_id": name, "data": v}, &options.ReplaceOptions{
		Upsert: &trueUpsert,
	})
	return err
}
