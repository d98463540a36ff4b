package mongo

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/appetiteclub/till/internal/storage"
	"github.com/appetiteclub/till/pkg/platform"
)

const kvCollection = "kv"

type kvDocument struct {
	Key       string    `bson:"_id"`
	Value     []byte    `bson:"value"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// KVRepo implements storage.KV on a single collection keyed by _id.
type KVRepo struct {
	base   *BaseRepo
	logger platform.Logger
}

func NewKVRepo(base *BaseRepo, logger platform.Logger) *KVRepo {
	if logger == nil {
		logger = platform.NewNoopLogger()
	}
	return &KVRepo{base: base, logger: logger}
}

func (r *KVRepo) collection() (*mongo.Collection, error) {
	db := r.base.GetDatabase()
	if db == nil {
		return nil, errors.New("mongo repository not started")
	}
	return db.Collection(kvCollection), nil
}

func (r *KVRepo) Get(ctx context.Context, key string) ([]byte, error) {
	coll, err := r.collection()
	if err != nil {
		return nil, err
	}

	var doc kvDocument
	err = coll.FindOne(ctx, bson.M{"_id": key}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("cannot get %s: %w", key, err)
	}
	return doc.Value, nil
}

func (r *KVRepo) Put(ctx context.Context, key string, value []byte) error {
	coll, err := r.collection()
	if err != nil {
		return err
	}

	filter := bson.M{"_id": key}
	update := bson.M{"$set": bson.M{"value": value, "updated_at": time.Now().UTC()}}
	opts := options.Update().SetUpsert(true)

	if _, err := coll.UpdateOne(ctx, filter, update, opts); err != nil {
		return fmt.Errorf("cannot put %s: %w", key, err)
	}
	return nil
}

func (r *KVRepo) Delete(ctx context.Context, key string) error {
	coll, err := r.collection()
	if err != nil {
		return err
	}
	if _, err := coll.DeleteOne(ctx, bson.M{"_id": key}); err != nil {
		return fmt.Errorf("cannot delete %s: %w", key, err)
	}
	return nil
}

func (r *KVRepo) Keys(ctx context.Context, prefix string) ([]string, error) {
	coll, err := r.collection()
	if err != nil {
		return nil, err
	}

	filter := bson.M{}
	if prefix != "" {
		filter["_id"] = bson.M{"$regex": "^" + regexp.QuoteMeta(prefix)}
	}
	opts := options.Find().
		SetProjection(bson.M{"_id": 1}).
		SetSort(bson.D{{Key: "_id", Value: 1}})

	cursor, err := coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("cannot list keys: %w", err)
	}
	defer cursor.Close(ctx)

	var keys []string
	for cursor.Next(ctx) {
		var doc struct {
			Key string `bson:"_id"`
		}
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("cannot decode key: %w", err)
		}
		keys = append(keys, doc.Key)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}
	return keys, nil
}
