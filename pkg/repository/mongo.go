package repository

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/kaiwa-dev/kaiwa/pkg/query"
	mongostore "github.com/kaiwa-dev/kaiwa/pkg/store/mongodb"
)

// MongoStore adapts the store/mongodb adapter to the repository Store contract.
type MongoStore struct {
	adapter *mongostore.Adapter
}

// NewMongoStore creates a MongoStore.
func NewMongoStore(adapter *mongostore.Adapter) (*MongoStore, error) {
	if adapter == nil {
		return nil, fmt.Errorf("mongodb adapter is required")
	}
	return &MongoStore{adapter: adapter}, nil
}

func (s *MongoStore) InsertOne(ctx context.Context, collection string, doc Document) error {
	_, err := s.adapter.InsertOne(ctx, collection, bson.M(doc))
	return err
}

func (s *MongoStore) FindOne(ctx context.Context, collection string, filter query.Filter, sort []query.Order) (Document, bool, error) {
	out := bson.M{}
	err := s.adapter.FindOne(ctx, collection, toBSONFilter(filter), sortSpec(sort), &out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return Document(out), true, nil
}

func (s *MongoStore) Find(ctx context.Context, collection string, filter query.Filter, sort []query.Order, skip, limit int64) ([]Document, error) {
	raw, err := s.adapter.Find(ctx, collection, toBSONFilter(filter), sortSpec(sort), skip, limit)
	if err != nil {
		return nil, err
	}
	docs := make([]Document, len(raw))
	for i, d := range raw {
		docs[i] = Document(d)
	}
	return docs, nil
}

func (s *MongoStore) Count(ctx context.Context, collection string, filter query.Filter) (int64, error) {
	return s.adapter.CountDocuments(ctx, collection, toBSONFilter(filter))
}

func (s *MongoStore) UpdateOne(ctx context.Context, collection string, filter query.Filter, fields Document) (int64, error) {
	res, err := s.adapter.UpdateOne(ctx, collection, toBSONFilter(filter), bson.M{"$set": bson.M(fields)})
	if err != nil {
		return 0, err
	}
	return res.MatchedCount, nil
}

func (s *MongoStore) DeleteOne(ctx context.Context, collection string, filter query.Filter) (int64, error) {
	res, err := s.adapter.DeleteOne(ctx, collection, toBSONFilter(filter))
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func toBSONFilter(filter query.Filter) bson.M {
	if len(filter) == 0 {
		return bson.M{}
	}
	return bson.M(filter)
}

// sortSpec preserves clause order: multi-field ordering applies in
// declaration order.
func sortSpec(orders []query.Order) bson.D {
	if len(orders) == 0 {
		return nil
	}
	spec := make(bson.D, len(orders))
	for i, o := range orders {
		dir := 1
		if o.Direction == query.Desc {
			dir = -1
		}
		spec[i] = bson.E{Key: o.Field, Value: dir}
	}
	return spec
}
