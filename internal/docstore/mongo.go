package docstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/LhacenMed/admin-dashboard/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// NewMongoClient connects and pings with a bounded timeout.
func NewMongoClient(ctx context.Context, uri, username, password string) (*mongo.Client, error) {
	clientOptions := options.Client().ApplyURI(uri)
	if username != "" && password != "" {
		clientOptions.SetAuth(options.Credential{
			Username: username,
			Password: password,
		})
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return client, nil
}

type MongoStore struct {
	db *mongo.Database
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{db: db}
}

func (s *MongoStore) Get(ctx context.Context, collection, id string, out any) error {
	err := s.db.Collection(collection).FindOne(ctx, bson.M{"_id": id}).Decode(out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.ErrNotFound
	}
	return err
}

func (s *MongoStore) Find(ctx context.Context, collection string, filter Filter) ([]Snapshot, error) {
	cursor, err := s.db.Collection(collection).Find(ctx, mongoFilter(filter))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var snapshots []Snapshot
	for cursor.Next(ctx) {
		raw := make(bson.Raw, len(cursor.Current))
		copy(raw, cursor.Current)
		snapshots = append(snapshots, rawSnapshot(raw))
	}
	return snapshots, cursor.Err()
}

func (s *MongoStore) Count(ctx context.Context, collection string, filter Filter) (int64, error) {
	return s.db.Collection(collection).CountDocuments(ctx, mongoFilter(filter))
}

func (s *MongoStore) Create(ctx context.Context, collection, id string, doc any) error {
	body, err := withID(id, doc)
	if err != nil {
		return err
	}
	_, err = s.db.Collection(collection).InsertOne(ctx, body)
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%w: %s/%s", domain.ErrConflict, collection, id)
	}
	return err
}

func (s *MongoStore) Set(ctx context.Context, collection, id string, doc any) error {
	body, err := withID(id, doc)
	if err != nil {
		return err
	}
	_, err = s.db.Collection(collection).ReplaceOne(ctx, bson.M{"_id": id}, body, options.Replace().SetUpsert(true))
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%w: %s/%s", domain.ErrConflict, collection, id)
	}
	return err
}

func (s *MongoStore) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	res, err := s.db.Collection(collection).UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": fields})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *MongoStore) Delete(ctx context.Context, collection, id string) error {
	_, err := s.db.Collection(collection).DeleteOne(ctx, bson.M{"_id": id})
	return err
}

type changeEvent struct {
	OperationType string   `bson:"operationType"`
	FullDocument  bson.Raw `bson:"fullDocument"`
}

// Watch opens the change stream before reading the current state so no change in between is lost.
func (s *MongoStore) Watch(ctx context.Context, collection, id string) (<-chan Snapshot, error) {
	coll := s.db.Collection(collection)
	pipeline := mongo.Pipeline{bson.D{{Key: "$match", Value: bson.D{{Key: "documentKey._id", Value: id}}}}}
	stream, err := coll.Watch(ctx, pipeline, options.ChangeStream().SetFullDocument(options.UpdateLookup))
	if err != nil {
		return nil, fmt.Errorf("watch %s/%s: %w", collection, id, err)
	}

	initial, err := coll.FindOne(ctx, bson.M{"_id": id}).Raw()
	if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
		_ = stream.Close(context.Background())
		return nil, err
	}

	out := make(chan Snapshot, 1)
	go func() {
		defer close(out)
		defer stream.Close(context.Background())

		first := Missing(id)
		if initial != nil {
			first = rawSnapshot(initial)
		}
		if !send(ctx, out, first) {
			return
		}

		for stream.Next(ctx) {
			var event changeEvent
			if err := stream.Decode(&event); err != nil {
				send(ctx, out, Failed(id, err))
				return
			}
			next := Missing(id)
			if event.OperationType != "delete" && event.FullDocument != nil {
				next = rawSnapshot(event.FullDocument)
			}
			if !send(ctx, out, next) {
				return
			}
		}
		if err := stream.Err(); err != nil && ctx.Err() == nil {
			send(ctx, out, Failed(id, err))
		}
	}()
	return out, nil
}

func (s *MongoStore) EnsureIndex(ctx context.Context, collection, field string, unique bool) error {
	_, err := s.db.Collection(collection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: field, Value: 1}},
		Options: options.Index().SetUnique(unique),
	})
	return err
}

func mongoFilter(filter Filter) bson.M {
	m := bson.M{}
	for k, v := range filter {
		m[k] = v
	}
	return m
}

func withID(id string, doc any) (bson.M, error) {
	raw, err := bson.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	body := bson.M{}
	if err := bson.Unmarshal(raw, &body); err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	body["_id"] = id
	return body, nil
}

func rawSnapshot(raw bson.Raw) Snapshot {
	id, _ := raw.Lookup("_id").StringValueOK()
	return NewSnapshot(id, func(out any) error {
		return bson.Unmarshal(raw, out)
	})
}

func send(ctx context.Context, out chan<- Snapshot, snap Snapshot) bool {
	select {
	case out <- snap:
		return true
	case <-ctx.Done():
		return false
	}
}

var _ Store = (*MongoStore)(nil)
