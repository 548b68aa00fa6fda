package possync

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/semtiles/pkg/graph"
)

// MongoCollection is the collection positions are written to.
const MongoCollection = "positions"

// mongoPosition is the stored document; _id is the domain id.
type mongoPosition struct {
	ID        string    `bson:"_id"`
	X         float64   `bson:"x"`
	Y         float64   `bson:"y"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// MongoStore keeps positions in a MongoDB collection.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// OpenMongo connects to uri and pings the primary.
func OpenMongo(ctx context.Context, uri, database string) (*MongoStore, error) {
	opts := options.Client().ApplyURI(uri).SetServerSelectionTimeout(5 * time.Second)
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return &MongoStore{client: client, coll: client.Database(database).Collection(MongoCollection)}, nil
}

// SavePositions upserts every position in one unordered bulk write.
func (s *MongoStore) SavePositions(ctx context.Context, pos graph.Positions) error {
	if len(pos) == 0 {
		return nil
	}
	now := time.Now().UTC()
	models := make([]mongo.WriteModel, 0, len(pos))
	for id, p := range pos {
		models = append(models, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"_id": id}).
			SetUpdate(bson.M{"$set": bson.M{"x": p.X, "y": p.Y, "updated_at": now}}).
			SetUpsert(true))
	}
	if _, err := s.coll.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false)); err != nil {
		return fmt.Errorf("bulk upsert positions: %w", err)
	}
	return nil
}

// LoadPositions implements Store.
func (s *MongoStore) LoadPositions(ctx context.Context, ids []string) (graph.Positions, error) {
	filter := bson.M{}
	if ids != nil {
		filter = bson.M{"_id": bson.M{"$in": ids}}
	}
	cur, err := s.coll.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("find positions: %w", err)
	}
	var docs []mongoPosition
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode positions: %w", err)
	}
	out := make(graph.Positions, len(docs))
	for _, d := range docs {
		out[d.ID] = graph.Position{X: d.X, Y: d.Y}
	}
	return out, nil
}

// Backend implements Persister.
func (s *MongoStore) Backend() string { return "mongo" }

// Close disconnects the client.
func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

var _ Store = (*MongoStore)(nil)
