package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/lachb/grazier/internal/domain/models"
)

// ErrHerdNotFound indicates no herd exists for the requested id.
var ErrHerdNotFound = errors.New("herd not found")

// Repository defines the durable-store operations for herd groups and
// valuation snapshots.
type Repository interface {
	CreateHerd(ctx context.Context, herd models.HerdGroup) error
	CreateHerds(ctx context.Context, herds []models.HerdGroup) error
	UpdateHerd(ctx context.Context, herd models.HerdGroup) error
	GetHerd(ctx context.Context, id string) (models.HerdGroup, error)
	ListHerds(ctx context.Context) ([]models.HerdGroup, error)
	ListBreeders(ctx context.Context) ([]models.HerdGroup, error)
	SaveSnapshot(ctx context.Context, snapshot models.ValuationSnapshot) error
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// MongoDBRepository implements Repository against MongoDB.
type MongoDBRepository struct {
	client       *mongo.Client
	dbName       string
	herdColl     string
	snapshotColl string
}

// NewMongoDBRepository connects to MongoDB and returns the repository.
func NewMongoDBRepository(ctx context.Context, uri string, dbName string) (*MongoDBRepository, error) {
	clientOptions := options.Client().ApplyURI(uri).SetRegistry(decimalRegistry())
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	// Ping the database to verify connection
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return &MongoDBRepository{
		client:       client,
		dbName:       dbName,
		herdColl:     "herds",
		snapshotColl: "valuation_snapshots",
	}, nil
}

func (r *MongoDBRepository) herds() *mongo.Collection {
	return r.client.Database(r.dbName).Collection(r.herdColl)
}

// CreateHerd inserts a single validated herd record.
func (r *MongoDBRepository) CreateHerd(ctx context.Context, herd models.HerdGroup) error {
	if err := herd.Validate(); err != nil {
		return err
	}
	if _, err := r.herds().InsertOne(ctx, herd); err != nil {
		return fmt.Errorf("failed to insert herd %s: %w", herd.ID, err)
	}
	return nil
}

// CreateHerds inserts a batch of herd records, all validated up front.
func (r *MongoDBRepository) CreateHerds(ctx context.Context, herds []models.HerdGroup) error {
	if len(herds) == 0 {
		return nil
	}
	docs := make([]interface{}, 0, len(herds))
	for i := range herds {
		if err := herds[i].Validate(); err != nil {
			return err
		}
		docs = append(docs, herds[i])
	}
	if _, err := r.herds().InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("failed to insert %d herds: %w", len(herds), err)
	}
	return nil
}

// UpdateHerd replaces the stored record for the herd's id.
func (r *MongoDBRepository) UpdateHerd(ctx context.Context, herd models.HerdGroup) error {
	if err := herd.Validate(); err != nil {
		return err
	}
	result, err := r.herds().ReplaceOne(ctx, bson.M{"_id": herd.ID}, herd)
	if err != nil {
		return fmt.Errorf("failed to update herd %s: %w", herd.ID, err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("herd %s: %w", herd.ID, ErrHerdNotFound)
	}
	return nil
}

// GetHerd fetches one herd by id.
func (r *MongoDBRepository) GetHerd(ctx context.Context, id string) (models.HerdGroup, error) {
	var herd models.HerdGroup
	err := r.herds().FindOne(ctx, bson.M{"_id": id}).Decode(&herd)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.HerdGroup{}, fmt.Errorf("herd %s: %w", id, ErrHerdNotFound)
	}
	if err != nil {
		return models.HerdGroup{}, fmt.Errorf("failed to fetch herd %s: %w", id, err)
	}
	return herd, nil
}

// ListHerds returns every herd record.
func (r *MongoDBRepository) ListHerds(ctx context.Context) ([]models.HerdGroup, error) {
	return r.list(ctx, bson.M{})
}

// ListBreeders returns the unsold herds flagged as breeding stock.
func (r *MongoDBRepository) ListBreeders(ctx context.Context) ([]models.HerdGroup, error) {
	return r.list(ctx, bson.M{"is_breeder": true, "sold": false})
}

func (r *MongoDBRepository) list(ctx context.Context, filter bson.M) ([]models.HerdGroup, error) {
	cursor, err := r.herds().Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to query herds: %w", err)
	}
	defer cursor.Close(ctx)

	var herds []models.HerdGroup
	if err := cursor.All(ctx, &herds); err != nil {
		return nil, fmt.Errorf("failed to decode herds: %w", err)
	}
	return herds, nil
}

// SaveSnapshot persists a portfolio valuation snapshot.
func (r *MongoDBRepository) SaveSnapshot(ctx context.Context, snapshot models.ValuationSnapshot) error {
	collection := r.client.Database(r.dbName).Collection(r.snapshotColl)
	if _, err := collection.InsertOne(ctx, snapshot); err != nil {
		return fmt.Errorf("failed to insert valuation snapshot: %w", err)
	}
	return nil
}

// WithTransaction runs fn inside a single MongoDB transaction. The lifecycle
// passes rely on this single-writer boundary for all-or-nothing herd
// transitions.
func (r *MongoDBRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	session, err := r.client.StartSession()
	if err != nil {
		return fmt.Errorf("failed to start mongodb session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		return nil, fn(sessCtx)
	})
	if err != nil {
		return fmt.Errorf("transaction failed: %w", err)
	}
	return nil
}

// Close closes the MongoDB connection.
func (r *MongoDBRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}
