package store

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/quantumedge/backend/internal/models"
)

// ErrNotFound is returned when no document or row matches.
var ErrNotFound = errors.New("not found")

// MongoStore handles job document CRUD in MongoDB.
type MongoStore struct {
	col *mongo.Collection
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{col: db.Collection("jobs")}
}

// EnsureIndexes creates the owner index used by FindByOwner.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "creatorEmail", Value: 1}, {Key: "_id", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("mongo create index: %w", err)
	}
	return nil
}

// FindAll returns every job in storage order.
func (s *MongoStore) FindAll(ctx context.Context) ([]models.Job, error) {
	cur, err := s.col.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("mongo find: %w", err)
	}
	defer cur.Close(ctx)

	jobs := []models.Job{}
	if err := cur.All(ctx, &jobs); err != nil {
		return nil, fmt.Errorf("mongo decode: %w", err)
	}
	return jobs, nil
}

// FindByOwner returns the jobs created by email, newest first. ObjectIDs grow
// with insertion, so sorting on _id gives insertion order.
func (s *MongoStore) FindByOwner(ctx context.Context, email string) ([]models.Job, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: -1}})
	cur, err := s.col.Find(ctx, bson.M{"creatorEmail": email}, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo find: %w", err)
	}
	defer cur.Close(ctx)

	jobs := []models.Job{}
	if err := cur.All(ctx, &jobs); err != nil {
		return nil, fmt.Errorf("mongo decode: %w", err)
	}
	return jobs, nil
}

func (s *MongoStore) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Job, error) {
	var job models.Job
	err := s.col.FindOne(ctx, bson.M{"_id": id}).Decode(&job)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("mongo find one: %w", err)
	}
	return &job, nil
}

func (s *MongoStore) Insert(ctx context.Context, job *models.Job) (primitive.ObjectID, error) {
	res, err := s.col.InsertOne(ctx, job)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("mongo insert: %w", err)
	}
	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, fmt.Errorf("mongo insert: unexpected id type %T", res.InsertedID)
	}
	return oid, nil
}

// UpdateByID applies set and returns the document as stored afterwards.
func (s *MongoStore) UpdateByID(ctx context.Context, id primitive.ObjectID, set bson.M) (*models.Job, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var job models.Job
	err := s.col.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&job)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("mongo update: %w", err)
	}
	return &job, nil
}

// DeleteByID removes the job and reports how many documents matched.
func (s *MongoStore) DeleteByID(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, fmt.Errorf("mongo delete: %w", err)
	}
	return res.DeletedCount, nil
}
