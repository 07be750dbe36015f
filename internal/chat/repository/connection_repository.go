package repository

import (
	"context"
	"time"

	"estate_chat_service/internal/chat/domain"
	errprocess "estate_chat_service/pkg/err"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const userConnectionCollection = "user_connections"

// ConnectionRepository definition user connection audit trail
type ConnectionRepository interface {
	InsertConnection(ctx context.Context, conn *domain.UserConnection) error
	MarkDisconnected(ctx context.Context, connectionID string, at time.Time) error
	TouchLastSeen(ctx context.Context, connectionID string, at time.Time) error
	LastSeen(ctx context.Context, userID string) (*time.Time, error)
}

type mongoConnectionRepository struct {
	coll *mongo.Collection
}

// NewMongoConnectionRepository create mongo user connection repository
func NewMongoConnectionRepository(db *mongo.Database) ConnectionRepository {
	return &mongoConnectionRepository{
		coll: db.Collection(userConnectionCollection),
	}
}

// EnsureIndexes user_id + last_seen_at for LastSeen lookups
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(userConnectionCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "last_seen_at", Value: -1}},
	})
	return errprocess.Wrap("create user_connections index", err)
}

// InsertConnection append a connect row
func (r *mongoConnectionRepository) InsertConnection(ctx context.Context, conn *domain.UserConnection) error {
	_, err := r.coll.InsertOne(ctx, conn)
	return err
}

// MarkDisconnected close the row of connectionID
func (r *mongoConnectionRepository) MarkDisconnected(ctx context.Context, connectionID string, at time.Time) error {
	_, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": connectionID},
		bson.M{"$set": bson.M{
			"online":          false,
			"disconnected_at": at,
			"last_seen_at":    at,
		}},
	)
	return err
}

// TouchLastSeen advance last_seen_at, never moves it backwards
func (r *mongoConnectionRepository) TouchLastSeen(ctx context.Context, connectionID string, at time.Time) error {
	_, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": connectionID},
		bson.M{"$max": bson.M{"last_seen_at": at}},
	)
	return err
}

// LastSeen latest last_seen_at of userID across connections, nil if never connected
func (r *mongoConnectionRepository) LastSeen(ctx context.Context, userID string) (*time.Time, error) {
	var row domain.UserConnection
	err := r.coll.FindOne(ctx,
		bson.M{"user_id": userID},
		options.FindOne().SetSort(bson.D{{Key: "last_seen_at", Value: -1}}),
	).Decode(&row)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row.LastSeenAt, nil
}
