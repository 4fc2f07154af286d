package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tictactoe-server/internal/models"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoDB struct {
	Client   *mongo.Client
	Database *mongo.Database
	log      zerolog.Logger
}

func NewMongoDB(ctx context.Context, uri, database string, log zerolog.Logger) (*MongoDB, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	clientOptions := options.Client().
		ApplyURI(uri).
		SetMaxPoolSize(100).
		SetMinPoolSize(5).
		SetMaxConnIdleTime(5 * time.Minute)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	// Ping the database to verify connection
	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	db := &MongoDB{
		Client:   client,
		Database: client.Database(database),
		log:      log.With().Str("component", "mongodb").Logger(),
	}

	// Create indexes in the background (non-blocking)
	go db.ensureIndexes()

	return db, nil
}

// ensureIndexes creates all required indexes. Called once on startup.
func (m *MongoDB) ensureIndexes() {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	indexes := []struct {
		collection string
		models     []mongo.IndexModel
	}{
		{
			"users",
			[]mongo.IndexModel{
				{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
				{Keys: bson.D{{Key: "mmr", Value: -1}}},
			},
		},
		{
			"match_results",
			[]mongo.IndexModel{
				{Keys: bson.D{{Key: "firstMoverId", Value: 1}, {Key: "completedAt", Value: -1}}},
				{Keys: bson.D{{Key: "secondMoverId", Value: 1}, {Key: "completedAt", Value: -1}}},
			},
		},
		{
			"audit_log",
			[]mongo.IndexModel{
				{Keys: bson.D{{Key: "createdAt", Value: 1}}, Options: options.Index().SetExpireAfterSeconds(90 * 24 * 3600)},
			},
		},
	}

	for _, idx := range indexes {
		coll := m.Database.Collection(idx.collection)
		_, err := coll.Indexes().CreateMany(ctx, idx.models)
		if err != nil {
			m.log.Warn().Err(err).Str("collection", idx.collection).Msg("failed to create indexes")
		}
	}

	m.log.Info().Msg("database indexes ensured")
}

func (m *MongoDB) Close(ctx context.Context) error {
	return m.Client.Disconnect(ctx)
}

func (m *MongoDB) Ping(ctx context.Context) error {
	return m.Client.Ping(ctx, nil)
}

func (m *MongoDB) Users() *mongo.Collection {
	return m.Database.Collection("users")
}

func (m *MongoDB) MatchResults() *mongo.Collection {
	return m.Database.Collection("match_results")
}

func (m *MongoDB) AuditLog() *mongo.Collection {
	return m.Database.Collection("audit_log")
}

func (m *MongoDB) RecordAudit(ctx context.Context, event *models.AuditEvent) error {
	if _, err := m.AuditLog().InsertOne(ctx, event); err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

// CreateUser inserts a new account, filling in the id, timestamps and the
// starting rating when unset.
func (m *MongoDB) CreateUser(ctx context.Context, user *models.User) error {
	now := time.Now()
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	if user.Rating == 0 {
		user.Rating = models.DefaultRating
	}
	user.CreatedAt = now
	user.UpdatedAt = now

	if _, err := m.Users().InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("username %q already taken", user.Username)
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (m *MongoDB) UsernameTaken(ctx context.Context, username string) (bool, error) {
	n, err := m.Users().CountDocuments(ctx, bson.M{"username": username}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("count username %s: %w", username, err)
	}
	return n > 0, nil
}

func (m *MongoDB) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, models.ErrUserNotFound
	}

	var user models.User
	err = m.Users().FindOne(ctx, bson.M{"_id": oid}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, models.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find user %s: %w", id, err)
	}
	return &user, nil
}

func (m *MongoDB) UserExists(ctx context.Context, id string) (bool, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return false, nil
	}
	n, err := m.Users().CountDocuments(ctx, bson.M{"_id": oid}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("count user %s: %w", id, err)
	}
	return n > 0, nil
}

func (m *MongoDB) UpdateRating(ctx context.Context, id string, rating float64) error {
	return m.updateUser(ctx, id, bson.M{
		"$set": bson.M{
			"mmr":       rating,
			"updatedAt": time.Now(),
		},
	})
}

func (m *MongoDB) IncrementOutcomeCounter(ctx context.Context, id string, outcome models.CounterOutcome) error {
	var field string
	switch outcome {
	case models.CounterWin:
		field = "wins"
	case models.CounterLoss:
		field = "losses"
	default:
		return fmt.Errorf("unknown outcome counter %q", outcome)
	}
	return m.updateUser(ctx, id, bson.M{
		"$inc": bson.M{field: 1},
		"$set": bson.M{"updatedAt": time.Now()},
	})
}

func (m *MongoDB) updateUser(ctx context.Context, id string, update bson.M) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return models.ErrUserNotFound
	}
	res, err := m.Users().UpdateOne(ctx, bson.M{"_id": oid}, update)
	if err != nil {
		return fmt.Errorf("update user %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return models.ErrUserNotFound
	}
	return nil
}

func (m *MongoDB) SaveMatchResult(ctx context.Context, result *models.MatchResult) error {
	if result.ID.IsZero() {
		result.ID = primitive.NewObjectID()
	}
	if _, err := m.MatchResults().InsertOne(ctx, result); err != nil {
		return fmt.Errorf("insert match result for game %d: %w", result.GameID, err)
	}
	return nil
}

// ListMatchResultsByUser returns every match the user played, newest first.
func (m *MongoDB) ListMatchResultsByUser(ctx context.Context, id string) ([]models.MatchResult, error) {
	filter := bson.M{"$or": []bson.M{
		{"firstMoverId": id},
		{"secondMoverId": id},
	}}
	opts := options.Find().SetSort(bson.D{{Key: "completedAt", Value: -1}})

	cursor, err := m.MatchResults().Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find match results for %s: %w", id, err)
	}
	defer cursor.Close(ctx)

	results := []models.MatchResult{}
	if err := cursor.All(ctx, &results); err != nil {
		return nil, fmt.Errorf("decode match results for %s: %w", id, err)
	}
	return results, nil
}

// TopUsers returns up to limit users ordered by rating, highest first.
func (m *MongoDB) TopUsers(ctx context.Context, limit int) ([]models.User, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "mmr", Value: -1}, {Key: "username", Value: 1}}).
		SetLimit(int64(limit)).
		SetProjection(bson.M{
			"username": 1,
			"mmr":      1,
			"wins":     1,
			"losses":   1,
		})

	cursor, err := m.Users().Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("find top users: %w", err)
	}
	defer cursor.Close(ctx)

	users := []models.User{}
	if err := cursor.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("decode top users: %w", err)
	}
	return users, nil
}
