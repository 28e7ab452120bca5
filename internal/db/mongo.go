package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/wuwenbin0122/agentmate/internal/models"
	"github.com/wuwenbin0122/agentmate/internal/utils"
)

const historySequenceKey = "chat_history"

type Mongo struct {
	Client   *mongo.Client
	Database *mongo.Database
	History  *mongo.Collection
	Counters *mongo.Collection
}

type mongoTurn struct {
	Seq       int64     `bson:"seq"`
	UserID    string    `bson:"user_id"`
	Role      string    `bson:"role"`
	Content   string    `bson:"content"`
	CreatedAt time.Time `bson:"created_at"`
}

func NewMongo(ctx context.Context, cfg utils.MongoConfig) (*Mongo, error) {
	if cfg.URI == "" {
		return nil, fmt.Errorf("mongo: uri is required")
	}

	clientOpts := options.Client().ApplyURI(cfg.URI)
	if cfg.ConnectTimeout > 0 {
		clientOpts.SetServerSelectionTimeout(cfg.ConnectTimeout)
	}

	ctx, cancel := context.WithTimeout(ctx, timeoutOrDefault(cfg.ConnectTimeout))
	defer cancel()

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("mongo: connect: %w", err)
	}

	db := client.Database(cfg.Database)
	return &Mongo{
		Client:   client,
		Database: db,
		History:  db.Collection("chat_history"),
		Counters: db.Collection("counters"),
	}, nil
}

func (m *Mongo) Close() error {
	if m == nil || m.Client == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return m.Client.Disconnect(ctx)
}

func (m *Mongo) EnsureCollections(ctx context.Context) error {
	if m == nil || m.Database == nil {
		return fmt.Errorf("mongo: database not initialised")
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	_, err := m.History.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "seq", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("mongo: ensure history index: %w", err)
	}

	return nil
}

func (m *Mongo) Append(ctx context.Context, turn models.Turn) error {
	if err := validateTurn(turn); err != nil {
		return err
	}

	seq, err := m.nextSeq(ctx)
	if err != nil {
		return err
	}

	createdAt := turn.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	doc := mongoTurn{
		Seq:       seq,
		UserID:    turn.UserID,
		Role:      string(turn.Role),
		Content:   turn.Content,
		CreatedAt: createdAt.UTC(),
	}
	if _, err := m.History.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("mongo: insert turn: %w", err)
	}
	return nil
}

func (m *Mongo) Recent(ctx context.Context, userID string, limit int) ([]models.Turn, error) {
	if limit <= 0 {
		return nil, nil
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "seq", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := m.History.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo: find recent: %w", err)
	}
	defer cursor.Close(ctx)

	turns := make([]models.Turn, 0, limit)
	for cursor.Next(ctx) {
		var doc mongoTurn
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("mongo: decode turn: %w", err)
		}
		turns = append(turns, models.Turn{
			ID:        doc.Seq,
			UserID:    doc.UserID,
			Role:      models.Role(doc.Role),
			Content:   doc.Content,
			CreatedAt: doc.CreatedAt.UTC(),
		})
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("mongo: iterate turns: %w", err)
	}

	return reverse(turns), nil
}

func (m *Mongo) Count(ctx context.Context, userID string) (int, error) {
	n, err := m.History.CountDocuments(ctx, bson.M{"user_id": userID})
	if err != nil {
		return 0, fmt.Errorf("mongo: count turns: %w", err)
	}
	return int(n), nil
}

func (m *Mongo) Clear(ctx context.Context, userID string) error {
	if _, err := m.History.DeleteMany(ctx, bson.M{"user_id": userID}); err != nil {
		return fmt.Errorf("mongo: clear history: %w", err)
	}
	return nil
}

// Compact is not atomic on a standalone server; the delete and insert run
// back to back.
func (m *Mongo) Compact(ctx context.Context, userID string, summary models.Turn) error {
	summary.UserID = userID
	if err := validateTurn(summary); err != nil {
		return err
	}
	if err := m.Clear(ctx, userID); err != nil {
		return err
	}
	return m.Append(ctx, summary)
}

func (m *Mongo) nextSeq(ctx context.Context) (int64, error) {
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var counter struct {
		Value int64 `bson:"value"`
	}
	err := m.Counters.FindOneAndUpdate(ctx,
		bson.M{"_id": historySequenceKey},
		bson.M{"$inc": bson.M{"value": int64(1)}},
		opts,
	).Decode(&counter)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return 0, fmt.Errorf("mongo: sequence %q missing after upsert", historySequenceKey)
		}
		return 0, fmt.Errorf("mongo: next sequence: %w", err)
	}
	return counter.Value, nil
}
