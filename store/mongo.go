package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/raushankrgupta/fitscroll/models"
)

const (
	ProfilesCollection = "profiles"
	FeedCollection     = "feed_entries"
)

type profileDoc struct {
	UserID             string `bson:"user_id"`
	models.UserProfile `bson:",inline"`
}

type feedDoc struct {
	UserID           string `bson:"user_id"`
	Position         int    `bson:"position"`
	models.FeedEntry `bson:",inline"`
}

// MongoStore keeps one profile document per user and one document per feed entry
type MongoStore struct {
	profiles *mongo.Collection
	feed     *mongo.Collection
	timeout  time.Duration
	now      func() time.Time
}

func NewMongoStore(client *mongo.Client, dbName string) *MongoStore {
	db := client.Database(dbName)
	return &MongoStore{
		profiles: db.Collection(ProfilesCollection),
		feed:     db.Collection(FeedCollection),
		timeout:  5 * time.Second,
		now:      time.Now,
	}
}

// EnsureIndexes creates the lookup indexes used by every query
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if _, err := s.profiles.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		return fmt.Errorf("profile index: %w", err)
	}
	if _, err := s.feed.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "id", Value: 1}},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		return fmt.Errorf("feed index: %w", err)
	}
	return nil
}

func (s *MongoStore) LoadProfile(ctx context.Context, userID string) (models.UserProfile, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var doc profileDoc
	err := s.profiles.FindOne(ctx, bson.M{"user_id": userID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.UserProfile{}, nil
	}
	if err != nil {
		return models.UserProfile{}, fmt.Errorf("load profile: %w", err)
	}
	return doc.UserProfile, nil
}

func (s *MongoStore) SaveProfile(ctx context.Context, userID string, p models.UserProfile) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	_, err := s.profiles.ReplaceOne(ctx,
		bson.M{"user_id": userID},
		profileDoc{UserID: userID, UserProfile: p},
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	return nil
}

func (s *MongoStore) LoadCachedFeed(ctx context.Context, userID string) ([]models.FeedEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	findOptions := options.Find().SetSort(bson.D{{Key: "position", Value: 1}})
	cursor, err := s.feed.Find(ctx, bson.M{"user_id": userID}, findOptions)
	if err != nil {
		return nil, fmt.Errorf("load feed: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []feedDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode feed: %w", err)
	}
	entries := make([]models.FeedEntry, 0, len(docs))
	for _, d := range docs {
		entries = append(entries, d.FeedEntry)
	}
	return entries, nil
}

// SaveCachedFeed replaces the user's whole feed
func (s *MongoStore) SaveCachedFeed(ctx context.Context, userID string, entries []models.FeedEntry) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if _, err := s.feed.DeleteMany(ctx, bson.M{"user_id": userID}); err != nil {
		return fmt.Errorf("clear feed: %w", err)
	}
	if len(entries) == 0 {
		return nil
	}
	if _, err := s.feed.InsertMany(ctx, feedDocuments(userID, entries)); err != nil {
		return fmt.Errorf("save feed: %w", err)
	}
	return nil
}

// ToggleLike flips liked and adjusts the counter in a single update pipeline
func (s *MongoStore) ToggleLike(ctx context.Context, userID, entryID string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc feedDoc
	err := s.feed.FindOneAndUpdate(ctx, entryFilter(userID, entryID), toggleLikeUpdate(), opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, ErrNotFound
	}
	if err != nil {
		return false, fmt.Errorf("toggle like: %w", err)
	}
	return doc.Liked, nil
}

func (s *MongoStore) LoadComments(ctx context.Context, userID, entryID string) ([]models.Comment, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var doc feedDoc
	opts := options.FindOne().SetProjection(bson.M{"comments": 1})
	err := s.feed.FindOne(ctx, entryFilter(userID, entryID), opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load comments: %w", err)
	}
	if doc.Comments == nil {
		return []models.Comment{}, nil
	}
	return doc.Comments, nil
}

func (s *MongoStore) AppendComment(ctx context.Context, userID, entryID, text string) ([]models.Comment, error) {
	c, err := newComment(userID, text, s.now())
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc feedDoc
	err = s.feed.FindOneAndUpdate(ctx, entryFilter(userID, entryID), appendCommentUpdate(c), opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("append comment: %w", err)
	}
	return doc.Comments, nil
}

func entryFilter(userID, entryID string) bson.M {
	return bson.M{"user_id": userID, "id": entryID}
}

// feedDocuments tags entries with their owner and feed position
func feedDocuments(userID string, entries []models.FeedEntry) []interface{} {
	docs := make([]interface{}, 0, len(entries))
	for i, e := range entries {
		docs = append(docs, feedDoc{UserID: userID, Position: i, FeedEntry: e})
	}
	return docs
}

// toggleLikeUpdate flips liked; likes moves with it and never drops below zero
func toggleLikeUpdate() mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$set", Value: bson.D{
			{Key: "likes", Value: bson.M{"$cond": bson.A{
				"$liked",
				bson.M{"$max": bson.A{0, bson.M{"$subtract": bson.A{"$likes", 1}}}},
				bson.M{"$add": bson.A{"$likes", 1}},
			}}},
			{Key: "liked", Value: bson.M{"$not": bson.A{"$liked"}}},
		}}},
	}
}

// appendCommentUpdate appends c even when comments is stored as null.
// $literal keeps user text out of expression parsing.
func appendCommentUpdate(c models.Comment) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$set", Value: bson.M{
			"comments": bson.M{"$concatArrays": bson.A{
				bson.M{"$ifNull": bson.A{"$comments", bson.A{}}},
				bson.M{"$literal": bson.A{c}},
			}},
		}}},
	}
}
