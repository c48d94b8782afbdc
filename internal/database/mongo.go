package database

import (
	"context"
	"log/slog"
	"time"

	"github.com/inkwell/api/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var Client *mongo.Client
var DB *mongo.Database

func Connect(uri, dbName string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return err
	}

	// Ping the database
	if err := client.Ping(ctx, nil); err != nil {
		return err
	}

	Client = client
	DB = client.Database(dbName)

	slog.Info("mongo_connected", "database", dbName)
	return nil
}

func Disconnect() {
	if Client != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		Client.Disconnect(ctx)
	}
}

// Collections
func Users() *mongo.Collection {
	return DB.Collection("users")
}

func Profiles() *mongo.Collection {
	return DB.Collection("profiles")
}

func Posts() *mongo.Collection {
	return DB.Collection("posts")
}

func Images() *mongo.Collection {
	return DB.Collection("images")
}

func PostViews() *mongo.Collection {
	return DB.Collection("post_views")
}

func PostLikes() *mongo.Collection {
	return DB.Collection("post_likes")
}

func PostBookmarks() *mongo.Collection {
	return DB.Collection("post_bookmarks")
}

func PostComments() *mongo.Collection {
	return DB.Collection("post_comments")
}

// EnsureIndexes creates the indexes the handlers rely on. Reaction indexes are
// unique so that a toggle race cannot double count.
func EnsureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	postUser := mongo.IndexModel{
		Keys:    bson.D{{Key: "post_id", Value: 1}, {Key: "user_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	userCreated := mongo.IndexModel{
		Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}},
	}

	specs := []struct {
		coll    *mongo.Collection
		indexes []mongo.IndexModel
	}{
		{Users(), []mongo.IndexModel{{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)}}},
		{Profiles(), []mongo.IndexModel{{Keys: bson.D{{Key: "user_id", Value: 1}}, Options: options.Index().SetUnique(true)}}},
		{Posts(), []mongo.IndexModel{
			{Keys: bson.D{{Key: "slug", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "author_id", Value: 1}, {Key: "created_at", Value: -1}}},
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "published_at", Value: -1}}},
			{Keys: bson.D{{Key: "tags", Value: 1}}},
		}},
		{PostViews(), []mongo.IndexModel{postUser}},
		{PostLikes(), []mongo.IndexModel{postUser, userCreated}},
		{PostBookmarks(), []mongo.IndexModel{postUser, userCreated}},
		{PostComments(), []mongo.IndexModel{{Keys: bson.D{{Key: "post_id", Value: 1}, {Key: "created_at", Value: -1}}}}},
	}

	for _, s := range specs {
		if _, err := s.coll.Indexes().CreateMany(ctx, s.indexes); err != nil {
			return err
		}
	}
	return nil
}

// PostsByAuthor returns every post of authorID, newest first, drafts included.
func PostsByAuthor(ctx context.Context, authorID primitive.ObjectID) ([]models.BlogPost, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := Posts().Find(ctx, bson.M{"author_id": authorID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var posts []models.BlogPost
	if err := cursor.All(ctx, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}
