package conversations

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoRepo implements Repo on a MongoDB collection, one document per
// conversation with the turns embedded.
type MongoRepo struct {
	collection *mongo.Collection
}

// NewMongoRepo wraps the conversations collection.
func NewMongoRepo(collection *mongo.Collection) *MongoRepo {
	return &MongoRepo{collection: collection}
}

type mongoConversation struct {
	DocumentID string    `bson:"documentId"`
	UserID     string    `bson:"userId"`
	Messages   []Turn    `bson:"messages"`
	CreatedAt  time.Time `bson:"createdAt"`
	UpdatedAt  time.Time `bson:"updatedAt"`
}

func (m mongoConversation) toConversation() Conversation {
	turns := m.Messages
	if turns == nil {
		turns = []Turn{}
	}
	return Conversation{
		DocumentID: m.DocumentID,
		UserID:     m.UserID,
		Turns:      turns,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}

// EnsureIndexes creates the unique (documentId, userId) index.
func (r *MongoRepo) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "documentId", Value: 1}, {Key: "userId", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

func conversationFilter(documentID, userID string) bson.M {
	return bson.M{"documentId": documentID, "userId": userID}
}

func (r *MongoRepo) Get(ctx context.Context, documentID, userID string) (Conversation, error) {
	var out mongoConversation
	err := r.collection.FindOne(ctx, conversationFilter(documentID, userID)).Decode(&out)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return Conversation{}, ErrNotFound
		}
		return Conversation{}, err
	}
	return out.toConversation(), nil
}

// Append pushes the turns with a negative slice so the server trims the
// array in the same update.
func (r *MongoRepo) Append(ctx context.Context, documentID, userID string, turns []Turn, at time.Time) (Conversation, error) {
	update := bson.M{
		"$push": bson.M{
			"messages": bson.M{
				"$each":  turns,
				"$slice": -MaxTurns,
			},
		},
		"$set":         bson.M{"updatedAt": at},
		"$setOnInsert": bson.M{"createdAt": at},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var out mongoConversation
	err := r.collection.FindOneAndUpdate(ctx, conversationFilter(documentID, userID), update, opts).Decode(&out)
	if err != nil {
		return Conversation{}, err
	}
	return out.toConversation(), nil
}

func (r *MongoRepo) Delete(ctx context.Context, documentID, userID string) error {
	_, err := r.collection.DeleteOne(ctx, conversationFilter(documentID, userID))
	return err
}

var _ Repo = (*MongoRepo)(nil)
