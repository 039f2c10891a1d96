package documents

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoRepo implements Repo on a MongoDB collection.
type MongoRepo struct {
	collection *mongo.Collection
}

// NewMongoRepo wraps the documents collection.
func NewMongoRepo(collection *mongo.Collection) *MongoRepo {
	return &MongoRepo{collection: collection}
}

type mongoDocument struct {
	ID              string    `bson:"id"`
	UserID          string    `bson:"userId"`
	FileName        string    `bson:"filename"`
	Text            string    `bson:"text"`
	WordCount       int       `bson:"wordCount"`
	CharCount       int       `bson:"charCount"`
	MimeType        string    `bson:"mimeType,omitempty"`
	SizeBytes       int64     `bson:"sizeBytes"`
	StorageProvider string    `bson:"storageProvider,omitempty"`
	FilePath        string    `bson:"filePath"`
	CreatedAt       time.Time `bson:"createdAt"`
}

func toMongoDocument(doc Document) mongoDocument {
	return mongoDocument{
		ID:              doc.ID,
		UserID:          doc.UserID,
		FileName:        doc.FileName,
		Text:            doc.Text,
		WordCount:       doc.WordCount,
		CharCount:       doc.CharCount,
		MimeType:        doc.MimeType,
		SizeBytes:       doc.SizeBytes,
		StorageProvider: doc.StorageProvider,
		FilePath:        doc.StorageKey,
		CreatedAt:       doc.CreatedAt,
	}
}

func (m mongoDocument) toDocument() Document {
	return Document{
		ID:              m.ID,
		UserID:          m.UserID,
		FileName:        m.FileName,
		Text:            m.Text,
		WordCount:       m.WordCount,
		CharCount:       m.CharCount,
		MimeType:        m.MimeType,
		SizeBytes:       m.SizeBytes,
		StorageProvider: m.StorageProvider,
		StorageKey:      m.FilePath,
		CreatedAt:       m.CreatedAt,
	}
}

// EnsureIndexes creates the unique id index and the per-user listing index.
func (r *MongoRepo) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}}},
	})
	return err
}

func (r *MongoRepo) Create(ctx context.Context, doc Document) error {
	_, err := r.collection.InsertOne(ctx, toMongoDocument(doc))
	return err
}

func (r *MongoRepo) GetByID(ctx context.Context, userID, documentID string) (Document, error) {
	var out mongoDocument
	err := r.collection.FindOne(ctx, bson.M{"id": documentID, "userId": userID}).Decode(&out)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return Document{}, ErrNotFound
		}
		return Document{}, err
	}
	return out.toDocument(), nil
}

func (r *MongoRepo) ListByUser(ctx context.Context, userID string) ([]Document, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "id", Value: -1}}).
		SetProjection(bson.M{"text": 0})
	cursor, err := r.collection.Find(ctx, bson.M{"userId": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var rows []mongoDocument
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, err
	}
	out := make([]Document, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDocument())
	}
	return out, nil
}

func (r *MongoRepo) Delete(ctx context.Context, userID, documentID string) (Document, error) {
	var out mongoDocument
	err := r.collection.FindOneAndDelete(ctx, bson.M{"id": documentID, "userId": userID}).Decode(&out)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return Document{}, ErrNotFound
		}
		return Document{}, err
	}
	return out.toDocument(), nil
}

var _ Repo = (*MongoRepo)(nil)
