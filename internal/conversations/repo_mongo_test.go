package conversations

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func TestMongoRepo(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	at := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)

	mt.Run("append returns updated conversation", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: bson.D{
			{Key: "documentId", Value: "doc-1"},
			{Key: "userId", Value: "user-1"},
			{Key: "messages", Value: bson.A{
				bson.D{{Key: "role", Value: "user"}, {Key: "content", Value: "q"}, {Key: "tokensUsed", Value: 0}, {Key: "createdAt", Value: at}},
				bson.D{{Key: "role", Value: "assistant"}, {Key: "content", Value: "a"}, {Key: "tokensUsed", Value: 9}, {Key: "createdAt", Value: at}},
			}},
			{Key: "createdAt", Value: at},
			{Key: "updatedAt", Value: at},
		}}))

		repo := NewMongoRepo(mt.Coll)
		conv, err := repo.Append(context.Background(), "doc-1", "user-1", []Turn{
			{Role: RoleUser, Content: "q", CreatedAt: at},
			{Role: RoleAssistant, Content: "a", TokensUsed: 9, CreatedAt: at},
		}, at)
		if err != nil {
			t.Fatalf("Append: %v", err)
		}
		if len(conv.Turns) != 2 || conv.Turns[1].Role != RoleAssistant || conv.Turns[1].TokensUsed != 9 {
			t.Fatalf("unexpected conversation: %+v", conv)
		}
	})

	mt.Run("get missing", func(mt *mtest.T) {
		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))
		repo := NewMongoRepo(mt.Coll)
		if _, err := repo.Get(context.Background(), "doc-1", "user-1"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	mt.Run("append failure surfaces", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{Code: 2, Message: "bad update", Name: "BadValue"}))
		repo := NewMongoRepo(mt.Coll)
		if _, err := repo.Append(context.Background(), "doc-1", "user-1", []Turn{{Role: RoleUser, Content: "q"}}, at); err == nil {
			t.Fatalf("expected error")
		}
	})

	mt.Run("delete", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}))
		repo := NewMongoRepo(mt.Coll)
		if err := repo.Delete(context.Background(), "doc-1", "user-1"); err != nil {
			t.Fatalf("Delete: %v", err)
		}
	})
}
