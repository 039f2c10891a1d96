package conversations

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGetOrCreateReturnsEmptyConversation(t *testing.T) {
	svc := NewService(NewMemoryRepo())

	conv, err := svc.GetOrCreate(context.Background(), "doc-1", "user-1")
	require.NoError(t, err)
	require.Equal(t, "doc-1", conv.DocumentID)
	require.Empty(t, conv.Turns)
	require.NotNil(t, conv.Turns)
}

func TestAppendTurnRecordsPairInOrder(t *testing.T) {
	svc := NewService(NewMemoryRepo())

	conv, err := svc.AppendTurn(context.Background(), "doc-1", "user-1", "What is it?", "A report.", 42)
	require.NoError(t, err)
	require.Len(t, conv.Turns, 2)
	require.Equal(t, RoleUser, conv.Turns[0].Role)
	require.Equal(t, 0, conv.Turns[0].TokensUsed)
	require.Equal(t, RoleAssistant, conv.Turns[1].Role)
	require.Equal(t, 42, conv.Turns[1].TokensUsed)
	require.Equal(t, "A report.", conv.Turns[1].Content)
}

func TestAppendTurnTrimsOldestFirst(t *testing.T) {
	svc := NewService(NewMemoryRepo())
	ctx := context.Background()

	for i := 0; i < 12; i++ {
		_, err := svc.AppendTurn(ctx, "doc-1", "user-1", fmt.Sprintf("q%d", i), fmt.Sprintf("a%d", i), i)
		require.NoError(t, err)
	}

	turns, err := svc.History(ctx, "doc-1", "user-1")
	require.NoError(t, err)
	require.Len(t, turns, MaxTurns)
	require.Equal(t, "q2", turns[0].Content)
	require.Equal(t, "a11", turns[len(turns)-1].Content)
	for i, turn := range turns {
		want := RoleUser
		if i%2 == 1 {
			want = RoleAssistant
		}
		require.Equal(t, want, turn.Role, "turn %d", i)
	}
}

func TestConcurrentAppendsStayBounded(t *testing.T) {
	svc := NewService(NewMemoryRepo())
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 30; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _ = svc.AppendTurn(ctx, "doc-1", "user-1", fmt.Sprintf("q%d", i), fmt.Sprintf("a%d", i), 1)
		}(i)
	}
	wg.Wait()

	turns, err := svc.History(ctx, "doc-1", "user-1")
	require.NoError(t, err)
	require.Len(t, turns, MaxTurns)
	for i := 0; i < len(turns); i += 2 {
		require.Equal(t, RoleUser, turns[i].Role)
		require.Equal(t, "a"+turns[i].Content[1:], turns[i+1].Content)
	}
}

func TestClearThenHistoryIsEmpty(t *testing.T) {
	svc := NewService(NewMemoryRepo())
	ctx := context.Background()

	_, err := svc.AppendTurn(ctx, "doc-1", "user-1", "q", "a", 3)
	require.NoError(t, err)
	require.NoError(t, svc.Clear(ctx, "doc-1", "user-1"))
	require.NoError(t, svc.Clear(ctx, "doc-1", "user-1"))

	turns, err := svc.History(ctx, "doc-1", "user-1")
	require.NoError(t, err)
	require.Empty(t, turns)
}

func TestConversationsAreScopedByUser(t *testing.T) {
	svc := NewService(NewMemoryRepo())
	ctx := context.Background()

	_, err := svc.AppendTurn(ctx, "doc-1", "user-1", "q", "a", 3)
	require.NoError(t, err)

	turns, err := svc.History(ctx, "doc-1", "user-2")
	require.NoError(t, err)
	require.Empty(t, turns)
}

func TestRoleValid(t *testing.T) {
	require.True(t, RoleUser.Valid())
	require.True(t, RoleAssistant.Valid())
	require.False(t, Role("system").Valid())
}
