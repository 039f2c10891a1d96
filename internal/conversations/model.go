package conversations

import "time"

// MaxTurns bounds the turns kept per conversation; older turns drop first.
const MaxTurns = 20

// Role identifies who produced a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

// Turn is one message in a conversation.
type Turn struct {
	Role       Role      `json:"role" bson:"role"`
	Content    string    `json:"content" bson:"content"`
	TokensUsed int       `json:"tokensUsed" bson:"tokensUsed"`
	CreatedAt  time.Time `json:"createdAt" bson:"createdAt"`
}

// Conversation is the ordered turn history of one user about one document.
type Conversation struct {
	DocumentID string
	UserID     string
	Turns      []Turn
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// trimTurns keeps the newest MaxTurns entries in their original order.
func trimTurns(turns []Turn) []Turn {
	if len(turns) <= MaxTurns {
		return turns
	}
	out := make([]Turn, MaxTurns)
	copy(out, turns[len(turns)-MaxTurns:])
	return out
}
