package typing

import "github.com/nfrund/mochachat/internal/pubsub"

// Event reports a change of one participant's typing state. Seq grows by one
// per published change across all participants.
type Event struct {
	UserID   string `json:"userId"`
	IsTyping bool   `json:"isTyping"`
	Seq      uint64 `json:"seq"`
}

// TopicTyping is scoped per participant: a change for user 3 is published on
// "chat.typing.3" only.
var TopicTyping = pubsub.NewEvent[Event](
	"chat.typing",
	"chat.typing.{userID}",
	"Published when a participant starts or stops typing",
)
