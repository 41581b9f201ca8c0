// Package topicmgr is the catalog of event bus topics.
//
// Engine topics are published by the chat store and the typing tracker:
//
//	var StateChanged = topicmgr.DefineEngine(topicmgr.TopicConfig{
//		Name:        "chat.state.changed",
//		Description: "Published after every committed store mutation",
//	})
//
// Scoped topics declare a pattern with a placeholder; publishers append the
// scope value to the name:
//
//	var Typing = topicmgr.DefineEngine(topicmgr.TopicConfig{
//		Name:        "chat.typing",
//		Pattern:     "chat.typing.{userID}",
//		Description: "Typing indicator for one participant",
//	})
//
// Definitions are normally registered through pubsub.NewEvent, which records
// the payload fields in the topic metadata so the CLI can list them.
package topicmgr
