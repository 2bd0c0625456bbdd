// Package conversation holds the conversation list and the message send flow.
//
// # Store
//
// Store is the single owner of every conversation. Mutations (Add,
// AppendMessage, SetViewed, SetMessageStatus) take one writer lock, build a
// new immutable snapshot and publish it. Reads (List, Get) load the current
// snapshot without locking.
//
//	convs := conversation.NewStore(conversation.Options{Journal: sqlStore})
//	convs.Seed()
//
// Observers use WatchList or Watch. Both deliver the current state first and
// then every change, conflated so a slow observer skips intermediate states
// but never misses the latest one.
//
// # Unread counting
//
// A conversation's unread count grows by one for each inbound message that
// lands while it is not being viewed. SetViewed(id, true) clears it. What an
// outgoing message does depends on UnreadPolicy:
//
//   - UnreadInbound (default): the user sending resets the count to zero
//   - UnreadResetOnAppend: every append resets the count to zero
//
// # Sending
//
// Service.SendUserMessage appends the user's message, releases the store,
// asks the Responder (the AI gateway) for a reply if the conversation is
// AI-backed, and appends the reply in a second mutation. Unknown
// conversation IDs are ignored rather than reported.
//
// # Journal
//
// When a Journal is configured each committed change is also written to it
// (SQLite in production). Journal failures are logged and never affect the
// in-memory state. Restore rebuilds the store from a journal at startup.
package conversation
