// Package chat implements trend-grounded conversations.
//
// A Store keeps one ChatContext per session and supports create, reset and
// expire. Resetting a session cancels any request still running for it and
// discards that request's result.
//
// An Assembler turns a session, its anchor trends and a new message into an
// ai.Prompt with bounded history: oldest turns are evicted first and anchor
// trends are never evicted. Service ties the two to a generator and the
// trend index.
package chat
