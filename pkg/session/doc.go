// Package session coordinates concurrent access to conversations.
//
// The engine itself is stateless; this package adds the
// single-writer-per-conversation discipline around it: one turn at a time
// per conversation, with reference-counted in-process locks and optional
// distributed locking for multi-replica deployments.
package session
