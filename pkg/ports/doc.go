// Package ports defines the interfaces between the maitre engine and its
// external collaborators: the AI extraction service, conversation
// persistence, distributed locking, and host-side action dispatch.
//
// The engine depends only on these interfaces; adapters under pkg/adapters
// provide concrete implementations.
package ports
