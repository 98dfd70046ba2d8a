/*
Package domain contains the core domain models for the maitre engine.

It defines the fundamental entities of the conversation state machine:
state definitions, templates, the per-conversation snapshot, and the turn
result handed back to the host. This package is kept pure and free of
external dependencies like I/O or persistence, following Hexagonal
Architecture principles.

# Key Entities

  - State: one step of a flow. Prompt or template, validation declaration,
    named callback, optional action token, and a token-to-state map.
  - Conversation: the runtime snapshot of a participant (current state,
    accumulated context, history).
  - TurnResult: what one inbound message produced. The updated snapshot,
    the rendered outbound prompt, and at most one ActionRequest for the
    host to execute.
*/
package domain
