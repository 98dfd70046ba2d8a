/*
Package maitre is a declarative conversation state-machine engine for
WhatsApp onboarding and setup bots.

A flow is a table of state definitions: each state carries a prompt or a
structured template, an optional validator schema, an optional AI-assisted
extraction spec, a named context callback, an optional action token, and a
token-to-state transition map. The engine interprets one inbound message at
a time: it resolves the input (verbatim option token first, then AI
extraction, then the direct validator), mutates the conversation context
through the state's callback, advances along the transition map, and hands
the host the rendered outbound prompt plus at most one side effect to
execute.

The engine is stateless per call and performs no I/O of its own.
Persistence, messaging transport, and side-effect execution are host
concerns behind the interfaces in pkg/ports; pkg/adapters provides Redis
and in-memory stores and a Gemini-backed extractor, and pkg/session adds
single-writer-per-conversation turn handling.

	table, _ := flow.New(states...)
	engine, err := maitre.New(table, callbacks,
		maitre.WithExtractor(gemini),
		maitre.WithLogger(logger),
	)
	conv, prompt, _ := engine.Start(ctx, "+15550001111")
	result, err := engine.ProcessTurn(ctx, conv, "new_restaurant")
*/
package maitre
