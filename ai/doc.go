// Package ai defines the text-generation capability used by trendline.
//
// Callers build a Prompt whose trend facts live in typed fields apart from
// the conversation, and hand it to a Generator:
//
//	provider, err := openai.NewProvider(ai.NewConfig(ai.WithModel("gpt-4o-mini")))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	text, err := provider.Generator().Complete(ctx, ai.Prompt{
//	    Task:    "chat",
//	    Anchors: []ai.TrendFacts{ai.FactsOf(trend)},
//	    Message: "Will this last into next season?",
//	})
//
// Generator failures are *core.GenerationError values carrying a kind
// (rate_limited, timeout, invalid_input, unavailable) so callers can decide
// how to degrade.
//
// Implementations live in ai/openai (OpenAI-compatible APIs via langchaingo)
// and ai/mock (deterministic test double).
package ai
