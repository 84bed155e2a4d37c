// Package llm connects the routing resolver to a language model provider.
//
// The Invoker wraps a ports.LLMClient from dago-libs (normally built by the
// dago-adapters factory) and applies the per-call timeout from the model
// configuration.
package llm
