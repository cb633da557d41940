// Package services implements the driving port interfaces.
// Services contain the analysis logic and orchestrate
// calls to driven ports (adapters).
//
// The central pieces are the ServiceRegistry, the prompt builder, the
// response parser and the AnalyzerService that ties them together. All
// LLM traffic goes through ReliableLLM, which adds rate limiting,
// retries and response caching in front of a provider adapter.
package services
