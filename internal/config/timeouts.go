// Package config provides centralized timeout constants for the application.
//
// Model calls are the only blocking operations in the pipeline. They are
// bounded so that a slow provider degrades to the deterministic fallback
// within one request instead of stalling the dialogue.
package config

import "time"

// Model timeouts
const (
	// ModelCall bounds a single classifier or tagger request.
	// The pipeline issues at most two model calls per utterance
	// (classifier, then one tagger), so a request stays under ~2x this value.
	ModelCall = 8 * time.Second

	// RosterRefresh bounds loading a user's roster and aliases from storage.
	RosterRefresh = 5 * time.Second

	// LexiconFetch bounds downloading a lexicon bundle from object storage.
	LexiconFetch = 30 * time.Second
)

// HTTP server timeouts
const (
	// HTTPRead is the server read timeout; request bodies are small JSON.
	HTTPRead = 10 * time.Second

	// HTTPWrite covers two model calls plus serialization.
	HTTPWrite = 2*ModelCall + 5*time.Second

	// HTTPIdle is the idle timeout for keep-alive connections.
	HTTPIdle = 120 * time.Second

	// MetricsUpdate is how often gauges derived from caches are refreshed.
	MetricsUpdate = time.Minute

	// ReadinessCheck bounds the database ping behind /ready.
	ReadinessCheck = 3 * time.Second
)
