// Package analyzer inspects local repositories and classifies their remote
// configuration against the desired multi-push setup.
//
// Classification is a pure function of remote URLs and the resolved effective
// configuration. Analyze aggregates per-repository classifications into a
// JSON-serializable Report and never mutates a repository.
package analyzer
