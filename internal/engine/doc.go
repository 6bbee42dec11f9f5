// Package engine decides what to cherry-pick, in what order, and how to recover
// when an apply step fails.
//
// It is the core of smartpick, responsible for:
//   - Building a dependency graph over the requested commits and any
//     prerequisites discovered through file history
//   - Scheduling the graph into a deterministic Plan
//   - Classifying and, where possible, resolving conflicts
//   - Driving the apply loop and checkpointing a resumable Session after every commit
//
// The engine never runs git itself. Commit metadata comes from a
// MetadataProvider, working tree changes go through an ApplyGateway, and
// sessions are persisted by a SessionStore.
package engine
