// Package trace records what the typecode dispatcher does: slow-path
// resolutions, cache misses, uncached fallbacks and fast-table fills.
//
// # Levels
//
//   - LevelOff: No tracing
//   - LevelError: Only ring-buffer dumps after a failure
//   - LevelPhase: Dispatcher lifecycle and slow-path resolutions
//   - LevelDetail: Cache misses, table fills and uncached fallbacks
//   - LevelDebug: Every lookup, including hits
//
// # Scopes
//
//   - ScopeDispatch: Dispatcher setup and replay runs
//   - ScopeResolve: Calls into the slow-path resolver
//   - ScopeCache: Fingerprint cache and fast-table traffic
//   - ScopeLookup: Individual lookups
//
// # Context Propagation
//
//	ctx = trace.WithTracer(ctx, tracer)
//	t := trace.FromContext(ctx)
//
//	span := trace.Begin(t, trace.ScopeResolve, "resolve", parentID)
//	defer span.End("")
package trace
