// Package linker owns the key to binding table of one object graph.
//
// Bindings are installed in batches; later installs replace earlier ones for
// the same key, which is how override modules win. Requests for keys without
// a binding are queued and satisfied by the next link pass, which synthesizes
// bindings for injectable structs and for Provider/MembersInjector handles.
//
// # Link passes
//
//   - RequestBinding returns the binding for a key, or nil and queues the key.
//   - LinkRequested drains the queue, attaching every queued binding to its
//     dependencies until all of them are linked or known to be unresolvable.
//   - LinkAll queues every unlinked binding and runs LinkRequested.
//
// Errors found during a pass are aggregated, so one pass reports every
// unresolved key rather than the first.
//
// # Thread Safety
//
// Linker is NOT safe for concurrent use.
package linker
