// Package graph assembles modules into an object graph and injects through
// it.
//
// Assembly merges the bindings of every module. Bindings of override modules
// replace same-key bindings of ordinary modules; two bindings for one key in
// the same kind of module are a configuration error. An eager graph links
// everything while it is assembled, so missing bindings and dependency cycles
// fail Assemble. A lazy graph links on first use:
//
//	g, err := graph.GetLazy(AppModule{})
//	if err != nil {
//		return err
//	}
//	if err := g.DetectProblems(); err != nil {
//		return err // every problem at once
//	}
//	app := &App{}
//	if err := g.Inject(app); err != nil {
//		return err
//	}
//
// Only types some module declared as entry points can be injected.
//
// A Graph is NOT safe for concurrent use while it links. Once an eager graph
// is assembled, resolving values from it concurrently is safe.
package graph
