// Package objectgraph is a reflection-driven dependency injection runtime.
//
// Modules declare what a program is made of; a graph links those
// declarations and injects the tagged fields of the structs that need them:
//
//   - inject:   Provider, MembersInjector, scope markers and the inject tag
//   - keys:     the canonical identity of everything a graph resolves
//   - binding:  how one key is produced (provider functions, struct fields,
//     instances, singletons)
//   - linker:   resolves bindings against each other, synthesizing bindings
//     for injectable structs nobody declared
//   - statics:  injection into package-level variables
//   - problems: reports everything wrong with a graph at once
//   - module:   the declaration API and YAML-backed registries
//   - graph:    assembles modules, links eagerly or lazily, injects
//   - config:   options, their YAML/env loading and the zap logger
//
// Wiring stays explicit: only declared entry points can be injected, and
// overriding a binding takes a module that says it overrides.
//
// A runnable end-to-end wiring lives in examples/coffee.
package objectgraph
