// Package orchestrator wires the loader → parser → model builder → renderer
// pipeline for the registration form. The built form model is cached; every
// request receives its own copy.
package orchestrator
