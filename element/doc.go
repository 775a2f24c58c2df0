// Package element provides the concrete node kinds of audiomesh. Each kind is
// a module.Element (or module.ScheduledSource for one-shot sources) configured
// with a module.ElementSpec that knows how to build the native node and which
// attributes are automatable params, plain properties or construction-only
// options.
//
// Automatable params accept any automation value understood by
// module.ApplyParameterization.
package element
