// Package errors defines the structured error taxonomy for the host module
// binding pattern.
//
// Three error classes exist:
//
//   - Link errors (PhaseLink): a guest import could not be resolved, or its
//     declared type differs from the exported binding's type. Detected before
//     execution starts; fatal to the link attempt, not to the process.
//   - Traps (PhaseCall): a native function's runtime failure, surfaced to the
//     guest as a non-continuable trap for that call.
//   - Construction errors (PhaseConstruct): authoring defects such as a
//     declared signature that does not match the native callable. These are
//     returned when the module is built and should be treated as fatal by the
//     embedder; they never occur at call time.
//
// Every error carries a Phase and a Kind; errors.Is matches on that pair, so
// callers can test for a class without string comparison:
//
//	if errors.Is(err, &errors.Error{Phase: errors.PhaseLink, Kind: errors.KindSignatureMismatch}) {
//	    ...
//	}
package errors
