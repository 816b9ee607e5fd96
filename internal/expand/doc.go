// Package expand turns a hyperparameter declaration into the ordered list of
// fully-resolved runs. It implements the overlay/inheritance rule for block
// sequences, the cartesian product over list-valued keys, the boolean-flag
// and absent-value encodings, and the per-run resolution of the logdir
// placeholder variable.
//
// Expansion is a pure function of its inputs apart from name generation,
// which goes through the injected Namer. It is all-or-nothing: any malformed
// declaration fails the whole expansion before a single run is emitted.
package expand
