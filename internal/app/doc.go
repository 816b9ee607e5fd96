// Package app wires the loader, expander, command builder, code staging and
// submission collaborators into the two top-level operations: launching an
// experiment and summarizing one.
package app
