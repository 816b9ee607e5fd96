// Package config defines the format-agnostic model of an experiment
// specification, along with the Loader interface for reading one from disk.
//
// The config.Model is the single source of truth for the expand, command and
// stage packages. The concrete HCL implementation lives in internal/hcl.
package config
