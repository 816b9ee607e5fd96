// Package hcl implements config.Loader for HCL documents. It parses the
// global config and the experiment file, merges them key-wise (the
// experiment wins), dereferences the selected farm_config, and translates
// everything into the format-agnostic config.Model.
package hcl
