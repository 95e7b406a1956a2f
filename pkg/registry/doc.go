// Package registry stores versioned prompt templates for experiments.
//
// Versions are registered under a (prompt, version) pair and rendered by
// substituting {{variable}} placeholders from a value map. Rendering is
// strict: a placeholder with no value is a typed error naming the
// variable, so broken experiment variants fail loudly instead of
// shipping a prompt with a literal "{{user_query}}" in it.
package registry
