// Package cmd implements the digest subcommands.
//
// Every command that needs a root scope builds it from the scope documents
// named by the global --scope flag (see [WithScopeFiles]). The "host"
// namespace is set first, so a document may shadow it.
package cmd

var (
	// CacheIdentifier is the kong variable identifier containing the path to
	// the runtime cache directory.
	CacheIdentifier = "cache"

	// ConfigIdentifier is the kong variable identifier containing the path of
	// the YAML configuration file.
	ConfigIdentifier = "config"
)
