// Package cmd implements the otx subcommands. Each command is a kong
// command struct whose Run method receives a context carrying an [Env].
package cmd

var (
	// CacheIdentifier is the kong variable holding the cache directory.
	CacheIdentifier = "cache"

	// ConfigIdentifier is the kong variable holding the configuration file
	// path. The file's settings are read from the block of the same name.
	ConfigIdentifier = "config"
)
