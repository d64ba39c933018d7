package cli

import (
	"os"
	"strings"
)

// applyGlobalFlags reads --verbose and --config from os.Args. The container
// has to be built before cobra parses flags, so these two are peeked early.
func applyGlobalFlags(opts Options) Options {
	return parseGlobalFlags(os.Args[1:], opts)
}

func parseGlobalFlags(args []string, opts Options) Options {
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "--":
			return opts
		case arg == "-v" || arg == "--verbose" || arg == "--verbose=true":
			opts.Verbose = true
		case arg == "--verbose=false":
			opts.Verbose = false
		case arg == "--config" && i+1 < len(args):
			opts.ConfigPath = args[i+1]
			i++
		case strings.HasPrefix(arg, "--config="):
			opts.ConfigPath = strings.TrimPrefix(arg, "--config=")
		}
	}
	return opts
}
