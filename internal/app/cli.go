package app

import "github.com/spf13/pflag"

// RegisterFlags registers all CLI flags on the given FlagSet
func RegisterFlags(flags *pflag.FlagSet) {
	flags.StringP("transport", "t", "", "Transport type: stdio or sse")
	flags.StringP("host", "H", "", "Host for SSE transport")
	flags.IntP("port", "p", 0, "Port for SSE transport")
	flags.StringP("auth-type", "a", "", "Authentication type: none, basic, or apikey")
	flags.StringP("auth-basic-username", "u", "", "Basic auth username")
	flags.StringP("auth-basic-password", "P", "", "Basic auth password")
	flags.StringSliceP("auth-api-keys", "k", nil, "API keys (comma-separated)")

	flags.Bool("docsets-enabled", false, "Enable docset indexing and search tools")
	flags.StringSliceP("docsets-sources", "s", nil, "Search-index sources: URLs or local paths (comma-separated)")
	flags.String("docsets-base-dir", "", "Base directory for cached artifacts and indexes")
	flags.Duration("docsets-refresh-interval", 0, "Interval between docset refreshes")
	flags.Duration("docsets-fetch-timeout", 0, "Timeout for fetching one artifact")
	flags.Int64("docsets-max-fetch-size", 0, "Maximum artifact size in bytes")
	flags.Int("docsets-max-results", 0, "Maximum results per search")
}
