package main

// Flag names for Viper binding
const (
	// Global flags
	FlagVerbose = "verbose"
	FlagConfig  = "config"
	FlagLogFile = "log-file"

	// Container flags, describing a single diagram from the command line
	FlagDataURI     = "data-uri"
	FlagPrefsURI    = "prefs-uri"
	FlagName        = "name"
	FlagDOMWait     = "dom-wait"
	FlagMaxJobs     = "max-jobs"
	FlagVerifyToken = "verify-token"

	// Transport flags
	FlagTimeout = "timeout"

	// Graph flags
	FlagDensity  = "density"
	FlagMaxLabel = "max-label"

	// View command flags
	FlagRefresh = "refresh"

	// Render command flags
	FlagFormat = "format"
	FlagExpand = "expand"
	FlagWidth  = "width"
)

// Render output formats.
const (
	FormatText = "text"
	FormatSVG  = "svg"
)
