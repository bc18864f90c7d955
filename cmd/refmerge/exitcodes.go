package main

// Exit codes
const (
	ExitSuccess            = 0 // Success
	ExitError              = 1 // General error (invalid arguments, runtime failure)
	ExitConfigError        = 2 // Configuration error (bad config file, unknown option)
	ExitDataError          = 3 // Data error (no records found, unknown session, bad choice)
	ExitUnresolvedConflict = 4 // Label conflicts must be resolved before merging
)
