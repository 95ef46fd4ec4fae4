package main

// Flag structs to decouple cobra from logic for testing.

// GlobalFlags holds the persistent flags shared by every command.
type GlobalFlags struct {
	ConfigPath string
}

// LogsFlags holds flags and positionals for the logs command.
type LogsFlags struct {
	Service string
	Lines   int
	Follow  bool
}

// ServeFlags holds flags for the serve command.
type ServeFlags struct {
	Addr string
}

// HistoryFlags holds flags for the history command.
type HistoryFlags struct {
	Service string
	Limit   int
}
