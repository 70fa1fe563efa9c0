package providers

import "time"

const (
	// shutdownTimeout is the maximum time to wait for graceful shutdown of services.
	shutdownTimeout = 30 * time.Second

	// badgerGCInterval is how often the badger value log is garbage collected.
	badgerGCInterval = 10 * time.Minute
)

// Version is the server version reported in response envelopes and error reports.
// It is overridden at build time with -ldflags "-X ...providers.Version=...".
var Version = "1.0.0"
