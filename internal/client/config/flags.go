package config

import (
	"flag"
	"io"
	"time"

	"github.com/dmitrijs2005/timereport/internal/flagx"
)

// ValuedFlags lists the flags that consume the following argument.
var ValuedFlags = []string{"-a", "-g", "-session", "-timeout", "-c", "-config"}

// parseFlags populates selected Config fields from command-line flags.
// Arguments it does not know (commands, -c) are filtered out first.
func parseFlags(cfg *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{"-a", "-g", "-session", "-timeout"})

	fs := flag.NewFlagSet("cli", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.ServerURL, "a", cfg.ServerURL, "base URL of the API")
	fs.StringVar(&cfg.HealthAddr, "g", cfg.HealthAddr, "gRPC health address")
	fs.StringVar(&cfg.SessionFile, "session", cfg.SessionFile, "session file")
	timeout := fs.Int("timeout", int(cfg.RequestTimeout.Seconds()), "request timeout (in seconds)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg.RequestTimeout = time.Duration(*timeout) * time.Second
	return nil
}
