package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/timereport/internal/client/cli"
	"github.com/dmitrijs2005/timereport/internal/client/config"
	"github.com/dmitrijs2005/timereport/internal/flagx"
)

func main() {
	cfg, err := config.LoadConfig(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := cli.NewApp(cfg).Run(ctx, flagx.CommandArgs(os.Args[1:], config.ValuedFlags))
	stop()
	os.Exit(code)
}
