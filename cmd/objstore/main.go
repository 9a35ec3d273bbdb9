// Command objstore manages documents in an objstore database from the shell.
package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/arllen133/objstore/internal/cli"
	_ "github.com/mattn/go-sqlite3"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := cli.NewRootCommand().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
