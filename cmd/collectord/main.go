// Command collectord runs the telemetry collector daemon: it binds
// the UDP ingress, embeds PocketBase as the relational store, and
// serves the PocketBase admin UI/API alongside it.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"telemetry-collector/internal/collectorapp"
)

var (
	version = "dev"
)

func main() {
	// The first SIGINT/SIGTERM runs PocketBase's graceful shutdown (the
	// OnTerminate hooks); a second one forces an immediate exit.
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		<-sigCh
		fmt.Fprintln(os.Stderr, "second signal received, forcing exit")
		os.Exit(1)
	}()

	app, err := collectorapp.New(version)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to build application:", err)
		os.Exit(1)
	}

	if err := app.Bootstrap(); err != nil {
		fmt.Fprintln(os.Stderr, "failed to bootstrap application:", err)
		os.Exit(1)
	}

	if err := app.Start(); err != nil {
		fmt.Fprintln(os.Stderr, "collectord exited with error:", err)
		os.Exit(1)
	}
}
