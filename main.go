package main

import (
	"fmt"
	"os"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/cloud66-oss/ipgeo/cmd"
)

const sentryFlushTimeout = 2 * time.Second

func main() {
	err := cmd.Execute()

	// buffered events must be sent before os.Exit skips deferred calls
	sentry.Flush(sentryFlushTimeout)

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
