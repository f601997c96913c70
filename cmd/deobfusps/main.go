package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/benzoXdev/deobfusps/internal/engine"
)

func main() {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		fmt.Fprintln(os.Stderr, "\n\033[33mInterrupted.\033[0m")
		os.Exit(130)
	}()

	opts, helpOnly := engine.ParseFlags()
	if helpOnly {
		os.Exit(0)
	}
	if err := engine.Run(opts); err != nil {
		fmt.Fprintf(os.Stderr, "\033[31mError:\033[0m %v\n", err)
		if hint := engine.ErrorHint(err); hint != "" {
			fmt.Fprintf(os.Stderr, "\033[90mHint:\033[0m %s\n", hint)
		}
		os.Exit(1)
	}
}
