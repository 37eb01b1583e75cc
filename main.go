package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"monaco_verification/presentation/terminal"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := terminal.NewTerminalInterface().Run(ctx, os.Args[1:])
	stop()
	os.Exit(code)
}
