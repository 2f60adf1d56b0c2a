package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	veilcmd "github.com/emberfall/veil/internal/cmd/veil"
)

func main() {
	cfg, err := veilcmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatalf("parse flags: %v", err)
	}
	log.SetPrefix("[VEIL] ")
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := veilcmd.Run(ctx, cfg); err != nil {
		log.Fatalf("run failed: %v", err)
	}
}
