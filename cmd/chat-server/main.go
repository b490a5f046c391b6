// chat-server runs the chatroom directory: user registration and login,
// presence tracking, and the online/offline broadcasts that let clients
// find each other.
//
// Usage:
//
//	chat-server [options]
//
// Options:
//
//	-listen     UDP listen address (default: any free port on all interfaces)
//	-heartbeat  max time a session may go without a heartbeat before it expires
//	-advertise  advertise this server over mDNS (default: true)
//
// Example:
//
//	chat-server -listen :5988
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/pion/logging"

	"github.com/coldwire/coldwire/pkg/server"
)

func main() {
	opts := parseFlags()

	loggerFactory := logging.NewDefaultLoggerFactory()
	opts.LoggerFactory = loggerFactory

	srv, err := server.New(opts)
	if err != nil {
		log.Fatalf("failed to create server: %v", err)
	}
	if err := srv.Start(); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
	defer srv.Stop()

	log.Printf("chat-server listening on %s", srv.LocalAddr())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh
	log.Print("shutting down")
}

func parseFlags() server.Options {
	defaults := server.DefaultOptions()
	opts := server.Options{}

	flag.StringVar(&opts.ListenAddr, "listen", defaults.ListenAddr, "UDP listen address")
	flag.DurationVar(&opts.HeartbeatInterval, "heartbeat", defaults.HeartbeatInterval, "max time a session may go without a heartbeat before it expires")
	flag.BoolVar(&opts.Advertise, "advertise", defaults.Advertise, "advertise this server over mDNS")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\nOptions:\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	opts.RetryLimit = defaults.RetryLimit
	opts.RequestTimeout = defaults.RequestTimeout
	if opts.HeartbeatInterval <= 0 {
		opts.HeartbeatInterval = defaults.HeartbeatInterval
	}

	return opts
}
