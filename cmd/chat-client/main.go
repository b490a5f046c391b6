// chat-client connects to a chatroom directory server, logs in (registering
// first if needed), and relays chat messages between peers directly over
// the network, falling back to the server only for directory lookups.
//
// Usage:
//
//	chat-client -server host:port -user name -pass secret [options]
//
// Once connected, lines typed on stdin are broadcast to every online peer.
// Prefix a line with "@user " to send it directly to that user instead, and
// "/who" to refresh and print the chatroom roster.
//
// Options:
//
//	-listen  UDP listen address (default: any free port on all interfaces)
//	-server  directory server address (default: discover via mDNS)
//	-user    username
//	-pass    password
//	-register  register the account before logging in
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/pion/logging"

	"github.com/coldwire/coldwire/pkg/client"
)

type printSink struct{}

func (printSink) OnPresence(name string, online bool) {
	state := "left"
	if online {
		state = "joined"
	}
	fmt.Printf("* %s %s the chatroom\n", name, state)
}

func (printSink) OnMessage(entry client.ChatEntry) {
	if entry.Kind != client.EntryMessage {
		return
	}
	if entry.ToAll {
		fmt.Printf("[all] %s: %s\n", entry.Name, entry.Text)
		return
	}
	fmt.Printf("[dm] %s: %s\n", entry.Name, entry.Text)
}

func (printSink) ConnectionLost() {
	fmt.Println("* connection to the server was lost")
}

func main() {
	listenAddr, serverAddr, username, password, register := parseFlags()

	opts := client.DefaultOptions()
	opts.ListenAddr = listenAddr
	opts.ServerAddr = serverAddr
	opts.LoggerFactory = logging.NewDefaultLoggerFactory()

	c, err := client.New(opts, printSink{})
	if err != nil {
		log.Fatalf("failed to create client: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := c.Start(ctx); err != nil {
		log.Fatalf("failed to connect: %v", err)
	}
	defer c.Stop()

	if register {
		if err := c.Register(ctx, username, []byte(password)); err != nil {
			log.Fatalf("register: %v", err)
		}
	}
	if err := c.Login(ctx, username, []byte(password)); err != nil {
		log.Fatalf("login: %v", err)
	}
	fmt.Printf("logged in as %s on %s\n", username, c.LocalAddr())

	go readStdin(ctx, c)

	<-ctx.Done()
	fmt.Println("shutting down")
	_ = c.Logout(context.Background())
}

func readStdin(ctx context.Context, c *client.Client) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}
		line := scanner.Text()
		if line == "" {
			continue
		}
		if line == "/who" {
			if err := c.FetchChatroomStatus(ctx); err != nil {
				fmt.Printf("! who: %v\n", err)
			}
			continue
		}

		target := ""
		text := line
		if strings.HasPrefix(line, "@") {
			parts := strings.SplitN(line[1:], " ", 2)
			if len(parts) == 2 {
				target = parts[0]
				text = parts[1]
			}
		}

		if err := c.Say(ctx, text, target); err != nil {
			fmt.Printf("! send failed: %v\n", err)
		}
	}
}

func parseFlags() (listenAddr, serverAddr, username, password string, register bool) {
	flag.StringVar(&listenAddr, "listen", "", "UDP listen address")
	flag.StringVar(&serverAddr, "server", "", "directory server address (empty = discover via mDNS)")
	flag.StringVar(&username, "user", "", "username")
	flag.StringVar(&password, "pass", "", "password")
	flag.BoolVar(&register, "register", false, "register the account before logging in")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s -user name -pass secret [options]\n\nOptions:\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if username == "" || password == "" {
		flag.Usage()
		os.Exit(2)
	}
	return
}
