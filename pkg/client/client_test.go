package client_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/coldwire/coldwire/pkg/client"
	"github.com/coldwire/coldwire/pkg/server"
)

// recordingSink is a client.EventSink that records every callback for
// assertions, safe for concurrent use by the client's receive loop.
type recordingSink struct {
	mu        sync.Mutex
	presence  []string
	messages  []client.ChatEntry
	lostCount int
}

func (s *recordingSink) OnPresence(name string, online bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	state := "offline"
	if online {
		state = "online"
	}
	s.presence = append(s.presence, name+":"+state)
}

func (s *recordingSink) OnMessage(entry client.ChatEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, entry)
}

func (s *recordingSink) ConnectionLost() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lostCount++
}

func (s *recordingSink) messageCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.messages)
}

func (s *recordingSink) presenceEvents() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.presence))
	copy(out, s.presence)
	return out
}

func startTestServer(t *testing.T) (*server.Server, string) {
	t.Helper()
	opts := server.DefaultOptions()
	opts.ListenAddr = "127.0.0.1:0"
	opts.Advertise = false
	opts.HeartbeatInterval = time.Second

	srv, err := server.New(opts)
	if err != nil {
		t.Fatalf("server.New() error = %v", err)
	}
	if err := srv.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	t.Cleanup(func() { srv.Stop() })
	return srv, srv.LocalAddr().String()
}

func newTestClient(t *testing.T, serverAddr string, sink client.EventSink) *client.Client {
	t.Helper()
	opts := client.DefaultOptions()
	opts.ListenAddr = "127.0.0.1:0"
	opts.ServerAddr = serverAddr
	opts.HeartbeatInterval = 250 * time.Millisecond
	opts.ServerHeartbeatInterval = time.Second
	opts.RequestTimeout = 500 * time.Millisecond

	c, err := client.New(opts, sink)
	if err != nil {
		t.Fatalf("client.New() error = %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := c.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	t.Cleanup(func() { c.Stop() })
	return c
}

func TestRegisterAndLoginRoundTrip(t *testing.T) {
	_, addr := startTestServer(t)
	c := newTestClient(t, addr, nil)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := c.Register(ctx, "alice", []byte("s3cret")); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if err := c.Login(ctx, "alice", []byte("s3cret")); err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if got := c.Username(); got != "alice" {
		t.Fatalf("Username() = %q, want alice", got)
	}
}

func TestLoginWrongPasswordReturnsSentinel(t *testing.T) {
	_, addr := startTestServer(t)
	c := newTestClient(t, addr, nil)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := c.Register(ctx, "bob", []byte("correct")); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	err := c.Login(ctx, "bob", []byte("wrong"))
	if err != client.ErrInvalidUserOrPass {
		t.Fatalf("Login(wrong password) error = %v, want ErrInvalidUserOrPass", err)
	}
}

func TestPeersObservePresenceAndMessages(t *testing.T) {
	_, addr := startTestServer(t)

	sinkA := &recordingSink{}
	sinkB := &recordingSink{}
	a := newTestClient(t, addr, sinkA)
	b := newTestClient(t, addr, sinkB)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := a.Register(ctx, "carol", []byte("pw")); err != nil {
		t.Fatalf("Register(carol) error = %v", err)
	}
	if err := a.Login(ctx, "carol", []byte("pw")); err != nil {
		t.Fatalf("Login(carol) error = %v", err)
	}

	if err := b.Register(ctx, "dave", []byte("pw")); err != nil {
		t.Fatalf("Register(dave) error = %v", err)
	}
	if err := b.Login(ctx, "dave", []byte("pw")); err != nil {
		t.Fatalf("Login(dave) error = %v", err)
	}

	waitFor(t, func() bool {
		for _, ev := range sinkA.presenceEvents() {
			if ev == "dave:online" {
				return true
			}
		}
		return false
	})

	if err := a.Say(ctx, "hi dave", "dave"); err != nil {
		t.Fatalf("Say(direct) error = %v", err)
	}
	waitFor(t, func() bool { return sinkB.messageCount() > 0 })

	if err := b.Say(ctx, "hello everyone", ""); err != nil {
		t.Fatalf("Say(broadcast) error = %v", err)
	}
	waitFor(t, func() bool {
		for _, e := range a.GroupHistory() {
			if e.Text == "hello everyone" {
				return true
			}
		}
		return false
	})
}

func TestSayToUnknownUserFails(t *testing.T) {
	_, addr := startTestServer(t)
	c := newTestClient(t, addr, nil)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := c.Register(ctx, "erin", []byte("pw")); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if err := c.Login(ctx, "erin", []byte("pw")); err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	if err := c.Say(ctx, "hello?", "ghost"); err != client.ErrUserNotFound {
		t.Fatalf("Say(unknown target) error = %v, want ErrUserNotFound", err)
	}
}

func TestLogoutClearsUsername(t *testing.T) {
	_, addr := startTestServer(t)
	c := newTestClient(t, addr, nil)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := c.Register(ctx, "frank", []byte("pw")); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if err := c.Login(ctx, "frank", []byte("pw")); err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if err := c.Logout(ctx); err != nil {
		t.Fatalf("Logout() error = %v", err)
	}
	if got := c.Username(); got != "" {
		t.Fatalf("Username() after logout = %q, want empty", got)
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		if cond() {
			return
		}
		select {
		case <-deadline:
			t.Fatal("condition not met before deadline")
		case <-time.After(20 * time.Millisecond):
		}
	}
}
