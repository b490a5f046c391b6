package server

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/coldwire/coldwire/pkg/crypto"
	"github.com/coldwire/coldwire/pkg/requestmux"
	"github.com/coldwire/coldwire/pkg/securechannel"
	"github.com/coldwire/coldwire/pkg/transport"
	"github.com/coldwire/coldwire/pkg/wire"
	"github.com/coldwire/coldwire/pkg/wirecodec"
)

// newForTest builds a Server over a pre-connected net.PacketConn (an
// in-memory transport.PipeFactory connection in these tests) instead of
// binding a real socket.
func newForTest(opts Options, conn net.PacketConn) (*Server, error) {
	return newWithConn(opts, conn)
}

// fakeClient is a minimal hand-rolled RequestMux peer standing in for
// pkg/client, so the server's command handling can be exercised without a
// real socket.
type fakeClient struct {
	udp     *transport.UDP
	channel *securechannel.Channel
	mux     *requestmux.Mux
}

func newServerUnderTest(t *testing.T, heartbeat time.Duration) (*Server, *fakeClient, transport.PeerAddress) {
	t.Helper()

	facServer, facClient := transport.NewPipeFactoryPair()
	serverConn, err := facServer.CreateUDPConn(0)
	if err != nil {
		t.Fatalf("CreateUDPConn(server) error = %v", err)
	}
	clientConn, err := facClient.CreateUDPConn(0)
	if err != nil {
		t.Fatalf("CreateUDPConn(client) error = %v", err)
	}

	opts := DefaultOptions()
	opts.Advertise = false
	opts.HeartbeatInterval = heartbeat
	opts.RequestTimeout = 200 * time.Millisecond
	opts.RetryLimit = 1

	srv, err := newForTest(opts, serverConn)
	if err != nil {
		t.Fatalf("newForTest() error = %v", err)
	}
	if err := srv.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	t.Cleanup(func() { srv.Stop() })

	client := &fakeClient{}
	udp, err := transport.NewUDP(transport.UDPConfig{
		Conn:           clientConn,
		MessageHandler: func(msg *transport.ReceivedMessage) { client.channel.HandleRaw(msg) },
	})
	if err != nil {
		t.Fatalf("NewUDP(client) error = %v", err)
	}
	client.udp = udp

	keyPair, err := crypto.GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair() error = %v", err)
	}
	client.channel = securechannel.New(securechannel.Config{
		Sender:       udp,
		KeyPair:      keyPair,
		PlainHandler: func(data []byte, peer transport.PeerAddress) { client.mux.HandlePlain(data, peer) },
	})
	client.mux = requestmux.New(client.channel, requestmux.Config{
		RetryLimit:     opts.RetryLimit,
		RequestTimeout: opts.RequestTimeout,
	})

	if err := udp.Start(); err != nil {
		t.Fatalf("Start(client) error = %v", err)
	}
	t.Cleanup(func() { udp.Stop() })

	serverAddr := transport.NewUDPPeerAddress(srv.udp.LocalAddr())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := client.channel.ExchangeKeyWith(ctx, serverAddr); err != nil {
		t.Fatalf("ExchangeKeyWith() error = %v", err)
	}

	return srv, client, serverAddr
}

func (c *fakeClient) request(t *testing.T, server transport.PeerAddress, cmd wire.Command) wire.Response {
	t.Helper()
	w := wirecodec.NewWriter()
	cmd.Encode(w)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	raw, err := c.mux.Request(ctx, w.Bytes(), server)
	if err != nil {
		t.Fatalf("Request(%v) error = %v", cmd.Kind, err)
	}
	resp, err := wire.DecodeResponse(wirecodec.NewReader(raw))
	if err != nil {
		t.Fatalf("DecodeResponse() error = %v", err)
	}
	return resp
}

func TestRegisterThenLoginSucceeds(t *testing.T) {
	srv, client, serverAddr := newServerUnderTest(t, time.Second)
	_ = srv

	resp := client.request(t, serverAddr, wire.Command{Kind: wire.CommandRegister, Username: "alice", Password: []byte("hunter2-hash-stand-in")})
	if !resp.Ok {
		t.Fatalf("Register() = %+v, want Ok", resp)
	}

	resp = client.request(t, serverAddr, wire.Command{Kind: wire.CommandLogin, Username: "alice", Password: []byte("hunter2-hash-stand-in")})
	if !resp.Ok {
		t.Fatalf("Login() = %+v, want Ok", resp)
	}
	if resp.Data.Kind != wire.ResponseDataChatroomStatus {
		t.Fatalf("Login() data kind = %v, want ChatroomStatus", resp.Data.Kind)
	}
	if len(resp.Data.Users) != 1 || resp.Data.Users[0].Name != "alice" {
		t.Fatalf("Login() users = %+v, want one entry for alice", resp.Data.Users)
	}
	if resp.Data.Users[0].Online == nil {
		t.Fatal("alice should be online in her own login snapshot")
	}
}

func TestRegisterDuplicateUsernameFails(t *testing.T) {
	_, client, serverAddr := newServerUnderTest(t, time.Second)

	client.request(t, serverAddr, wire.Command{Kind: wire.CommandRegister, Username: "bob", Password: []byte("pw")})
	resp := client.request(t, serverAddr, wire.Command{Kind: wire.CommandRegister, Username: "bob", Password: []byte("pw2")})
	if resp.Ok || resp.Err != wire.ErrCodeUserExisted {
		t.Fatalf("second Register() = %+v, want Err(UserExisted)", resp)
	}
}

func TestLoginWrongPasswordFails(t *testing.T) {
	_, client, serverAddr := newServerUnderTest(t, time.Second)

	client.request(t, serverAddr, wire.Command{Kind: wire.CommandRegister, Username: "carol", Password: []byte("correct")})
	resp := client.request(t, serverAddr, wire.Command{Kind: wire.CommandLogin, Username: "carol", Password: []byte("wrong")})
	if resp.Ok || resp.Err != wire.ErrCodeInvalidUserOrPass {
		t.Fatalf("Login(wrong password) = %+v, want Err(InvalidUserOrPass)", resp)
	}

	resp = client.request(t, serverAddr, wire.Command{Kind: wire.CommandLogin, Username: "carol", Password: []byte("correct")})
	if !resp.Ok {
		t.Fatalf("Login(correct password) = %+v, want Ok", resp)
	}
}

func TestGetChatroomStatusRequiresLogin(t *testing.T) {
	_, client, serverAddr := newServerUnderTest(t, time.Second)

	resp := client.request(t, serverAddr, wire.Command{Kind: wire.CommandGetChatroomStatus})
	if resp.Ok || resp.Err != wire.ErrCodeLoginRequired {
		t.Fatalf("GetChatroomStatus() before login = %+v, want Err(LoginRequired)", resp)
	}
}

func TestHeartbeatExpiryClearsSession(t *testing.T) {
	srv, client, serverAddr := newServerUnderTest(t, 80*time.Millisecond)

	client.request(t, serverAddr, wire.Command{Kind: wire.CommandRegister, Username: "dave", Password: []byte("pw")})
	client.request(t, serverAddr, wire.Command{Kind: wire.CommandLogin, Username: "dave", Password: []byte("pw")})

	deadline := time.After(time.Second)
	for {
		srv.usersMu.RLock()
		online := srv.users["dave"].Online != nil
		srv.usersMu.RUnlock()
		if !online {
			break
		}
		select {
		case <-deadline:
			t.Fatal("dave's session never expired")
		case <-time.After(10 * time.Millisecond):
		}
	}

	srv.addrMu.RLock()
	_, stillBound := srv.addr2user[transport.NewUDPPeerAddress(client.udp.LocalAddr()).Key()]
	srv.addrMu.RUnlock()
	if stillBound {
		t.Error("addr2user still bound after expiry")
	}
}

func TestHeartbeatKeepsSessionAlive(t *testing.T) {
	srv, client, serverAddr := newServerUnderTest(t, 120*time.Millisecond)

	client.request(t, serverAddr, wire.Command{Kind: wire.CommandRegister, Username: "erin", Password: []byte("pw")})
	client.request(t, serverAddr, wire.Command{Kind: wire.CommandLogin, Username: "erin", Password: []byte("pw")})

	for i := 0; i < 3; i++ {
		time.Sleep(60 * time.Millisecond)
		if err := client.mux.Notify(heartbeatBody(t), serverAddr); err != nil {
			t.Fatalf("heartbeat Notify() error = %v", err)
		}
	}

	srv.usersMu.RLock()
	online := srv.users["erin"].Online != nil
	srv.usersMu.RUnlock()
	if !online {
		t.Error("erin's session expired despite heartbeats")
	}
}

func TestLogoutClearsSession(t *testing.T) {
	srv, client, serverAddr := newServerUnderTest(t, time.Second)

	client.request(t, serverAddr, wire.Command{Kind: wire.CommandRegister, Username: "frank", Password: []byte("pw")})
	client.request(t, serverAddr, wire.Command{Kind: wire.CommandLogin, Username: "frank", Password: []byte("pw")})

	resp := client.request(t, serverAddr, wire.Command{Kind: wire.CommandLogout})
	if !resp.Ok {
		t.Fatalf("Logout() = %+v, want Ok", resp)
	}

	srv.usersMu.RLock()
	online := srv.users["frank"].Online != nil
	srv.usersMu.RUnlock()
	if online {
		t.Error("frank still online after logout")
	}
}

func heartbeatBody(t *testing.T) []byte {
	t.Helper()
	w := wirecodec.NewWriter()
	wire.Command{Kind: wire.CommandHeartbeat}.Encode(w)
	return w.Bytes()
}
