package email

import (
	"bufio"
	"context"
	"errors"
	"net"
	"strings"
	"sync"
	"testing"
	"time"
)

type fakeSMTPServer struct {
	listener      net.Listener
	rejectAuth    bool
	rejectRcpt    bool
	offerStartTLS bool

	mu       sync.Mutex
	commands []string
	data     string
	done     chan struct{}
}

func startFakeSMTPServer(t *testing.T, configure func(*fakeSMTPServer)) *fakeSMTPServer {
	t.Helper()
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	srv := &fakeSMTPServer{listener: listener, done: make(chan struct{})}
	if configure != nil {
		configure(srv)
	}
	t.Cleanup(func() { _ = listener.Close() })
	go srv.serveOne()
	return srv
}

func (s *fakeSMTPServer) port() int {
	return s.listener.Addr().(*net.TCPAddr).Port
}

func (s *fakeSMTPServer) serveOne() {
	defer close(s.done)
	conn, err := s.listener.Accept()
	if err != nil {
		return
	}
	defer func() { _ = conn.Close() }()
	_ = conn.SetDeadline(time.Now().Add(5 * time.Second))

	reader := bufio.NewReader(conn)
	reply := func(lines ...string) {
		for _, line := range lines {
			_, _ = conn.Write([]byte(line + "\r\n"))
		}
	}
	reply("220 localhost ESMTP fake")
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			return
		}
		line = strings.TrimRight(line, "\r\n")
		s.mu.Lock()
		s.commands = append(s.commands, line)
		s.mu.Unlock()

		verb := strings.ToUpper(strings.SplitN(line, " ", 2)[0])
		switch verb {
		case "EHLO":
			if s.offerStartTLS {
				reply("250-localhost", "250-STARTTLS", "250 AUTH PLAIN")
			} else {
				reply("250-localhost", "250 AUTH PLAIN")
			}
		case "HELO", "NOOP", "RSET":
			reply("250 ok")
		case "STARTTLS":
			reply("454 TLS not available")
		case "AUTH":
			if s.rejectAuth {
				reply("535 5.7.8 Username and Password not accepted")
			} else {
				reply("235 2.7.0 Accepted")
			}
		case "*":
			reply("501 cancelled")
		case "MAIL":
			reply("250 ok")
		case "RCPT":
			if s.rejectRcpt {
				reply("550 5.1.1 no such user")
			} else {
				reply("250 ok")
			}
		case "DATA":
			reply("354 end with <CRLF>.<CRLF>")
			var body strings.Builder
			for {
				dataLine, err := reader.ReadString('\n')
				if err != nil {
					return
				}
				if dataLine == ".\r\n" {
					break
				}
				body.WriteString(dataLine)
			}
			s.mu.Lock()
			s.data = body.String()
			s.mu.Unlock()
			reply("250 queued")
		case "QUIT":
			reply("221 bye")
			return
		default:
			reply("502 not implemented")
		}
	}
}

func (s *fakeSMTPServer) snapshot() ([]string, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.commands...), s.data
}

func newTestSender(t *testing.T, srv *fakeSMTPServer) *SMTPSender {
	t.Helper()
	sender, err := NewSMTPSender(SMTPConfig{
		Host:           "127.0.0.1",
		Port:           srv.port(),
		Username:       "reports@example.com",
		Password:       "app-password",
		Timeout:        3 * time.Second,
		AllowPlaintext: true,
	}, nil)
	if err != nil {
		t.Fatalf("NewSMTPSender() error = %v", err)
	}
	return sender
}

func testMessage() Message {
	return Message{To: "ana@example.com", ToName: "Ana", Subject: "Top artists", Body: "Iron Maiden leads with 21 albums."}
}

func TestSMTPSenderDeliversMessage(t *testing.T) {
	srv := startFakeSMTPServer(t, nil)
	sender := newTestSender(t, srv)

	if err := sender.Send(context.Background(), testMessage()); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	<-srv.done

	commands, data := srv.snapshot()
	joined := strings.Join(commands, "\n")
	for _, want := range []string{"AUTH PLAIN", "MAIL FROM:<reports@example.com>", "RCPT TO:<ana@example.com>", "DATA", "QUIT"} {
		if !strings.Contains(joined, want) {
			t.Fatalf("commands missing %q:\n%s", want, joined)
		}
	}
	for _, want := range []string{"Subject: Top artists", "<ana@example.com>", "Iron Maiden leads with 21 albums."} {
		if !strings.Contains(data, want) {
			t.Fatalf("message missing %q:\n%s", want, data)
		}
	}
}

func TestSMTPSenderMapsAuthRejection(t *testing.T) {
	srv := startFakeSMTPServer(t, func(s *fakeSMTPServer) { s.rejectAuth = true })
	sender := newTestSender(t, srv)

	err := sender.Send(context.Background(), testMessage())
	if !errors.Is(err, ErrSMTPAuthFailed) {
		t.Fatalf("Send() error = %v, want ErrSMTPAuthFailed", err)
	}
	<-srv.done
	commands, _ := srv.snapshot()
	for _, command := range commands {
		if strings.HasPrefix(command, "MAIL") {
			t.Fatal("MAIL FROM sent after auth failure")
		}
	}
}

func TestSMTPSenderMapsRecipientRejection(t *testing.T) {
	srv := startFakeSMTPServer(t, func(s *fakeSMTPServer) { s.rejectRcpt = true })
	sender := newTestSender(t, srv)

	if err := sender.Send(context.Background(), testMessage()); !errors.Is(err, ErrInvalidRecipient) {
		t.Fatalf("Send() error = %v, want ErrInvalidRecipient", err)
	}
}

func TestSMTPSenderRequiresStartTLS(t *testing.T) {
	srv := startFakeSMTPServer(t, nil)
	sender, err := NewSMTPSender(SMTPConfig{Host: "127.0.0.1", Port: srv.port(), Username: "reports@example.com", Password: "x", Timeout: 3 * time.Second}, nil)
	if err != nil {
		t.Fatalf("NewSMTPSender() error = %v", err)
	}

	if err := sender.Send(context.Background(), testMessage()); !errors.Is(err, ErrSMTPConnectionFailed) {
		t.Fatalf("Send() error = %v, want ErrSMTPConnectionFailed", err)
	}
	<-srv.done
	commands, _ := srv.snapshot()
	for _, command := range commands {
		if strings.HasPrefix(command, "AUTH") {
			t.Fatal("credentials sent over plaintext connection")
		}
	}
}

func TestSMTPSenderMapsStartTLSFailure(t *testing.T) {
	srv := startFakeSMTPServer(t, func(s *fakeSMTPServer) { s.offerStartTLS = true })
	sender := newTestSender(t, srv)

	if err := sender.Send(context.Background(), testMessage()); !errors.Is(err, ErrSMTPConnectionFailed) {
		t.Fatalf("Send() error = %v, want ErrSMTPConnectionFailed", err)
	}
}

func TestSMTPSenderMapsDialFailure(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	port := listener.Addr().(*net.TCPAddr).Port
	_ = listener.Close()

	sender, err := NewSMTPSender(SMTPConfig{Host: "127.0.0.1", Port: port, From: "reports@example.com", Timeout: time.Second}, nil)
	if err != nil {
		t.Fatalf("NewSMTPSender() error = %v", err)
	}
	if err := sender.Send(context.Background(), testMessage()); !errors.Is(err, ErrSMTPConnectionFailed) {
		t.Fatalf("Send() error = %v, want ErrSMTPConnectionFailed", err)
	}
}

func TestSMTPSenderRejectsInvalidRecipientBeforeDialing(t *testing.T) {
	sender, err := NewSMTPSender(SMTPConfig{Host: "smtp.invalid", Port: 1, From: "reports@example.com"}, nil)
	if err != nil {
		t.Fatalf("NewSMTPSender() error = %v", err)
	}
	msg := testMessage()
	msg.To = "not an address"
	if err := sender.Send(context.Background(), msg); !errors.Is(err, ErrInvalidRecipient) {
		t.Fatalf("Send() error = %v, want ErrInvalidRecipient", err)
	}
}

func TestNewSMTPSenderDefaults(t *testing.T) {
	sender, err := NewSMTPSender(SMTPConfig{Host: "smtp.gmail.com", Username: "me@gmail.com"}, nil)
	if err != nil {
		t.Fatalf("NewSMTPSender() error = %v", err)
	}
	if sender.cfg.Port != 587 || sender.cfg.From != "me@gmail.com" {
		t.Fatalf("cfg = %#v", sender.cfg)
	}
	if _, err := NewSMTPSender(SMTPConfig{}, nil); err == nil {
		t.Fatal("expected error for missing host")
	}
}
