package notifications

import (
	"bufio"
	"context"
	"net"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"
)

// smtpServer speaks just enough SMTP for one delivery without extensions.
type smtpServer struct {
	ln    net.Listener
	mu    sync.Mutex
	data  string
	rcpt  string
	conns []net.Conn
}

func startSMTPServer(t *testing.T, stall bool) *smtpServer {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	srv := &smtpServer{ln: ln}
	t.Cleanup(func() {
		_ = ln.Close()
		srv.mu.Lock()
		defer srv.mu.Unlock()
		for _, conn := range srv.conns {
			_ = conn.Close()
		}
	})

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			if stall {
				srv.mu.Lock()
				srv.conns = append(srv.conns, conn)
				srv.mu.Unlock()
				continue
			}
			go srv.serve(conn)
		}
	}()
	return srv
}

func (s *smtpServer) serve(conn net.Conn) {
	defer conn.Close()
	r := bufio.NewReader(conn)
	reply := func(line string) { _, _ = conn.Write([]byte(line + "\r\n")) }

	reply("220 mail.test ready")
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return
		}
		cmd := strings.ToUpper(strings.TrimSpace(line))
		switch {
		case strings.HasPrefix(cmd, "EHLO"), strings.HasPrefix(cmd, "HELO"):
			reply("250 mail.test")
		case strings.HasPrefix(cmd, "MAIL FROM"):
			reply("250 OK")
		case strings.HasPrefix(cmd, "RCPT TO"):
			s.mu.Lock()
			s.rcpt = strings.TrimSpace(line)
			s.mu.Unlock()
			reply("250 OK")
		case cmd == "DATA":
			reply("354 go ahead")
			var body strings.Builder
			for {
				l, err := r.ReadString('\n')
				if err != nil {
					return
				}
				if l == ".\r\n" {
					break
				}
				body.WriteString(l)
			}
			s.mu.Lock()
			s.data = body.String()
			s.mu.Unlock()
			reply("250 queued")
		case cmd == "QUIT":
			reply("221 bye")
			return
		default:
			reply("502 not implemented")
		}
	}
}

func (s *smtpServer) mailer(t *testing.T) *SMTPMailer {
	t.Helper()
	host, port, _ := net.SplitHostPort(s.ln.Addr().String())
	p, _ := strconv.Atoi(port)
	return NewSMTPMailer(host, p, "", "", "tracker@corp.test")
}

func TestSMTPMailer_Delivers(t *testing.T) {
	srv := startSMTPServer(t, false)

	err := srv.mailer(t).SendMail(context.Background(), "buyer@acme.test", "Your code", "Code: ABC123")
	if err != nil {
		t.Fatalf("send: %v", err)
	}

	srv.mu.Lock()
	defer srv.mu.Unlock()
	if !strings.Contains(srv.rcpt, "buyer@acme.test") {
		t.Errorf("unexpected recipient %q", srv.rcpt)
	}
	if !strings.Contains(srv.data, "Subject: Your code") || !strings.Contains(srv.data, "Code: ABC123") {
		t.Errorf("unexpected message %q", srv.data)
	}
}

func TestSMTPMailer_StalledServerHonorsContext(t *testing.T) {
	srv := startSMTPServer(t, true)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := srv.mailer(t).SendMail(ctx, "buyer@acme.test", "Your code", "Code: ABC123")
	if err == nil {
		t.Fatal("expected an error from a server that never answers")
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("send should give up with the context, took %s", elapsed)
	}
}

func TestSMTPMailer_DefaultTimeout(t *testing.T) {
	srv := startSMTPServer(t, true)
	m := srv.mailer(t)
	m.timeout = 100 * time.Millisecond

	start := time.Now()
	if err := m.SendMail(context.Background(), "buyer@acme.test", "Your code", "Code: ABC123"); err == nil {
		t.Fatal("expected an error from a server that never answers")
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("send should give up after its own timeout, took %s", elapsed)
	}
}
