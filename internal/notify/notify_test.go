package notify

import (
	"bufio"
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// SMTP
// ============================================================================

// fakeSMTP accepts one session and records the envelope and data
type fakeSMTP struct {
	ln   net.Listener
	mu   sync.Mutex
	from string
	rcpt []string
	data string
	done chan struct{}
}

func startFakeSMTP(t *testing.T) *fakeSMTP {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	f := &fakeSMTP{ln: ln, done: make(chan struct{})}
	t.Cleanup(func() { _ = ln.Close() })
	go f.serve()
	return f
}

func (f *fakeSMTP) port() int {
	return f.ln.Addr().(*net.TCPAddr).Port
}

func (f *fakeSMTP) serve() {
	defer close(f.done)
	conn, err := f.ln.Accept()
	if err != nil {
		return
	}
	defer func() { _ = conn.Close() }()

	r := bufio.NewReader(conn)
	reply := func(s string) { _, _ = conn.Write([]byte(s + "\r\n")) }
	reply("220 localhost ESMTP")

	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return
		}
		cmd := strings.TrimRight(line, "\r\n")
		upper := strings.ToUpper(cmd)
		switch {
		case strings.HasPrefix(upper, "EHLO"), strings.HasPrefix(upper, "HELO"):
			reply("250 localhost")
		case strings.HasPrefix(upper, "MAIL FROM:"):
			f.mu.Lock()
			f.from = angleAddr(cmd)
			f.mu.Unlock()
			reply("250 OK")
		case strings.HasPrefix(upper, "RCPT TO:"):
			f.mu.Lock()
			f.rcpt = append(f.rcpt, angleAddr(cmd))
			f.mu.Unlock()
			reply("250 OK")
		case upper == "DATA":
			reply("354 end with .")
			var b strings.Builder
			for {
				l, err := r.ReadString('\n')
				if err != nil {
					return
				}
				if l == ".\r\n" {
					break
				}
				b.WriteString(l)
			}
			f.mu.Lock()
			f.data = b.String()
			f.mu.Unlock()
			reply("250 queued")
		case upper == "QUIT":
			reply("221 bye")
			return
		default:
			reply("250 OK")
		}
	}
}

func angleAddr(cmd string) string {
	start, end := strings.Index(cmd, "<"), strings.Index(cmd, ">")
	if start < 0 || end < start {
		return ""
	}
	return cmd[start+1 : end]
}

func TestSMTPSender_Send(t *testing.T) {
	t.Parallel()
	srv := startFakeSMTP(t)

	sender, err := NewSMTPSender(SMTPConfig{
		Host:    "127.0.0.1",
		Port:    srv.port(),
		From:    "office@kinship.example",
		Timeout: 5 * time.Second,
	})
	require.NoError(t, err)

	err = sender.Send(context.Background(), "ada@example.org", "Picnic moved", "Now at the north field.\nBring hats.")
	require.NoError(t, err)

	select {
	case <-srv.done:
	case <-time.After(5 * time.Second):
		t.Fatal("smtp session did not finish")
	}

	srv.mu.Lock()
	defer srv.mu.Unlock()
	assert.Equal(t, "office@kinship.example", srv.from)
	assert.Equal(t, []string{"ada@example.org"}, srv.rcpt)
	assert.Contains(t, srv.data, "Subject: Picnic moved\r\n")
	assert.Contains(t, srv.data, "To: ada@example.org\r\n")
	assert.Contains(t, srv.data, "Now at the north field.\r\nBring hats.")
}

func TestSMTPSender_RequiresStartTLS(t *testing.T) {
	t.Parallel()
	srv := startFakeSMTP(t)

	sender, err := NewSMTPSender(SMTPConfig{
		Host:     "127.0.0.1",
		Port:     srv.port(),
		From:     "office@kinship.example",
		StartTLS: true,
	})
	require.NoError(t, err)

	err = sender.Send(context.Background(), "ada@example.org", "Hi", "Body")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "STARTTLS")
}

func TestSMTPSender_DialFailure(t *testing.T) {
	t.Parallel()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())

	sender, err := NewSMTPSender(SMTPConfig{Host: "127.0.0.1", Port: port, From: "office@kinship.example", Timeout: time.Second})
	require.NoError(t, err)

	err = sender.Send(context.Background(), "ada@example.org", "Hi", "Body")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dial error")
}

func TestNewSMTPSender_Validation(t *testing.T) {
	t.Parallel()

	_, err := NewSMTPSender(SMTPConfig{From: "office@kinship.example"})
	assert.Error(t, err)
	_, err = NewSMTPSender(SMTPConfig{Host: "smtp.example.org"})
	assert.Error(t, err)

	s, err := NewSMTPSender(SMTPConfig{Host: "smtp.example.org", From: "office@kinship.example"})
	require.NoError(t, err)
	assert.Equal(t, 587, s.cfg.Port)
	assert.Nil(t, s.auth)
}

func TestSMTPSender_EncodesSubject(t *testing.T) {
	t.Parallel()

	s, err := NewSMTPSender(SMTPConfig{Host: "smtp.example.org", From: "office@kinship.example"})
	require.NoError(t, err)

	msg := s.buildMessage("ada@example.org", "Fête de l'été", "Body")
	assert.Contains(t, msg, "Subject: =?utf-8?q?")
	assert.True(t, strings.HasSuffix(msg, "\r\n\r\nBody"))
}

// ============================================================================
// Twilio
// ============================================================================

func TestTwilioSender_Send(t *testing.T) {
	t.Parallel()

	var gotPath, gotUser, gotPass string
	var gotForm map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotUser, gotPass, _ = r.BasicAuth()
		_ = r.ParseForm()
		gotForm = map[string]string{
			"To":   r.PostForm.Get("To"),
			"From": r.PostForm.Get("From"),
			"Body": r.PostForm.Get("Body"),
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"sid":"SM123","status":"queued"}`))
	}))
	defer srv.Close()

	sender, err := NewTwilioSender(TwilioConfig{
		AccountSID: "AC123",
		AuthToken:  "token",
		From:       "+15550100000",
		BaseURL:    srv.URL,
	})
	require.NoError(t, err)

	require.NoError(t, sender.Send(context.Background(), "+15550102000", "Picnic moved"))
	assert.Equal(t, "/2010-04-01/Accounts/AC123/Messages.json", gotPath)
	assert.Equal(t, "AC123", gotUser)
	assert.Equal(t, "token", gotPass)
	assert.Equal(t, map[string]string{"To": "+15550102000", "From": "+15550100000", "Body": "Picnic moved"}, gotForm)
}

func TestTwilioSender_APIError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"status":400,"code":21211,"message":"The 'To' number is not a valid phone number."}`))
	}))
	defer srv.Close()

	sender, err := NewTwilioSender(TwilioConfig{AccountSID: "AC123", AuthToken: "token", From: "+15550100000", BaseURL: srv.URL})
	require.NoError(t, err)

	err = sender.Send(context.Background(), "+1555", "Hi")
	var apiErr *TwilioError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 21211, apiErr.Code)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Contains(t, err.Error(), strconv.Itoa(21211))
}

func TestTwilioSender_ErrorWithoutBody(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	sender, err := NewTwilioSender(TwilioConfig{AccountSID: "AC123", AuthToken: "token", From: "+15550100000", BaseURL: srv.URL})
	require.NoError(t, err)

	err = sender.Send(context.Background(), "+15550102000", "Hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Service Unavailable")
}

func TestTwilioSender_ContextCancelled(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	sender, err := NewTwilioSender(TwilioConfig{AccountSID: "AC123", AuthToken: "token", From: "+15550100000", BaseURL: srv.URL})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, sender.Send(ctx, "+15550102000", "Hi"), context.Canceled)
}

func TestNewTwilioSender_Validation(t *testing.T) {
	t.Parallel()

	_, err := NewTwilioSender(TwilioConfig{AuthToken: "token", From: "+15550100000"})
	assert.Error(t, err)
	_, err = NewTwilioSender(TwilioConfig{AccountSID: "AC123", AuthToken: "token"})
	assert.Error(t, err)
}
