package server

import (
	"bufio"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"unicode/utf8"

	"github.com/NicolasHaas/gotalk/pkg/model"
)

// historyTimeLayout formats timestamps in the history replay.
const historyTimeLayout = "2006-01-02 15:04:05"

// maxLineBytes caps a single inbound line. A line that exceeds the cap ends
// the connection, the same as any other transport failure.
const maxLineBytes = 64 * 1024

// handleConn drives one connection through the protocol state machine:
// unauthenticated command loop, then the chat loop, then teardown. It runs
// in its own goroutine; nothing it does, including a panic, may affect the
// listener or other connections.
func (s *Server) handleConn(conn net.Conn) {
	sess := newSession(conn)
	remoteAddr := conn.RemoteAddr().String()
	s.metrics.TotalConnections.Add(1)
	s.metrics.ActiveConnections.Add(1)
	slog.Debug("new connection", "remote", remoteAddr, "session", sess.ID)

	defer func() {
		if r := recover(); r != nil {
			slog.Error("connection handler panic", "remote", remoteAddr, "session", sess.ID, "panic", r)
		}
		s.teardown(sess)
		slog.Debug("connection closed", "remote", remoteAddr, "session", sess.ID)
	}()

	lines := bufio.NewScanner(conn)
	lines.Buffer(make([]byte, 0, 4096), maxLineBytes)

	if !s.sendWelcome(sess) {
		return
	}
	if !s.runAuth(sess, lines) {
		return // disconnected before authenticating: terminate silently
	}
	s.chatLoop(sess, lines)
}

func (s *Server) sendWelcome(sess *Session) bool {
	if err := sess.WriteLine("Welcome to the chat server!"); err != nil {
		return false
	}
	if err := sess.WriteLine("Type 'register' to create an account or 'login' to sign in:"); err != nil {
		return false
	}
	if s.cfg.MOTD != "" {
		if err := sess.WriteLine(s.cfg.MOTD); err != nil {
			return false
		}
	}
	return true
}

// runAuth loops on register/login commands until the client authenticates.
// Returns false when the connection ends first.
func (s *Server) runAuth(sess *Session, lines *bufio.Scanner) bool {
	for {
		if !lines.Scan() {
			return false
		}
		switch strings.ToLower(strings.TrimSpace(lines.Text())) {
		case "register":
			if !s.handleRegister(sess, lines) {
				return false
			}
		case "login":
			authenticated, alive := s.handleLogin(sess, lines)
			if !alive {
				return false
			}
			if authenticated {
				return true
			}
		default:
			if err := sess.WriteLine("Please type either 'register' or 'login'."); err != nil {
				return false
			}
		}
	}
}

// handleRegister runs the two-prompt registration exchange. Registration
// never authenticates by itself: the client is told to log in afterwards.
// Returns false when the connection ends.
func (s *Server) handleRegister(sess *Session, lines *bufio.Scanner) bool {
	defer sess.setState(model.StateUnauthenticated)

	sess.setState(model.StateRegisterUsername)
	if err := sess.WriteLine("Choose a username:"); err != nil {
		return false
	}
	if !lines.Scan() {
		return false
	}
	username := strings.TrimSpace(lines.Text())

	sess.setState(model.StateRegisterPassword)
	if err := sess.WriteLine("Choose a password:"); err != nil {
		return false
	}
	if !lines.Scan() {
		return false
	}
	password := strings.TrimSpace(lines.Text())

	if username == "" || password == "" {
		return sess.WriteLine("Username and password cannot be empty. Try again.") == nil
	}

	switch err := s.accounts.Register(s.ctx, username, password); {
	case err == nil:
		s.metrics.AccountsCreated.Add(1)
		return sess.WriteLine("Account created successfully! Type 'login' to sign in.") == nil
	case errors.Is(err, model.ErrAccountExists):
		return sess.WriteLine("Username already exists. Try another username.") == nil
	case errors.Is(err, model.ErrUsernameTooLong):
		return sess.WriteLine("Username is too long. Try another username.") == nil
	default:
		// Store trouble is terminal for this operation, not the connection.
		slog.Error("account creation failed", "session", sess.ID, "err", err)
		return sess.WriteLine("Something went wrong. Try again.") == nil
	}
}

// handleLogin runs the two-prompt login exchange. authenticated reports a
// successful login; alive is false when the connection ends.
func (s *Server) handleLogin(sess *Session, lines *bufio.Scanner) (authenticated, alive bool) {
	sess.setState(model.StateLoginUsername)
	if err := sess.WriteLine("Username:"); err != nil {
		return false, false
	}
	if !lines.Scan() {
		return false, false
	}
	username := strings.TrimSpace(lines.Text())

	sess.setState(model.StateLoginPassword)
	if err := sess.WriteLine("Password:"); err != nil {
		return false, false
	}
	if !lines.Scan() {
		return false, false
	}
	password := strings.TrimSpace(lines.Text())

	ok, err := s.accounts.Authenticate(s.ctx, username, password)
	if err != nil {
		slog.Error("login check failed", "session", sess.ID, "err", err)
		sess.setState(model.StateUnauthenticated)
		return false, sess.WriteLine("Something went wrong. Try again.") == nil
	}
	if !ok {
		s.metrics.FailedAuths.Add(1)
		sess.setState(model.StateUnauthenticated)
		return false, sess.WriteLine("Invalid username or password. Try again.") == nil
	}

	sess.setAuthenticated(username)
	s.metrics.SuccessfulAuths.Add(1)
	return true, sess.WriteLine(fmt.Sprintf("Login successful. Welcome, %s!", username)) == nil
}

// chatLoop registers the session, replays history, announces the join, and
// relays chat lines until the client quits or disconnects.
func (s *Server) chatLoop(sess *Session, lines *bufio.Scanner) {
	username := sess.Username()
	if !s.registry.Add(sess) {
		_ = sess.WriteLine("You are already logged in from another connection.")
		return
	}
	slog.Info("user joined", "user", username, "session", sess.ID, "online", s.registry.Count())

	s.replayHistory(sess)
	if err := s.dispatcher.Broadcast(model.SystemSender, username+" has joined the chat."); err != nil {
		slog.Error("join notice failed", "user", username, "err", err)
	}
	if err := sess.WriteLine("You are now in the chatroom. Type messages and press Enter."); err != nil {
		return
	}
	if err := sess.WriteLine("Type '/quit' to exit."); err != nil {
		return
	}

	for lines.Scan() {
		text := strings.TrimSpace(lines.Text())
		if text == "" {
			continue
		}
		if text == "/quit" {
			_ = sess.WriteLine("Goodbye!")
			return
		}
		if utf8.RuneCountInString(text) > model.MaxContentLength {
			if err := sess.WriteLine(fmt.Sprintf("Message too long. Keep it under %d characters.", model.MaxContentLength)); err != nil {
				return
			}
			continue
		}
		if err := s.dispatcher.Broadcast(username, text); err != nil {
			slog.Error("broadcast failed", "user", username, "err", err)
			if err := sess.WriteLine("Could not deliver your message. Try again."); err != nil {
				return
			}
		}
	}
}

// replayHistory sends the stored tail of the conversation, oldest first, to
// this connection only.
func (s *Server) replayHistory(sess *Session) {
	if err := sess.WriteLine("--- Recent messages ---"); err != nil {
		return
	}
	history, err := s.store.NonTx().RecentMessages(s.cfg.HistoryLimit)
	if err != nil {
		slog.Error("history replay failed", "session", sess.ID, "err", err)
		_ = sess.WriteLine("Could not load recent messages.")
	}
	for _, m := range history {
		line := fmt.Sprintf("[%s] %s: %s", m.CreatedAt.Format(historyTimeLayout), m.Sender, m.Content)
		if err := sess.WriteLine(line); err != nil {
			return
		}
	}
	_ = sess.WriteLine("--- End of history ---")
}

// teardown closes the connection and, when the session was registered,
// announces the departure. Safe to call exactly once per session; registry
// removal itself is idempotent.
func (s *Server) teardown(sess *Session) {
	sess.setState(model.StateTerminated)
	removed := s.registry.Remove(sess.ID)
	_ = sess.conn.Close()
	s.metrics.ActiveConnections.Add(-1)
	s.metrics.TotalDisconnects.Add(1)

	if removed {
		username := sess.Username()
		slog.Info("user left", "user", username, "session", sess.ID, "online", s.registry.Count())
		if err := s.dispatcher.Broadcast(model.SystemSender, username+" has left the chat."); err != nil {
			slog.Error("leave notice failed", "user", username, "err", err)
		}
	}
}
