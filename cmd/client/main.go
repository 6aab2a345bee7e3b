// Command relaychat-client connects to a relaychat server over TCP or QUIC
// and drives it from an interactive REPL (SPEC_FULL.md §6).
package main

import (
	"bufio"
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"relaychat/internal/client"
	"relaychat/internal/dispatch"
	"relaychat/internal/transport"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		ipAddress   string
		port        int
		transportID string
	)

	connectCmd := &cobra.Command{
		Use:   "connect",
		Short: "Connect to a relaychat server and start an interactive session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConnect(cmd.Context(), ipAddress, port, transportID)
		},
	}
	connectCmd.Flags().StringVar(&ipAddress, "ipaddress", "127.0.0.1", "server address")
	connectCmd.Flags().IntVar(&port, "port", 9998, "server port")
	connectCmd.Flags().StringVar(&transportID, "transport", "tcp", "transport to use: tcp, quic, or webtransport")

	root := &cobra.Command{Use: "relaychat-client"}
	root.AddCommand(connectCmd)
	return root
}

func openDialer(transportID string) (transport.Dialer, error) {
	switch transportID {
	case "tcp", "":
		return transport.TCPDialer{}, nil
	case "quic":
		return transport.QUICDialer{TLSConfig: &tls.Config{InsecureSkipVerify: true, NextProtos: []string{"relaychat"}}}, nil
	case "webtransport":
		return transport.WebTransportDialer{TLSConfig: &tls.Config{InsecureSkipVerify: true}}, nil
	default:
		return nil, fmt.Errorf("unknown transport %q (want tcp, quic, or webtransport)", transportID)
	}
}

func runConnect(ctx context.Context, ipAddress string, port int, transportID string) error {
	dialer, err := openDialer(transportID)
	if err != nil {
		return err
	}

	addr := fmt.Sprintf("%s:%d", ipAddress, port)
	conn, err := dialer.Dial(ctx, addr)
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}
	defer conn.Close()

	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	session := dispatch.NewSession(conn, log)

	sys := client.NewSystemComponent()
	user := client.NewUserComponent()
	channel := client.NewChannelComponent()

	for _, c := range []dispatch.Component{sys, user, channel} {
		if err := session.Register(c); err != nil {
			return fmt.Errorf("register component: %w", err)
		}
	}

	wireNotifications(user, channel)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	runErr := make(chan error, 1)
	go func() { runErr <- session.Run(ctx) }()

	if err := sys.Hello(ctx, session); err != nil {
		return fmt.Errorf("handshake: %w", err)
	}
	fmt.Println("connected. type /help for commands.")

	repl(ctx, session, user, channel)

	stop()
	return <-runErr
}

func wireNotifications(user *client.UserComponent, channel *client.ChannelComponent) {
	user.OnMessage.Subscribe(func(args ...any) bool {
		m := args[0].(client.DirectMessage)
		fmt.Printf("[dm] %s: %s\n", m.From, m.Text)
		return true
	})
	channel.OnJoin.Subscribe(func(args ...any) bool {
		e := args[0].(client.MemberEvent)
		fmt.Printf("[%s] %s joined\n", e.Channel, e.Username)
		return true
	})
	channel.OnLeave.Subscribe(func(args ...any) bool {
		e := args[0].(client.MemberEvent)
		fmt.Printf("[%s] %s left\n", e.Channel, e.Username)
		return true
	})
	channel.OnKick.Subscribe(func(args ...any) bool {
		e := args[0].(client.MemberEvent)
		fmt.Printf("[%s] %s was kicked\n", e.Channel, e.Username)
		return true
	})
	channel.OnBan.Subscribe(func(args ...any) bool {
		e := args[0].(client.MemberEvent)
		fmt.Printf("[%s] %s was banned\n", e.Channel, e.Username)
		return true
	})
	channel.OnOp.Subscribe(func(args ...any) bool {
		e := args[0].(client.OperatorEvent)
		fmt.Printf("[%s] %s was made operator\n", e.Channel, e.Username)
		return true
	})
	channel.OnDeop.Subscribe(func(args ...any) bool {
		e := args[0].(client.OperatorEvent)
		fmt.Printf("[%s] %s is no longer operator\n", e.Channel, e.Username)
		return true
	})
	channel.OnUnban.Subscribe(func(args ...any) bool {
		e := args[0].(client.OperatorEvent)
		fmt.Printf("[%s] %s was unbanned\n", e.Channel, e.Username)
		return true
	})
	channel.OnMessage.Subscribe(func(args ...any) bool {
		m := args[0].(client.ChannelMessage)
		fmt.Printf("[%s] %s: %s\n", m.Channel, m.Username, m.Text)
		return true
	})
}

const helpText = `commands:
  /identify <username>
  /join <channel>
  /leave <channel>
  /msg <username> <text...>
  /say <channel> <text...>
  /kick <channel> <username>
  /ban <channel> <username>
  /op <channel> <username>
  /deop <channel> <username>
  /unban <channel> <username>
  /quit
`

func repl(ctx context.Context, session *dispatch.Session, user *client.UserComponent, channel *client.ChannelComponent) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "/quit" {
			return
		}
		if line == "/help" {
			fmt.Print(helpText)
			continue
		}
		if !strings.HasPrefix(line, "/") {
			fmt.Println("unrecognized input, type /help")
			continue
		}
		fields := strings.Fields(line)
		cmd := fields[0]
		rest := fields[1:]

		if err := dispatchCommand(ctx, session, user, channel, cmd, rest, line); err != nil {
			fmt.Println("error:", err)
		}
		if ctx.Err() != nil {
			return
		}
	}
}

func dispatchCommand(ctx context.Context, s *dispatch.Session, user *client.UserComponent, channel *client.ChannelComponent, cmd string, rest []string, rawLine string) error {
	switch cmd {
	case "/identify":
		if len(rest) != 1 {
			return fmt.Errorf("usage: /identify <username>")
		}
		r, err := user.Identify(ctx, s, rest[0])
		if err != nil {
			return err
		}
		fmt.Printf("identify: %s (hostname %s): %s\n", r.Username, r.Hostname, r.Result)
	case "/join":
		if len(rest) != 1 {
			return fmt.Errorf("usage: /join <channel>")
		}
		r, err := channel.Join(ctx, s, rest[0])
		if err != nil {
			return err
		}
		fmt.Printf("join %s: %s (%d members, %d bans)\n", r.Name, r.Result, len(r.Members), len(r.Bans))
		for _, m := range r.Members {
			fmt.Printf("  - %s@%s\n", m.Username, m.Hostname)
		}
	case "/leave":
		if len(rest) != 1 {
			return fmt.Errorf("usage: /leave <channel>")
		}
		r, err := channel.Leave(ctx, s, rest[0])
		if err != nil {
			return err
		}
		fmt.Println("leave:", r)
	case "/msg":
		if len(rest) < 2 {
			return fmt.Errorf("usage: /msg <username> <text...>")
		}
		text := textAfter(rawLine, 2)
		r, err := user.SendMessage(ctx, s, rest[0], text)
		if err != nil {
			return err
		}
		fmt.Println("msg:", r)
	case "/say":
		if len(rest) < 2 {
			return fmt.Errorf("usage: /say <channel> <text...>")
		}
		text := textAfter(rawLine, 2)
		r, err := channel.SendMessage(ctx, s, rest[0], text)
		if err != nil {
			return err
		}
		fmt.Println("say:", r)
	case "/kick":
		if len(rest) != 2 {
			return fmt.Errorf("usage: /kick <channel> <username>")
		}
		r, err := channel.Kick(ctx, s, rest[0], rest[1])
		if err != nil {
			return err
		}
		fmt.Println("kick:", r)
	case "/ban":
		if len(rest) != 2 {
			return fmt.Errorf("usage: /ban <channel> <username>")
		}
		r, err := channel.Ban(ctx, s, rest[0], rest[1])
		if err != nil {
			return err
		}
		fmt.Println("ban:", r)
	case "/op":
		if len(rest) != 2 {
			return fmt.Errorf("usage: /op <channel> <username>")
		}
		r, err := channel.Op(ctx, s, rest[0], rest[1])
		if err != nil {
			return err
		}
		fmt.Println("op:", r)
	case "/deop":
		if len(rest) != 2 {
			return fmt.Errorf("usage: /deop <channel> <username>")
		}
		r, err := channel.Deop(ctx, s, rest[0], rest[1])
		if err != nil {
			return err
		}
		fmt.Println("deop:", r)
	case "/unban":
		if len(rest) != 2 {
			return fmt.Errorf("usage: /unban <channel> <username>")
		}
		r, err := channel.Unban(ctx, s, rest[0], rest[1])
		if err != nil {
			return err
		}
		fmt.Println("unban:", r)
	default:
		return fmt.Errorf("unknown command %q, type /help", cmd)
	}
	return nil
}

// textAfter returns rawLine with its first n whitespace-separated fields
// removed, preserving the rest verbatim (so message text may contain
// arbitrary spacing).
func textAfter(rawLine string, n int) string {
	rest := rawLine
	for i := 0; i < n; i++ {
		rest = strings.TrimLeft(rest, " \t")
		idx := strings.IndexAny(rest, " \t")
		if idx < 0 {
			return ""
		}
		rest = rest[idx:]
	}
	return strings.TrimLeft(rest, " \t")
}
