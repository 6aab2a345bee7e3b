// Command relaychat-server runs a relaychat server over TCP or QUIC, with an
// optional read-only HTTP status endpoint and an optional moderation audit
// log (SPEC_FULL.md §6).
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"relaychat/internal/audit"
	"relaychat/internal/httpapi"
	"relaychat/internal/server"
	"relaychat/internal/transport"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		ipAddress   string
		port        int
		transportID string
		httpAddr    string
		auditDBPath string
	)

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the relaychat server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), serveOptions{
				ipAddress: ipAddress,
				port:      port,
				transport: transportID,
				httpAddr:  httpAddr,
				auditDB:   auditDBPath,
			})
		},
	}
	serveCmd.Flags().StringVar(&ipAddress, "ipaddress", "0.0.0.0", "address to listen on")
	serveCmd.Flags().IntVar(&port, "port", 9998, "port to listen on")
	serveCmd.Flags().StringVar(&transportID, "transport", "tcp", "transport to use: tcp, quic, or webtransport")
	serveCmd.Flags().StringVar(&httpAddr, "http-addr", "", "address for the read-only HTTP status endpoint (empty disables it)")
	serveCmd.Flags().StringVar(&auditDBPath, "audit-db", "", "path to the moderation audit log sqlite database (empty disables auditing)")

	var tailN int
	var tailDB string
	auditCmd := &cobra.Command{Use: "audit", Short: "Inspect the moderation audit log"}
	tailCmd := &cobra.Command{
		Use:   "tail",
		Short: "Print the most recent moderation actions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAuditTail(cmd.Context(), tailDB, tailN)
		},
	}
	tailCmd.Flags().IntVarP(&tailN, "n", "n", 20, "number of entries to print")
	tailCmd.Flags().StringVar(&tailDB, "audit-db", "relaychat-audit.db", "path to the audit log database")
	auditCmd.AddCommand(tailCmd)

	root := &cobra.Command{Use: "relaychat-server"}
	root.AddCommand(serveCmd, auditCmd)
	return root
}

type serveOptions struct {
	ipAddress string
	port      int
	transport string
	httpAddr  string
	auditDB   string
}

func runServe(ctx context.Context, opts serveOptions) error {
	log := slog.Default()
	addr := fmt.Sprintf("%s:%d", opts.ipAddress, opts.port)

	listener, err := openListener(opts.transport, addr)
	if err != nil {
		return err
	}
	defer listener.Close()

	srv := server.New(listener, log)

	if opts.auditDB != "" {
		auditLog, err := audit.Open(opts.auditDB)
		if err != nil {
			return fmt.Errorf("open audit db: %w", err)
		}
		auditLog.SetLogger(log)
		defer auditLog.Close()
		srv.Audit = auditLog
	}

	var httpSrv *httpapi.Server
	if opts.httpAddr != "" {
		httpSrv = httpapi.New(srv.Users, srv.Channels)
		go func() {
			if err := httpSrv.Start(opts.httpAddr); err != nil {
				log.Warn("http status server stopped", "error", err)
			}
		}()
		defer httpSrv.Close()
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("relaychat server listening", "addr", addr, "transport", opts.transport)
	return srv.Serve(ctx)
}

func openListener(transportID, addr string) (transport.Listener, error) {
	switch transportID {
	case "tcp", "":
		return transport.ListenTCP(addr)
	case "quic":
		tlsConf, err := transport.GenerateSelfSignedTLSConfig("")
		if err != nil {
			return nil, fmt.Errorf("generate quic tls config: %w", err)
		}
		return transport.ListenQUIC(addr, tlsConf)
	case "webtransport":
		tlsConf, err := transport.GenerateSelfSignedTLSConfig("")
		if err != nil {
			return nil, fmt.Errorf("generate webtransport tls config: %w", err)
		}
		return transport.ListenWebTransport(addr, "/relaychat", tlsConf)
	default:
		return nil, fmt.Errorf("unknown transport %q (want tcp, quic, or webtransport)", transportID)
	}
}

func runAuditTail(ctx context.Context, dbPath string, n int) error {
	log, err := audit.Open(dbPath)
	if err != nil {
		return err
	}
	defer log.Close()

	entries, err := log.Tail(ctx, n)
	if err != nil {
		return err
	}
	for _, e := range entries {
		fmt.Printf("%s  %s  %-6s %s -> %s\n", e.Timestamp.Format("2006-01-02 15:04:05"), e.Channel, e.Action, e.Actor, e.Target)
	}
	return nil
}
