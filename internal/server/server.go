package server

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"relaychat/internal/dispatch"
	"relaychat/internal/transport"
)

// Server accepts connections on a transport.Listener and drives one
// dispatch.Session per connection, sharing one UserTable and ChannelList
// across every connection it accepts (rustyguts-bken/server/server.go's
// accept-loop-plus-shared-room-registry shape, generalized to this
// protocol's three components).
type Server struct {
	Log *slog.Logger

	Users    *UserTable
	Channels *ChannelList
	Audit    AuditSink

	listener transport.Listener
}

// New builds a Server around an already-listening transport.
func New(listener transport.Listener, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		Log:      log,
		Users:    NewUserTable(),
		Channels: NewChannelList(),
		listener: listener,
	}
}

// Serve accepts connections until ctx is canceled or the listener errors.
// Each connection runs its Session.Run in its own goroutine (spec §5: one
// goroutine per connection, frames processed in arrival order on that
// goroutine).
func (srv *Server) Serve(ctx context.Context) error {
	for {
		conn, err := srv.listener.Accept(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		go srv.handleConnection(ctx, conn)
	}
}

func (srv *Server) handleConnection(ctx context.Context, conn transport.Conn) {
	connID := uuid.NewString()
	log := srv.Log.With("conn", connID)
	session := dispatch.NewSession(conn, log)

	channelComponent := NewChannelComponent(srv.Channels)
	if srv.Audit != nil {
		channelComponent.SetAudit(srv.Audit)
	}

	components := []dispatch.Component{
		NewSystemComponent(),
		NewUserComponent(srv.Users),
		channelComponent,
	}
	for _, c := range components {
		if err := session.Register(c); err != nil {
			log.Error("component registration failed", "error", err)
			_ = conn.Close()
			return
		}
	}

	remote := conn.RemoteAddr().String()
	log.Info("connection accepted", "remote", remote)
	err := session.Run(ctx)
	log.Info("connection closed", "remote", remote, "error", err)
}
