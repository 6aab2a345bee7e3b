// Package httpapi serves a read-only status endpoint alongside the chat
// protocol's own port (SPEC_FULL.md §2.1): current user and channel counts,
// for operational visibility, never for driving protocol behavior.
package httpapi

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"relaychat/internal/server"
)

// StatusResponse is the body of GET /status.
type StatusResponse struct {
	Uptime      string          `json:"uptime"`
	Connections int             `json:"connections"`
	Channels    []ChannelStatus `json:"channels"`
}

// ChannelStatus summarizes one live channel.
type ChannelStatus struct {
	Name        string `json:"name"`
	MemberCount int    `json:"member_count"`
}

// Server wraps an echo instance exposing introspection over the shared
// server.UserTable/ChannelList a running chat server maintains.
type Server struct {
	echo      *echo.Echo
	users     *server.UserTable
	channels  *server.ChannelList
	startedAt time.Time
}

// New builds the HTTP introspection server. It does not start listening;
// call Start.
func New(users *server.UserTable, channels *server.ChannelList) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.Logger())

	s := &Server{echo: e, users: users, channels: channels, startedAt: time.Now()}
	e.GET("/status", s.handleStatus)
	return s
}

// Start begins listening on addr. It blocks until the server stops, the way
// echo.Start does; run it in its own goroutine.
func (s *Server) Start(addr string) error {
	return s.echo.Start(addr)
}

func (s *Server) Close() error {
	return s.echo.Close()
}

func (s *Server) handleStatus(c echo.Context) error {
	summaries := s.channels.Summaries()
	channels := make([]ChannelStatus, 0, len(summaries))
	for _, cs := range summaries {
		channels = append(channels, ChannelStatus{Name: cs.Name, MemberCount: cs.MemberCount})
	}
	resp := StatusResponse{
		Uptime:      time.Since(s.startedAt).String(),
		Connections: len(s.users.Snapshot()),
		Channels:    channels,
	}
	return c.JSON(http.StatusOK, resp)
}
