package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"relaychat/internal/server"
)

func TestStatusHandlerReportsConnectionsAndChannels(t *testing.T) {
	users := server.NewUserTable()
	users.Add(nil, "10.0.0.1:1")
	users.Add(nil, "10.0.0.2:1")
	channels := server.NewChannelList()

	s := New(users, channels)

	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp StatusResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Connections != 2 {
		t.Fatalf("expected 2 connections, got %d", resp.Connections)
	}
	if len(resp.Channels) != 0 {
		t.Fatalf("expected no channels yet, got %+v", resp.Channels)
	}
}
