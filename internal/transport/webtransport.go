package transport

import (
	"context"
	"crypto/tls"
	"net"
	"net/http"
	"time"

	"github.com/quic-go/quic-go/http3"
	"github.com/quic-go/webtransport-go"
)

// WebTransportListener is a second alternate transport adapter, grounded on
// rustyguts-bken's webtransport.Dialer/Session usage (client/transport.go):
// each upgraded WebTransport session's first stream is exposed as one Conn,
// the same shape quic.go uses for a raw QUIC stream. Like QUICListener this
// exists to prove the dispatcher is transport-agnostic; it is not the
// default for cmd/server or cmd/client.
type WebTransportListener struct {
	wt     *webtransport.Server
	accept chan acceptResult
}

type acceptResult struct {
	conn Conn
	err  error
}

// ListenWebTransport starts an HTTP/3 server on addr serving a single
// WebTransport upgrade endpoint at path.
func ListenWebTransport(addr, path string, tlsConf *tls.Config) (*WebTransportListener, error) {
	l := &WebTransportListener{accept: make(chan acceptResult, 16)}

	mux := http.NewServeMux()
	h3 := &http3.Server{
		Addr:      addr,
		TLSConfig: tlsConf,
	}
	wt := &webtransport.Server{
		H3: *h3,
	}
	mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
		sess, err := wt.Upgrade(w, r)
		if err != nil {
			l.accept <- acceptResult{err: err}
			return
		}
		stream, err := sess.AcceptStream(r.Context())
		if err != nil {
			l.accept <- acceptResult{err: err}
			return
		}
		l.accept <- acceptResult{conn: &webtransportConn{sess: sess, stream: stream}}
	})
	wt.H3.Handler = mux
	l.wt = wt

	go func() { _ = wt.ListenAndServe() }()

	return l, nil
}

// Accept waits for the next upgraded WebTransport session's first stream.
func (l *WebTransportListener) Accept(ctx context.Context) (Conn, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-l.accept:
		return r.conn, r.err
	}
}

func (l *WebTransportListener) Close() error { return l.wt.Close() }

func (l *WebTransportListener) Addr() net.Addr { return wtAddr(l.wt.H3.Addr) }

type wtAddr string

func (a wtAddr) Network() string { return "webtransport" }
func (a wtAddr) String() string  { return string(a) }

// WebTransportDialer opens outbound WebTransport sessions.
type WebTransportDialer struct {
	URL       string
	TLSConfig *tls.Config
}

// Dial connects to d.URL (an https:// URL naming the upgrade endpoint) and
// opens the stream the server's Accept will pick up.
func (d WebTransportDialer) Dial(ctx context.Context, addr string) (Conn, error) {
	tlsConf := d.TLSConfig
	if tlsConf == nil {
		tlsConf = &tls.Config{InsecureSkipVerify: true}
	}
	dialer := webtransport.Dialer{TLSClientConfig: tlsConf}

	url := d.URL
	if url == "" {
		url = "https://" + addr + "/relaychat"
	}
	dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	_, sess, err := dialer.Dial(dialCtx, url, http.Header{})
	if err != nil {
		return nil, err
	}
	stream, err := sess.OpenStream()
	if err != nil {
		sess.CloseWithError(0, "failed to open stream")
		return nil, err
	}
	return &webtransportConn{sess: sess, stream: stream}, nil
}

// webtransportConn adapts a WebTransport session's single stream to
// net.Conn.
type webtransportConn struct {
	sess   *webtransport.Session
	stream webtransport.Stream
}

func (c *webtransportConn) Read(p []byte) (int, error)  { return c.stream.Read(p) }
func (c *webtransportConn) Write(p []byte) (int, error) { return c.stream.Write(p) }

func (c *webtransportConn) Close() error {
	_ = c.stream.Close()
	c.sess.CloseWithError(0, "")
	return nil
}

func (c *webtransportConn) LocalAddr() net.Addr  { return c.sess.LocalAddr() }
func (c *webtransportConn) RemoteAddr() net.Addr { return c.sess.RemoteAddr() }

func (c *webtransportConn) SetDeadline(t time.Time) error      { return c.stream.SetDeadline(t) }
func (c *webtransportConn) SetReadDeadline(t time.Time) error  { return c.stream.SetReadDeadline(t) }
func (c *webtransportConn) SetWriteDeadline(t time.Time) error { return c.stream.SetWriteDeadline(t) }
