package netutil

import (
	"context"
	"crypto/tls"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// NewWebsocketDialer creates a websocket dialer using system DNS resolution.
// Certificate verification is skipped when insecure is set, for Home
// Assistant installs behind self-signed certificates.
func NewWebsocketDialer(insecure bool, logger *logrus.Logger) *websocket.Dialer {
	return &websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		NetDialContext:   createDialContext(logger),
		TLSClientConfig:  getTLSConfig(insecure, logger),
		HandshakeTimeout: 10 * time.Second,
	}
}

func createDialContext(logger *logrus.Logger) func(ctx context.Context, network, addr string) (net.Conn, error) {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		host, _, err := net.SplitHostPort(addr)
		if err != nil {
			return nil, err
		}

		if IsLocalOrPrivateHost(host) {
			logger.WithField("host", host).Debug("Connecting to local/private host using system DNS")
		} else {
			logger.WithField("host", host).Debug("Connecting to external host using system DNS")
		}

		dialer := net.Dialer{}
		return dialer.DialContext(ctx, network, addr)
	}
}

// IsLocalOrPrivateHost checks if a hostname is localhost or a private network address
func IsLocalOrPrivateHost(host string) bool {
	if host == "localhost" {
		return true
	}
	if strings.HasSuffix(host, ".local") || strings.HasSuffix(host, ".localhost") || strings.HasSuffix(host, ".lan") {
		return true
	}

	ip := net.ParseIP(host)
	if ip == nil {
		return false
	}
	return ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast()
}

func getTLSConfig(insecure bool, logger *logrus.Logger) *tls.Config {
	if insecure {
		logger.Warn("TLS certificate verification is disabled for the Home Assistant connection")
	}
	return &tls.Config{
		InsecureSkipVerify: insecure,
		MinVersion:         tls.VersionTLS12,
	}
}
