// Package tlsutil builds crypto/tls configurations from security settings.
package tlsutil

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"

	"github.com/c360/propstream/errors"
	"github.com/c360/propstream/pkg/security"
)

// LoadClientTLSConfig creates a tls.Config for outbound connections. It
// returns nil when TLS is disabled. The system CA pool is extended with
// cfg.CAFiles, and a client certificate is loaded when mTLS is enabled.
func LoadClientTLSConfig(cfg security.ClientTLSConfig) (*tls.Config, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	rootCAs, err := x509.SystemCertPool()
	if err != nil {
		rootCAs = x509.NewCertPool()
	}

	for _, caFile := range cfg.CAFiles {
		caPEM, err := os.ReadFile(caFile)
		if err != nil {
			return nil, errors.WrapFatal(err, "tlsutil", "LoadClientTLSConfig", fmt.Sprintf("read CA file %s", caFile))
		}
		if !rootCAs.AppendCertsFromPEM(caPEM) {
			return nil, errors.WrapFatal(
				fmt.Errorf("%w: no PEM certificates", errors.ErrInvalidConfig),
				"tlsutil", "LoadClientTLSConfig", fmt.Sprintf("parse CA file %s", caFile))
		}
	}

	tlsConfig := &tls.Config{
		RootCAs:    rootCAs,
		MinVersion: parseTLSVersion(cfg.MinVersion),
	}
	// Set only through explicit config; operators know the implications
	if cfg.InsecureSkipVerify {
		tlsConfig.InsecureSkipVerify = true
	}

	if cfg.MTLS.Enabled {
		if cfg.MTLS.CertFile == "" || cfg.MTLS.KeyFile == "" {
			return nil, errors.WrapFatal(
				fmt.Errorf("%w: mtls requires cert_file and key_file", errors.ErrMissingConfig),
				"tlsutil", "LoadClientTLSConfig", "check client certificate")
		}
		clientCert, err := tls.LoadX509KeyPair(cfg.MTLS.CertFile, cfg.MTLS.KeyFile)
		if err != nil {
			return nil, errors.WrapFatal(err, "tlsutil", "LoadClientTLSConfig", "load client certificate")
		}
		tlsConfig.Certificates = []tls.Certificate{clientCert}
	}

	return tlsConfig, nil
}

// parseTLSVersion returns tls.VersionTLS12 unless "1.3" is asked for
func parseTLSVersion(version string) uint16 {
	if version == "1.3" {
		return tls.VersionTLS13
	}
	return tls.VersionTLS12
}
