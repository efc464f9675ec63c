// Package security holds TLS settings for outbound connections
package security

// ClientTLSConfig configures TLS for a client connection, such as the NATS
// connection. The system CA bundle is always trusted; CAFiles are added to it.
type ClientTLSConfig struct {
	Enabled            bool     `json:"enabled"`
	CAFiles            []string `json:"ca_files,omitempty"`
	InsecureSkipVerify bool     `json:"insecure_skip_verify,omitempty"` // DEV/TEST ONLY
	MinVersion         string   `json:"min_version,omitempty"`          // "1.2" (default) or "1.3"

	MTLS ClientMTLSConfig `json:"mtls,omitempty"`
}

// ClientMTLSConfig holds the client certificate presented to the server
type ClientMTLSConfig struct {
	Enabled  bool   `json:"enabled"`
	CertFile string `json:"cert_file,omitempty"`
	KeyFile  string `json:"key_file,omitempty"`
}
