package certs

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"time"
)

// CertManager loads the server's TLS key pair and reports on its validity.
type CertManager struct {
	certFile string
	keyFile  string
	now      func() time.Time
}

// NewCertManager creates a CertManager for the given PEM files.
func NewCertManager(certFile, keyFile string) *CertManager {
	return &CertManager{certFile: certFile, keyFile: keyFile, now: time.Now}
}

// Load parses the key pair and its leaf certificate.
func (cm *CertManager) Load() (tls.Certificate, *x509.Certificate, error) {
	pair, err := tls.LoadX509KeyPair(cm.certFile, cm.keyFile)
	if err != nil {
		return tls.Certificate{}, nil, fmt.Errorf("load key pair: %w", err)
	}
	if len(pair.Certificate) == 0 {
		return tls.Certificate{}, nil, errors.New("certificate file holds no certificate")
	}
	leaf, err := x509.ParseCertificate(pair.Certificate[0])
	if err != nil {
		return tls.Certificate{}, nil, fmt.Errorf("parse leaf certificate: %w", err)
	}
	if cm.IsExpired(leaf) {
		return tls.Certificate{}, nil, fmt.Errorf("certificate expired at %s", leaf.NotAfter.Format(time.RFC3339))
	}
	pair.Leaf = leaf
	return pair, leaf, nil
}

// IsExpired checks if a certificate is expired.
func (cm *CertManager) IsExpired(cert *x509.Certificate) bool {
	return cert.NotAfter.Before(cm.now())
}

// ExpiresWithin reports whether cert expires inside d.
func (cm *CertManager) ExpiresWithin(cert *x509.Certificate, d time.Duration) bool {
	return cert.NotAfter.Before(cm.now().Add(d))
}

// TLSConfig returns a server config serving the loaded pair.
func (cm *CertManager) TLSConfig() (*tls.Config, *x509.Certificate, error) {
	pair, leaf, err := cm.Load()
	if err != nil {
		return nil, nil, err
	}
	return &tls.Config{
		MinVersion:   tls.VersionTLS12,
		Certificates: []tls.Certificate{pair},
	}, leaf, nil
}
