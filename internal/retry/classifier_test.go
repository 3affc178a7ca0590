package retry

import (
	"errors"
	"fmt"
	"net"
	"syscall"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestConnectErrorClassifier_NilError(t *testing.T) {
	c := NewConnectErrorClassifier()
	if c.IsTransient(nil) {
		t.Error("nil error should never be transient")
	}
}

func TestConnectErrorClassifier_PgErrorCodes(t *testing.T) {
	c := NewConnectErrorClassifier()

	tests := []struct {
		name      string
		code      string
		transient bool
	}{
		{"connection failure", "08006", true},
		{"unable to establish connection", "08001", true},
		{"too many connections", "53300", true},
		{"disk full", "53100", true},
		{"admin shutdown", "57P01", true},
		{"cannot connect now", "57P03", true},
		{"lock not available", "55P03", true},
		{"serialization failure not retried at connect", "40001", false},
		{"deadlock not retried at connect", "40P01", false},
		{"invalid password", "28P01", false},
		{"undefined table", "42P01", false},
		{"not null violation", "23502", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := &pgconn.PgError{Code: tt.code, Message: tt.name}
			if got := c.IsTransient(err); got != tt.transient {
				t.Errorf("code %s: expected transient=%v, got %v", tt.code, tt.transient, got)
			}
		})
	}
}

func TestConnectErrorClassifier_NetworkErrors(t *testing.T) {
	c := NewConnectErrorClassifier()

	refused := &net.OpError{Op: "dial", Net: "tcp", Err: syscall.ECONNREFUSED}
	if !c.IsTransient(refused) {
		t.Error("ECONNREFUSED should be transient")
	}

	reset := &net.OpError{Op: "read", Net: "tcp", Err: syscall.ECONNRESET}
	if !c.IsTransient(reset) {
		t.Error("ECONNRESET should be transient")
	}

	dnsTimeout := &net.DNSError{Err: "timeout", Name: "db.example.com", IsTimeout: true}
	if !c.IsTransient(dnsTimeout) {
		t.Error("DNS timeout should be transient")
	}

	dnsNotFound := &net.DNSError{Err: "no such host", Name: "db.example.com"}
	if c.IsTransient(dnsNotFound) {
		t.Error("permanent DNS failure should not be transient via the DNS path")
	}
}

func TestConnectErrorClassifier_MessagePatterns(t *testing.T) {
	c := NewConnectErrorClassifier()

	transient := []string{
		"dial tcp 10.0.0.1:5432: connection refused",
		"read tcp: i/o timeout",
		"FATAL: the database system is starting up",
		"write: broken pipe",
	}
	for _, msg := range transient {
		if !c.IsTransient(errors.New(msg)) {
			t.Errorf("expected %q to be transient", msg)
		}
	}

	fatal := []string{
		"password authentication failed for user \"loader\"",
		fmt.Sprintf("database %q does not exist", "staging"),
		"syntax error at or near",
	}
	for _, msg := range fatal {
		if c.IsTransient(errors.New(msg)) {
			t.Errorf("expected %q to be fatal", msg)
		}
	}
}

func TestConnectErrorClassifier_WrappedPgError(t *testing.T) {
	c := NewConnectErrorClassifier()

	inner := &pgconn.PgError{Code: "57P03", Message: "the database system is starting up"}
	wrapped := fmt.Errorf("failed to connect: %w", inner)
	if !c.IsTransient(wrapped) {
		t.Error("wrapped transient PgError should remain transient")
	}
}
