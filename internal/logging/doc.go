// Package logging provides concrete implementations of the pgbulk.Logger interface.
package logging
