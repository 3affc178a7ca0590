// Package source reads delimited files into row batches ready for COPY.
//
// A Reader resolves the column list from the file header (or an explicit
// override), coerces empty fields to NULL when configured, diverts malformed
// rows to a reject file within the configured tolerance, and maintains a
// streaming SHA-256 checksum of the bytes it consumes.
package source
