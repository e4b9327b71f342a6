// Package types contains the shared error taxonomy used across the
// bioflow pipeline. Every failure that crosses a package boundary is a
// *types.Error carrying a stable code and a retryability hint; retry
// policy everywhere in the codebase keys off these two fields.
package types
