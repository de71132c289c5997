// Package keystore holds provider API keys in memory for the lifetime of
// the process. Keys are format-checked on save for known providers and are
// never persisted to disk or exposed in responses.
package keystore
