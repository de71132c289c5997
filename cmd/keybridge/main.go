// Keybridge is an HTTP proxy that keeps LLM provider API keys out of
// browser clients.
//
// It stores provider credentials server-side, validates them against the
// provider's API, and forwards chat requests (streaming and
// non-streaming) with the credential attached, returning normalized
// responses.
//
// Usage:
//
//	# Start the proxy with default configuration
//	keybridge run
//
//	# Start with a custom configuration file
//	keybridge run --config /path/to/config.yaml
//
//	# Probe a key for liveness without starting the proxy
//	keybridge check --provider openai --key sk-...
//
//	# Show version information
//	keybridge version
package main

func main() {
	Execute()
}
