// Portico is an HTTP proxy that serves the Anthropic Messages API and
// fulfills requests against a CodeWhisperer-style backend.
//
// It accepts standard Messages API requests, converts them into the
// backend's conversation-state format, decodes the binary event stream
// that comes back, and reassembles it into Anthropic-shaped responses,
// both streaming and non-streaming.
//
// Usage:
//
//	# Start the proxy with default configuration
//	portico run
//
//	# Start with a custom configuration file
//	portico run --config /path/to/config.yaml
//
//	# Validate a configuration file without starting
//	portico validate --config /path/to/config.yaml
//
//	# Show the request fingerprint derived from a credential ID
//	portico fingerprint cred-1
//
//	# Show version information
//	portico version
package main

func main() {
	Execute()
}
