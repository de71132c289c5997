// Package relay reads a provider's server-sent-events stream chunk by
// chunk, reassembles lines across arbitrary chunk boundaries, and re-emits
// normalized events to a sink. One relay instance serves one request; its
// line buffer is never shared.
package relay
