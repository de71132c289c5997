// Package providers defines the provider-agnostic chat types, the Provider
// interface implemented by each upstream adapter, and the shared HTTP client
// used to reach provider APIs.
package providers
