// Package store keeps the latest verdict per phenomenon in memory.
// Entries that are not refreshed within the TTL drop out of List and GetLive
// and are removed by the background eviction loop (Run).
package store
