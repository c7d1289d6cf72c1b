// Package config loads and watches the existence configuration file.
//
// Top-level types:
//   - Config{Threshold, Phenomena, Sources, Server}: full tree parsed from YAML
//   - Phenomenon: id, probability, possibility, optional threshold
//   - Source: id, endpoint (http(s) URL or file path), interval, timeout,
//     auth, tls
//   - AuthConfig: mode (mtls|apikey|bearer|basic|none); secrets are named by
//     environment variable and resolved with Key(), Token(), Password()
//   - ServerConfig: http_addr, ttl, auth (apikey|none)
//
// Load(path) reads the YAML file, applies defaults (threshold 0.1, 30s source
// interval, 10s timeout, 5m TTL), then validates ranges, required fields and
// ID uniqueness. Phenomenon values go through existence.Validate so a bad file
// fails at load time rather than at evaluation time.
//
// Watch(ctx, path, onChange) uses fsnotify to detect file changes and calls
// onChange with the newly parsed Config and a Diff of the phenomenon and source
// IDs added or removed since the previous one. It re-adds the watch after each event
// so atomic-save editors (write temp file, rename over) keep being tracked.
package config
