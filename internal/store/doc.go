// Package store persists pairing credentials on disk.
//
// Credentials live in one TOML file in the entangle home directory, one
// record per paired peer, secret material base64-encoded. Writes go through
// a temp file and an atomic rename at mode 0600, so the file is either the
// old complete state or the new complete state, never a partial write.
package store
