package server

import (
	"fmt"
	"hash/fnv"
)

// hashHostname renders a raw remote address as a 64-bit FNV-1a hex digest
// (DESIGN.md's resolution of spec §9's hostname-format open question): it is
// stable for a given address, doesn't leak the literal address to other
// peers, and needs nothing beyond the standard library's hash/fnv.
func hashHostname(raw string) string {
	h := fnv.New64a()
	_, _ = h.Write([]byte(raw))
	return fmt.Sprintf("%016x", h.Sum64())
}
