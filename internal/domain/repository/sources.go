package repository

import "strings"

// SourceKind names the upstream that owns a series id.
type SourceKind string

const (
	SourceFRED       SourceKind = "fred"
	SourceBlockchain SourceKind = "blockchain"
	SourceStore      SourceKind = "store"
)

const (
	blockchainPrefix = "blockchain:"
	breadthPrefix    = "breadth:"
)

// SourceFor routes a series id by its prefix. Unprefixed ids are FRED series.
func SourceFor(seriesID string) SourceKind {
	switch {
	case strings.HasPrefix(seriesID, blockchainPrefix):
		return SourceBlockchain
	case strings.HasPrefix(seriesID, breadthPrefix):
		return SourceStore
	default:
		return SourceFRED
	}
}

// UpstreamID strips the routing prefix the upstream API does not know about.
// Store-backed ids keep their prefix since they are stored verbatim.
func UpstreamID(seriesID string) string {
	return strings.TrimPrefix(seriesID, blockchainPrefix)
}

// IsIngestible reports whether a series id may be written through the
// observation ingest endpoint.
func IsIngestible(seriesID string) bool {
	return SourceFor(seriesID) == SourceStore
}
