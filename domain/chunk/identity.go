package chunk

import "github.com/google/uuid"

// LogicalID forms the revision-independent identity of a chunk.
func LogicalID(repoID, path, symbol string) string {
	return repoID + ":" + path + "#" + symbol
}

// PointID derives the vector-store point id for one (logical id, content)
// pair: a UUIDv5 under the DNS namespace, so identical content always
// collides on the same id and re-upserts are no-ops.
func PointID(logicalID, contentHash string) string {
	return uuid.NewSHA1(uuid.NameSpaceDNS, []byte(logicalID+":"+contentHash)).String()
}
