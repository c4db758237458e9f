// Package idhash computes deterministic record identifiers.
package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// ComputeMintEventID computes a deterministic event_id using SHA256.
// Formula: SHA256(certificate_id|stage|status|signature|timestamp)
// Returns hex-encoded hash (64 characters).
func ComputeMintEventID(
	certificateID string,
	stage string,
	status string,
	signature string,
	timestamp int64,
) string {
	data := fmt.Sprintf("%s|%s|%s|%s|%d",
		certificateID,
		stage,
		status,
		signature,
		timestamp,
	)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
