package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContentLocator_Parts(t *testing.T) {
	l := NewContentLocator(SchemeIPFS, "QmYwAPJzv5CZsnA625s3Xf2nemtYgPpHdWEz79ojWnPbdG")

	assert.Equal(t, "ipfs://QmYwAPJzv5CZsnA625s3Xf2nemtYgPpHdWEz79ojWnPbdG", l.String())
	assert.Equal(t, "ipfs", l.Scheme())
	assert.Equal(t, "QmYwAPJzv5CZsnA625s3Xf2nemtYgPpHdWEz79ojWnPbdG", l.Hash())

	bare := ContentLocator("no-scheme")
	assert.Empty(t, bare.Scheme())
	assert.Empty(t, bare.Hash())
}

func TestContentLocator_IsContentAddressed(t *testing.T) {
	tests := []struct {
		name    string
		locator ContentLocator
		want    bool
	}{
		{"ipfs cid", "ipfs://QmYwAPJzv5CZsnA625s3Xf2nemtYgPpHdWEz79ojWnPbdG", true},
		{"arweave id", "ar://bNbA3TEQVL60xlgCcqdz4ZPHFZ711cZ3hmkpGttDt_U", true},
		{"empty", "", false},
		{"http gateway", "https://gateway.pinata.cloud/ipfs/QmYwAPJzv5CZsnA625s3Xf2nemtYgPpHdWEz79ojWnPbdG", false},
		{"localhost", "http://localhost:3000/metadata.json", false},
		{"localhost in ipfs", "ipfs://localhost/abc", false},
		{"loopback ip", "ipfs://127.0.0.1/abc", false},
		{"private ip", "ipfs://10.0.0.5/abc", false},
		{"unspecified ip", "ar://0.0.0.0/abc", false},
		{"empty hash", "ipfs://", false},
		{"whitespace in hash", "ipfs://Qm abc", false},
		{"unknown scheme", "file://QmYwAPJzv5CZsnA625s3Xf2nemtYgPpHdWEz79ojWnPbdG", false},
		{"no scheme", "QmYwAPJzv5CZsnA625s3Xf2nemtYgPpHdWEz79ojWnPbdG", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.locator.IsContentAddressed())
		})
	}
}
