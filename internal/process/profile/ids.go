package profile

import (
	"crypto/rand"
	"encoding/hex"
)

func newComponentID() string {
	buf := make([]byte, 16)
	_, _ = rand.Read(buf)

	return "comp_" + hex.EncodeToString(buf)
}
