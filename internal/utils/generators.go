package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"
	"time"
)

// GenerateOrderID returns an opaque order identifier, e.g. "ord_1693526400_042187".
func GenerateOrderID() string {
	timestamp := time.Now().Unix()
	randomNum, _ := rand.Int(rand.Reader, big.NewInt(999999))
	return fmt.Sprintf("ord_%d_%06d", timestamp, randomNum.Int64())
}

// GenerateInvoiceID returns an opaque invoice identifier.
func GenerateInvoiceID() string {
	timestamp := time.Now().Unix()
	randomNum, _ := rand.Int(rand.Reader, big.NewInt(999999))
	return fmt.Sprintf("inv_%d_%06d", timestamp, randomNum.Int64())
}

// GenerateAccessToken returns a guest access token secret. 32 random bytes,
// hex encoded, with a recognizable prefix. A bearer secret must never be
// minted from a degraded entropy source, so a crypto/rand failure panics.
func GenerateAccessToken() string {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		panic(fmt.Sprintf("crypto/rand unavailable: %v", err))
	}
	return "gat_" + hex.EncodeToString(buf)
}
