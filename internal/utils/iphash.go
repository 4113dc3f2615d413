package utils

import (
    "crypto/sha256"
    "encoding/hex"
)

// HashIP returns the hex SHA-256 of salt and ip.  Visitor IPs are only ever
// stored in this form.
func HashIP(salt, ip string) string {
    sum := sha256.Sum256([]byte(salt + "|" + ip))
    return hex.EncodeToString(sum[:])
}
