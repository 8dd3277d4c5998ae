package common

import (
	"crypto/rand"
	"math/big"
)

const inviteAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// MakeInviteCode returns a code of the given length drawn uniformly from
// [A-Z0-9] using crypto/rand.
func MakeInviteCode(length int) (string, error) {
	max := big.NewInt(int64(len(inviteAlphabet)))
	out := make([]byte, length)
	for i := range out {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		out[i] = inviteAlphabet[n.Int64()]
	}
	return string(out), nil
}

// WipeByteArray overwrites b with zeros. Nil is allowed.
func WipeByteArray(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
