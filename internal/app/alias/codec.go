package alias

import (
	"crypto/sha256"
	"math/big"
)

// alphabet 是 Base62 的数字表：0-9, a-z, A-Z（顺序固定，改了所有历史别名都会变）。
const alphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

// aliasSpace bounds the reduced digest; 62^7 > 10^12, so aliases are at most 7 chars.
var aliasSpace = big.NewInt(1_000_000_000_000)

// ComputeAlias derives the short alias of a URL.
//
// The SHA-256 digest of the raw bytes is read as a big-endian integer,
// reduced modulo 10^12 and Base62 encoded. Same bytes, same alias; two URLs
// landing on the same reduced value collide silently.
func ComputeAlias(url string) string {
	sum := sha256.Sum256([]byte(url))
	n := new(big.Int).SetBytes(sum[:])
	n.Mod(n, aliasSpace)
	return EncodeBase62(n.Uint64())
}

// EncodeBase62 encodes n most significant digit first, without padding.
// 0 encodes to the empty string: the division loop never runs.
func EncodeBase62(n uint64) string {
	var buf [11]byte // 62^11 > 2^64
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = alphabet[n%62]
		n /= 62
	}
	return string(buf[i:])
}
