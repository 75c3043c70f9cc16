package utils

import (
	"encoding/hex"
	"io"
	"math/big"
	"sync"

	"golang.org/x/crypto/sha3"
)

// DomainFingerprint separates modulus fingerprints from every other hash use.
const DomainFingerprint = "mprsa-modulus-v1"

// maxDomainLen is the longest domain tag that fits the one-byte length prefix.
const maxDomainLen = 255

var shakePool = sync.Pool{
	New: func() interface{} { return sha3.NewShake256() },
}

// writeDomain feeds len(domain) || domain || data into w.
func writeDomain(w io.Writer, domain string, data []byte) {
	if len(domain) > maxDomainLen {
		panic("utils: domain tag longer than 255 bytes")
	}
	w.Write([]byte{byte(len(domain))})
	io.WriteString(w, domain)
	w.Write(data)
}

// HashWithDomain returns SHA3-256 over the length-prefixed domain tag and data.
// It panics on a tag longer than 255 bytes.
func HashWithDomain(domain string, data []byte) []byte {
	h := sha3.New256()
	writeDomain(h, domain, data)
	return h.Sum(nil)
}

// Shake256WithDomain is the extendable-output variant of HashWithDomain.
func Shake256WithDomain(domain string, data []byte, outputLen int) []byte {
	h := shakePool.Get().(sha3.ShakeHash)
	defer func() {
		h.Reset()
		shakePool.Put(h)
	}()

	writeDomain(h, domain, data)
	out := make([]byte, outputLen)
	_, _ = h.Read(out)
	return out
}

// SampleBelow deterministically maps (domain, seed) to an integer in [0, n).
// It draws 64 extra bits before reducing so the bias is negligible.
func SampleBelow(domain string, seed []byte, n *big.Int) *big.Int {
	raw := Shake256WithDomain(domain, seed, (n.BitLen()+64+7)/8)
	v := new(big.Int).SetBytes(raw)
	return v.Mod(v, n)
}

// Fingerprint returns the hex SHA3-256 fingerprint of a modulus.
// Two runs over the same modulus always report the same fingerprint.
func Fingerprint(n *big.Int) string {
	if n == nil {
		return ""
	}
	return hex.EncodeToString(HashWithDomain(DomainFingerprint, n.Bytes()))
}
