package wallet

import (
	"strings"

	"golang.org/x/crypto/sha3"
)

// IsValidAddress reports whether s is a well-formed EVM account address:
// a 0x prefix followed by 40 hex characters, with a valid EIP-55 checksum
// when the hex part is mixed-case. All-lowercase and all-uppercase forms
// carry no checksum and are accepted as-is. Structural validation only;
// it never errors on malformed input.
func IsValidAddress(s string) bool {
	if len(s) != 42 || s[0] != '0' || (s[1] != 'x' && s[1] != 'X') {
		return false
	}

	body := s[2:]
	hasUpper, hasLower := false, false
	for i := 0; i < len(body); i++ {
		c := body[i]
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
			hasLower = true
		case c >= 'A' && c <= 'F':
			hasUpper = true
		default:
			return false
		}
	}

	// Single-case addresses opted out of the checksum.
	if !hasUpper || !hasLower {
		return true
	}
	return checksumValid(body)
}

// checksumValid verifies the EIP-55 mixed-case checksum: each hex letter is
// uppercase iff the corresponding nibble of keccak256(lowercase address)
// is >= 8.
func checksumValid(body string) bool {
	lower := strings.ToLower(body)

	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(lower))
	hash := h.Sum(nil)

	for i := 0; i < len(body); i++ {
		c := body[i]
		if c >= '0' && c <= '9' {
			continue
		}
		nibble := hash[i/2]
		if i%2 == 0 {
			nibble >>= 4
		} else {
			nibble &= 0x0f
		}
		upper := nibble >= 8
		if upper != (c >= 'A' && c <= 'F') {
			return false
		}
	}
	return true
}
