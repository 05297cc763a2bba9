package utils

// IsHexAddress reports whether s looks like a 20-byte EVM address ("0x" + 40 hex).
// No checksum validation: the ledger side re-validates on submission.
func IsHexAddress(s string) bool {
	if len(s) != 42 || s[0] != '0' || (s[1] != 'x' && s[1] != 'X') {
		return false
	}
	for _, r := range s[2:] {
		switch {
		case r >= '0' && r <= '9':
		case r >= 'a' && r <= 'f':
		case r >= 'A' && r <= 'F':
		default:
			return false
		}
	}
	return true
}
