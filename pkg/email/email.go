package email

import (
	"net/mail"
	"strings"
)

// Normalize lowercases and trims an email address so member lookups are
// insensitive to how the address was typed on the client.
func Normalize(address string) string {
	return strings.ToLower(strings.TrimSpace(address))
}

// IsValid reports whether the address parses as a bare RFC 5322 address.
// Display names ("Alice <a@x.com>") are rejected; member emails are stored
// as plain addresses.
func IsValid(address string) bool {
	parsed, err := mail.ParseAddress(address)
	if err != nil {
		return false
	}
	return parsed.Address == address
}
