package models

import "strings"

type Credential struct {
	Token    string `json:"token"`
	Username string `json:"username"`
}

// Valid reports whether both the token and the username are present.
func (c Credential) Valid() bool {
	return strings.TrimSpace(c.Token) != "" && strings.TrimSpace(c.Username) != ""
}

// Masked returns the token with everything but the last four characters hidden.
func (c Credential) Masked() string {
	if len(c.Token) <= 4 {
		return strings.Repeat("*", len(c.Token))
	}
	return strings.Repeat("*", len(c.Token)-4) + c.Token[len(c.Token)-4:]
}
