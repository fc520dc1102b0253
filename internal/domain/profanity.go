package domain

import (
	"strings"

	goaway "github.com/TwiN/go-away"
)

// IsProfane reports whether text contains profanity, either as typed or
// with its spaces removed ("f uck").
func IsProfane(text string) bool {
	return goaway.IsProfane(text) || goaway.IsProfane(strings.ReplaceAll(text, " ", ""))
}

// CensorLobbyName masks profane words in a lobby name with asterisks. The
// length is unchanged.
func CensorLobbyName(name string) string {
	return goaway.Censor(name)
}
