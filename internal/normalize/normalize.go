// Package normalize canonicalizes free-text roster fields into comparable keys.
package normalize

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Identifier trims v and title-cases each word. A missing or blank value
// yields ok=false. Identifier(Identifier(v)) == Identifier(v).
func Identifier(v string, present bool) (string, bool) {
	if !present {
		return "", false
	}
	s := strings.TrimSpace(v)
	if s == "" {
		return "", false
	}
	// A Caser carries state; one per call keeps Identifier safe for concurrent use.
	return cases.Title(language.Und).String(s), true
}

// RoleClass is the coarse class of a free-text role field.
type RoleClass string

const (
	RoleDebuffer RoleClass = "Debuffer"
	RoleAce      RoleClass = "Ace"
	RoleOther    RoleClass = "Other"
)

// Role classifies role text. "hybrid" roles are reported as debuffers.
// Missing or blank text yields ok=false.
func Role(text string, present bool) (RoleClass, bool) {
	if !present {
		return "", false
	}
	s := strings.ToLower(strings.TrimSpace(text))
	if s == "" {
		return "", false
	}
	switch {
	case strings.Contains(s, "debuffer"), strings.Contains(s, "hybrid"):
		return RoleDebuffer, true
	case strings.Contains(s, "ace"):
		return RoleAce, true
	}
	return RoleOther, true
}

// StyleClass is the canonical running style of a roster member.
type StyleClass string

const (
	StyleFrontRunner StyleClass = "Front Runner"
	StylePaceChaser  StyleClass = "Pace Chaser"
	StyleLateSurger  StyleClass = "Late Surger"
	StyleEndCloser   StyleClass = "End Closer"
	StyleUnknown     StyleClass = "Unknown Style"
)

// Style maps style text such as "front", "Pace" or "end closer" onto a
// StyleClass. The first keyword found wins, checked in the order front,
// pace, late, end. Missing or blank text yields ok=false.
func Style(text string, present bool) (StyleClass, bool) {
	if !present {
		return "", false
	}
	s := strings.ToLower(strings.TrimSpace(text))
	if s == "" {
		return "", false
	}
	switch {
	case strings.Contains(s, "front"):
		return StyleFrontRunner, true
	case strings.Contains(s, "pace"):
		return StylePaceChaser, true
	case strings.Contains(s, "late"):
		return StyleLateSurger, true
	case strings.Contains(s, "end"):
		return StyleEndCloser, true
	}
	return StyleUnknown, true
}
