package services

import (
	"fmt"
	"regexp"
	"strings"
)

// Follow-up phrasing refers to results already on screen. Checked first.
var followUpPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\bwhich (one|of them|is|would|should)\b`),
	regexp.MustCompile(`\b(the )?best (one|option|choice)\b`),
	regexp.MustCompile(`\bthe best\b`),
	regexp.MustCompile(`\b(of|among|between) (these|those|them)\b`),
	regexp.MustCompile(`\bcompare\b`),
	regexp.MustCompile(`\brecommend\b`),
	regexp.MustCompile(`\b(tell me )?more about\b`),
	regexp.MustCompile(`\b(the )?(first|second|third|last) one\b`),
	regexp.MustCompile(`\b(that|this) (one|place|spot)\b`),
	regexp.MustCompile(`^\s*(yes|yeah|yep|no|nope|ok|okay|sure|thanks|thank you|great)\s*[.!?]*\s*$`),
}

var newSearchPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b(i'm|i am|im|we're|we are) looking for\b`),
	regexp.MustCompile(`\blooking for\b`),
	regexp.MustCompile(`\b(places?|spots?|areas?|parking|sites?) (in|near|around|at)\b`),
	regexp.MustCompile(`\bcamp(site|sites|ing|ground|grounds)\b`),
	regexp.MustCompile(`\b(is|are) there\b`),
	regexp.MustCompile(`\bwhere can (i|we)\b`),
	regexp.MustCompile(`\b(sleep|overnight|park) (in|near|around)\b`),
	regexp.MustCompile(`(^|[\s¿])(dónde|donde|où|on puc|on podem)\s`),
	regexp.MustCompile(`\b(sitios?|lugares?|aires?|aparcamientos?|parkings?) (en|cerca de|près de|a prop de)\s`),
}

// capitalizedWord is a plausible place name: an uppercase letter followed by
// at least one more letter.
var capitalizedWord = regexp.MustCompile(`\p{Lu}\p{L}+`)

// IsNewSearch reports whether message asks for a new location search, as
// opposed to a follow-up about places already surfaced. Explicit follow-up
// phrasing wins; otherwise ambiguity leans towards searching again.
func IsNewSearch(message string) (bool, error) {
	if strings.TrimSpace(message) == "" {
		return false, fmt.Errorf("%w: empty message", ErrInvalidInput)
	}
	lower := strings.ToLower(strings.ReplaceAll(message, "’", "'"))

	for _, re := range followUpPatterns {
		if re.MatchString(lower) {
			return false, nil
		}
	}
	for _, re := range newSearchPatterns {
		if re.MatchString(lower) {
			return true, nil
		}
	}
	return capitalizedWord.MatchString(message), nil
}
