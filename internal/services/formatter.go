package services

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"camper-agent-service/internal/models"
)

const descriptionBudget = 150

// FormatPlaces renders places as a numbered list. The output depends only on
// its arguments.
func FormatPlaces(places []models.Place, term string) string {
	term = strings.TrimSpace(term)
	if len(places) == 0 {
		return fmt.Sprintf("No places found for %q. Try a nearby town or a wider area.", term)
	}

	var b strings.Builder
	noun := "places"
	if len(places) == 1 {
		noun = "place"
	}
	fmt.Fprintf(&b, "Found %d %s for %q:\n", len(places), noun, term)
	for i, p := range places {
		name := strings.TrimSpace(p.Name)
		if name == "" {
			name = "Unknown place"
		}
		fmt.Fprintf(&b, "\n%d. %s\n", i+1, name)
		fmt.Fprintf(&b, "   %s\n", truncateRunes(strings.TrimSpace(p.Description), descriptionBudget))
		if u := strings.TrimSpace(p.URL); u != "" {
			fmt.Fprintf(&b, "   %s\n", u)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func truncateRunes(s string, max int) string {
	if s == "" {
		return "No description available"
	}
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	r := []rune(s)
	return strings.TrimSpace(string(r[:max])) + "..."
}
