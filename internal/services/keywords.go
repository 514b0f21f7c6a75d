package services

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Prepositions that introduce a location, in English, Spanish, French and
// Catalan. Multi-word ones come before their prefixes.
const locationPreps = `(?:in|near|around|cerca\s+de|alrededor\s+de|en|près\s+de|pres\s+de|autour\s+de|dans|vers|a\s+prop\s+de|prop\s+de)`

// Location phrases, strongest first. The capture keeps the user's casing.
var locationPhrasePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(?:places?|spots?|campsites?|camping|campgrounds?|parking|areas?|sites?|sitios?|lugares?|aires?)\s+(?:at|` + locationPreps + `)\s+([^?.!;]+)`),
	regexp.MustCompile(`(?i)\b(?:looking\s+for|busco|buscamos|cherche|cherchons)\b.*?\b` + locationPreps + `\s+([^?.!;]+)`),
	regexp.MustCompile(`(?i)\b` + locationPreps + `\s+([^?.!;]+)`),
}

// Words that end the location part of a phrase ("Girona for tonight",
// "Valencia para esta noche").
var phraseTail = regexp.MustCompile(`(?i)\s+(?:for|with|that|which|where|this|next|tomorrow|tonight|please|and|or|para|pour|per|con|avec|amb|esta|este|cette|ce|y|et|i)\b.*$`)

var regionSuffix = regexp.MustCompile(`(?i)(?:,\s*|\s+)(?:spain|france|andorra|portugal|italy|germany|catalonia|catalunya|europe|(?:the\s+)?pyrenees|(?:the\s+)?alps|(?:the\s+)?costa\s+brava)\s*$`)

var leadingArticle = regexp.MustCompile(`(?i)^(?:the|a|an)\s+`)

var stopWords = map[string]struct{}{}

func init() {
	for _, w := range strings.Fields(`
		i im i'm we're let's me my we us you a an the some any is are there can could would should do does
		please hello hi hey thanks look looking for want wanna need find search show give get tell
		place places spot spots site sites area areas somewhere in near around at to of on by with
		where what which who how good nice and or this that tonight today tomorrow
		dónde donde où on hay busco buscamos quiero queremos puedo podemos dormir aparcar cerca
		sitio sitios lugar lugares para noche esta este
		cherche cherchons je nous peut peux pour près dans vers ce cette soir nuit
		puc podem aparcament prop
	`) {
		stopWords[w] = struct{}{}
	}
}

// ExtractKeywords derives a search term from a chat message. It tries a
// preposition-anchored location phrase, then a run of one or two capitalised
// words, then the first content words. It never returns an empty string for
// non-empty input; the trimmed message is the last resort.
func ExtractKeywords(message string) string {
	msg := strings.TrimSpace(strings.ReplaceAll(message, "’", "'"))
	if msg == "" {
		return ""
	}
	if loc := locationPhrase(msg); loc != "" {
		return loc
	}
	if name := capitalizedRun(msg); name != "" {
		return name
	}
	if kw := contentWords(msg, 3); kw != "" {
		return kw
	}
	return msg
}

func locationPhrase(msg string) string {
	for _, re := range locationPhrasePatterns {
		m := re.FindStringSubmatch(msg)
		if len(m) < 2 {
			continue
		}
		loc := phraseTail.ReplaceAllString(strings.TrimSpace(m[1]), "")
		loc = leadingArticle.ReplaceAllString(loc, "")
		for {
			stripped := regionSuffix.ReplaceAllString(loc, "")
			if stripped == loc {
				break
			}
			loc = stripped
		}
		if i := strings.Index(loc, ","); i >= 0 {
			loc = loc[:i]
		}
		loc = strings.TrimFunc(loc, func(r rune) bool { return unicode.IsSpace(r) || unicode.IsPunct(r) })
		if utf8.RuneCountInString(loc) > 2 && !isStopWord(loc) {
			return loc
		}
	}
	return ""
}

func isCapitalized(word string) bool {
	r, size := utf8.DecodeRuneInString(word)
	if !unicode.IsUpper(r) || utf8.RuneCountInString(word) < 2 {
		return false
	}
	for _, c := range word[size:] {
		if !unicode.IsLetter(c) && c != '-' && c != '\'' {
			return false
		}
	}
	return true
}

func capitalizedRun(msg string) string {
	tokens := strings.Fields(msg)
	for i := 0; i < len(tokens); i++ {
		w := strings.TrimFunc(tokens[i], unicode.IsPunct)
		if !isCapitalized(w) || isStopWord(w) {
			continue
		}
		run := w
		brokeOff := strings.TrimRightFunc(tokens[i], unicode.IsPunct) != tokens[i]
		if !brokeOff && i+1 < len(tokens) {
			next := strings.TrimFunc(tokens[i+1], unicode.IsPunct)
			if isCapitalized(next) && !isStopWord(next) {
				run += " " + next
			}
		}
		return run
	}
	return ""
}

func isStopWord(w string) bool {
	_, ok := stopWords[strings.ToLower(w)]
	return ok
}

func contentWords(msg string, max int) string {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			return unicode.ToLower(r)
		}
		return ' '
	}, msg)
	out := make([]string, 0, max)
	for _, w := range strings.Fields(cleaned) {
		if utf8.RuneCountInString(w) <= 2 || isStopWord(w) {
			continue
		}
		out = append(out, w)
		if len(out) == max {
			break
		}
	}
	return strings.Join(out, " ")
}
