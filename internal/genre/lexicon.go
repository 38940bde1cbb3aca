// Package genre is a keyword heuristic over title and author text. It is a
// coarse multi-label matcher, not a trained classifier.
package genre

import (
	"regexp"
	"strings"
)

// General is the label for text that matches no genre.
const General = "general"

// Lexicon maps genres to keywords. It is immutable after construction and
// safe for concurrent use.
type Lexicon struct {
	order    []string
	keywords map[string][]string
	patterns map[string]*regexp.Regexp
}

type entry struct {
	genre    string
	keywords []string
}

var defaultEntries = []entry{
	{"fantasy", []string{
		"fantasy", "magic", "dragon", "wizard", "magical", "enchanted",
		"fairy", "mythical", "quest", "prophecy", "sword", "sorcery",
		"hobbit", "elf", "dwarf", "tolkien", "potter", "chronicles",
	}},
	{"romance", []string{
		"romance", "love", "heart", "passion", "wedding", "bride",
		"dating", "relationship", "romantic", "affair", "lover",
	}},
	{"mystery", []string{
		"mystery", "detective", "crime", "murder", "investigation",
		"suspect", "clue", "police", "thriller", "suspense", "noir",
	}},
	{"science_fiction", []string{
		"science", "fiction", "space", "future", "robot", "alien",
		"galaxy", "planet", "time", "travel", "cyberpunk", "dystopian",
	}},
	{"horror", []string{
		"horror", "scary", "ghost", "haunted", "vampire", "zombie",
		"supernatural", "evil", "dark", "terror", "nightmare",
	}},
	{"adventure", []string{
		"adventure", "journey", "exploration", "expedition", "survival",
		"treasure", "island", "wilderness", "danger", "action",
	}},
	{"biography", []string{
		"biography", "memoir", "life", "autobiography", "story", "born",
		"childhood", "personal", "history", "true", "real",
	}},
	{"history", []string{
		"history", "historical", "war", "ancient", "medieval", "century",
		"empire", "revolution", "battle", "past", "civilization",
	}},
	{"philosophy", []string{
		"philosophy", "philosophical", "meaning", "existence", "truth",
		"wisdom", "thought", "consciousness", "ethics", "morality",
	}},
	{"self_help", []string{
		"self", "help", "improvement", "success", "motivational",
		"productivity", "habits", "mindset", "personal", "development",
	}},
}

// DefaultLexicon returns the built-in ten-genre lexicon.
func DefaultLexicon() *Lexicon {
	return newLexicon(defaultEntries)
}

func newLexicon(entries []entry) *Lexicon {
	l := &Lexicon{
		order:    make([]string, 0, len(entries)),
		keywords: make(map[string][]string, len(entries)),
		patterns: make(map[string]*regexp.Regexp, len(entries)),
	}
	for _, e := range entries {
		l.order = append(l.order, e.genre)
		l.keywords[e.genre] = append([]string(nil), e.keywords...)
		l.patterns[e.genre] = keywordPattern(e.keywords)
	}
	return l
}

func keywordPattern(keywords []string) *regexp.Regexp {
	quoted := make([]string, len(keywords))
	for i, k := range keywords {
		quoted[i] = regexp.QuoteMeta(k)
	}
	return regexp.MustCompile(`(?i)` + strings.Join(quoted, "|"))
}

// Genres lists the known genres in declaration order.
func (l *Lexicon) Genres() []string {
	return append([]string(nil), l.order...)
}

// Keywords returns a copy of the genre's keyword list.
func (l *Lexicon) Keywords(genre string) ([]string, bool) {
	kw, ok := l.keywords[strings.ToLower(genre)]
	if !ok {
		return nil, false
	}
	return append([]string(nil), kw...), true
}

// Classify returns every genre with a keyword contained in the lowercased
// title and author, or [General] when none match.
func (l *Lexicon) Classify(title, author string) []string {
	text := strings.ToLower(title + " " + author)

	var matched []string
	for _, g := range l.order {
		for _, kw := range l.keywords[g] {
			if strings.Contains(text, kw) {
				matched = append(matched, g)
				break
			}
		}
	}
	if len(matched) == 0 {
		return []string{General}
	}
	return matched
}

// pattern returns the genre's keyword matcher. Unknown genres match their own name.
func (l *Lexicon) pattern(genre string) *regexp.Regexp {
	if p, ok := l.patterns[genre]; ok {
		return p
	}
	return keywordPattern([]string{genre})
}
