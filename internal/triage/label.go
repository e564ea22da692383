package triage

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Label is the category assigned to a message.
type Label string

const (
	LabelJob      Label = "JOB"
	LabelSpam     Label = "SPAM"
	LabelPersonal Label = "PERSONAL"
	LabelOther    Label = "OTHER"
	// LabelUnclassifiable marks model output that named no single known category.
	LabelUnclassifiable Label = "UNCLASSIFIABLE"
)

var knownLabels = map[string]Label{
	string(LabelJob):      LabelJob,
	string(LabelSpam):     LabelSpam,
	string(LabelPersonal): LabelPersonal,
	string(LabelOther):    LabelOther,
}

var upper = cases.Upper(language.Und)

func (l Label) String() string { return string(l) }

// Known reports whether l is one of the four categories the model may choose.
func (l Label) Known() bool {
	_, ok := knownLabels[string(l)]
	return ok
}

// ParseLabel normalizes raw model output. The output must be a known token,
// optionally wrapped in quotes or markdown, or start with one followed by
// text that names no other category ("SPAM." or "JOB - recruiter outreach").
// Everything else is LabelUnclassifiable.
func ParseLabel(raw string) Label {
	words := strings.FieldsFunc(upper.String(raw), func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	if len(words) == 0 {
		return LabelUnclassifiable
	}
	label, ok := knownLabels[words[0]]
	if !ok {
		return LabelUnclassifiable
	}
	for _, word := range words[1:] {
		if _, other := knownLabels[word]; other {
			return LabelUnclassifiable
		}
	}
	return label
}
