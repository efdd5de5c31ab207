// Package refusal classifies the start of a generative response as a content
// refusal. Refusals are structurally front-loaded: a model that declines says
// so in its first sentences, so classification is gated on the approximate
// position in the stream and late text is never a refusal, no matter what
// policy terms it happens to mention.
package refusal

import (
	"regexp"
	"strings"
)

// Grade is the coarse confidence attached to a detection.
type Grade string

const (
	High   Grade = "high"
	Medium Grade = "medium"
	Low    Grade = "low"
)

// Detection is the classifier verdict. Only High confidence should trigger a
// retry; Medium and Low are informational.
type Detection struct {
	IsRefusal      bool
	Confidence     Grade
	MatchedPattern string
}

// Position gates, in approximate tokens. Beyond maxRefusalTokens a response
// has committed to producing content; below mediumGateTokens softer phrasings
// are still trusted.
const (
	maxRefusalTokens = 200
	mediumGateTokens = 100
)

// tokensPerWord approximates subword tokenization from a whitespace word
// count. Exactness does not matter, only monotonic correlation with stream
// position.
const tokensPerWord = 1.3

// EstimateTokens approximates the token count of text.
func EstimateTokens(text string) int {
	return int(float64(len(strings.Fields(text))) * tokensPerWord)
}

// highPatterns are explicit decline phrasings. Covered languages: English,
// French, Spanish, German, Arabic, Chinese, Russian, plus generic
// policy/guideline phrasing.
var highPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bI\s+(?:cannot|can't|can not|won't|will not|must decline|am unable to|'m unable to)\b`),
	regexp.MustCompile(`(?i)\bI\s+must\s+(?:refuse|decline)\b`),
	regexp.MustCompile(`(?i)\bje\s+ne\s+peux\s+pas\b`),
	regexp.MustCompile(`(?i)\bje\s+suis\s+dans\s+l'impossibilité`),
	regexp.MustCompile(`(?i)\bno\s+puedo\b`),
	regexp.MustCompile(`(?i)\bno\s+me\s+es\s+posible\b`),
	regexp.MustCompile(`(?i)\bich\s+kann\s+(?:das\s+)?(?:leider\s+)?nicht\b`),
	regexp.MustCompile(`(?i)\bich\s+darf\s+nicht\b`),
	regexp.MustCompile(`لا\s+أستطيع`),
	regexp.MustCompile(`لا\s+يمكنني`),
	regexp.MustCompile(`我(?:无法|不能)`),
	// RE2's \b is ASCII-only; Cyrillic patterns anchor on non-letters.
	regexp.MustCompile(`(?i)(?:\A|[^\p{L}])я\s+не\s+могу(?:[^\p{L}]|\z)`),
	regexp.MustCompile(`(?i)(?:\A|[^\p{L}])я\s+не\s+можу(?:[^\p{L}]|\z)`),
	regexp.MustCompile(`할\s*수\s*없습니다`),
	regexp.MustCompile(`(?i)violat\w*\s+(?:\w+\s+){0,3}?(?:guidelines|policies|policy)`),
	regexp.MustCompile(`(?i)\bagainst\s+(?:my|our)\s+(?:guidelines|policies|policy)\b`),
}

// mediumPatterns are softer phrasings that accompany a refusal but also show
// up in benign text, so they are only trusted very early in a response.
var mediumPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bI\s+(?:don't|do not)\s+feel\s+comfortable\b`),
	regexp.MustCompile(`(?i)\bI'?m\s+(?:really\s+)?(?:sorry|afraid)\b`),
	regexp.MustCompile(`(?i)\bas\s+an\s+AI\b`),
	regexp.MustCompile(`(?i)\bje\s+suis\s+désolé`),
	regexp.MustCompile(`(?i)\blo\s+siento\b`),
	regexp.MustCompile(`(?i)\bes\s+tut\s+mir\s+leid\b`),
	regexp.MustCompile(`(?i)(?:\A|[^\p{L}])к\s+сожалению`),
	regexp.MustCompile(`عذرًا|آسف`),
	regexp.MustCompile(`抱歉|对不起`),
}

// Detect classifies text that sits approximately approxTokens into the
// response stream.
func Detect(text string, approxTokens int) Detection {
	if approxTokens > maxRefusalTokens {
		return Detection{IsRefusal: false, Confidence: Low}
	}
	for _, re := range highPatterns {
		if m := re.FindString(text); m != "" {
			return Detection{IsRefusal: true, Confidence: High, MatchedPattern: m}
		}
	}
	if approxTokens < mediumGateTokens {
		for _, re := range mediumPatterns {
			if m := re.FindString(text); m != "" {
				return Detection{IsRefusal: true, Confidence: Medium, MatchedPattern: m}
			}
		}
	}
	return Detection{IsRefusal: false, Confidence: Low}
}
