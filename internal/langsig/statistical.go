package langsig

import (
	"strings"

	lingua "github.com/pemistahl/lingua-go"
)

// linguaLanguages restricts the statistical model to the supported set; a
// full-alphabet detector is slower to build and can only return codes the
// cascade would have to discard anyway.
var linguaLanguages = []lingua.Language{
	lingua.English, lingua.French, lingua.Spanish, lingua.German,
	lingua.Arabic, lingua.Chinese, lingua.Korean, lingua.Russian,
	lingua.Ukrainian,
}

var linguaCodes = map[lingua.Language]Code{
	lingua.English: English, lingua.French: French, lingua.Spanish: Spanish,
	lingua.German: German, lingua.Arabic: Arabic, lingua.Chinese: Chinese,
	lingua.Korean: Korean, lingua.Russian: Russian, lingua.Ukrainian: Ukrainian,
}

// StatisticalDetector wraps a lingua model restricted to the supported set.
// Construction is expensive; build one at process start and inject it.
type StatisticalDetector struct {
	model lingua.LanguageDetector
}

// NewStatisticalDetector builds the model.
func NewStatisticalDetector() *StatisticalDetector {
	return &StatisticalDetector{
		model: lingua.NewLanguageDetectorBuilder().
			FromLanguages(linguaLanguages...).
			Build(),
	}
}

// Detect classifies text statistically. Empty or undetectable text reports
// no detection.
func (d *StatisticalDetector) Detect(text string) (Code, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", false
	}
	lang, ok := d.model.DetectLanguageOf(text)
	if !ok {
		return "", false
	}
	code, ok := linguaCodes[lang]
	return code, ok
}

// cascadeStep adapts the detector to the conversation-language cascade.
func (d *StatisticalDetector) cascadeStep() Detector {
	return func(in Input) (Code, bool) {
		return d.Detect(strings.Join(in.userText(), " "))
	}
}
