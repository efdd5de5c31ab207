// Package langsig extracts language signals from conversation text: which
// language the user is writing in, and which language they want a document
// translated into. Detection is heuristic and entirely local, with no external
// calls.
//
// The conversation-language cascade is an ordered list of detector functions
// combined with a first-match-wins fold, so the priority order is data, not
// control flow:
//  1. Refusal-phrase matching over a sampled model refusal (the strongest
//     signal: the upstream model already committed to a language).
//  2. Explicit "translate to <language>" instruction in the current message.
//  3. Unicode script scan over user-authored text (Arabic, CJK, Hangul,
//     Cyrillic with a Ukrainian/Russian split on Ukrainian-only letters).
//  4. Whole-word keyword scoring for Latin-script languages, minimum two
//     matches.
//  5. Optional statistical detector (lingua) when enabled.
//  6. The base language.
package langsig

// Code is a supported language, a closed enumeration. The base language uses
// a region subtag because the translation backends distinguish en-US; the
// rest are plain ISO 639-1 codes.
type Code string

const (
	English   Code = "en-US"
	French    Code = "fr"
	Spanish   Code = "es"
	German    Code = "de"
	Arabic    Code = "ar"
	Chinese   Code = "zh"
	Korean    Code = "ko"
	Russian   Code = "ru"
	Ukrainian Code = "uk"
)

// Default is the base language assumed when no signal matches.
const Default = English

// Supported returns every language the pipeline can detect and localize for.
func Supported() []Code {
	return []Code{English, French, Spanish, German, Arabic, Chinese, Korean, Russian, Ukrainian}
}

// displayNames are English names used when engineering prompts.
var displayNames = map[Code]string{
	English: "English (US)", French: "French", Spanish: "Spanish",
	German: "German", Arabic: "Arabic", Chinese: "Chinese",
	Korean: "Korean", Russian: "Russian", Ukrainian: "Ukrainian",
}

// DisplayName returns the English name of the language, for use in prompts
// and logs.
func (c Code) DisplayName() string {
	if n, ok := displayNames[c]; ok {
		return n
	}
	return string(c)
}

// Valid reports whether c is one of the supported codes.
func Valid(c Code) bool {
	for _, s := range Supported() {
		if s == c {
			return true
		}
	}
	return false
}

// Input is what one detection pass sees: the current message, prior
// user-authored messages, and optionally the buffered start of a model
// refusal.
type Input struct {
	Current       string
	Prior         []string
	RefusalSample string
}

// userText returns current + prior in scan order.
func (in Input) userText() []string {
	out := make([]string, 0, len(in.Prior)+1)
	if in.Current != "" {
		out = append(out, in.Current)
	}
	return append(out, in.Prior...)
}

// Detector inspects one kind of signal and reports a language, or not.
type Detector func(Input) (Code, bool)

// Extractor runs the detection cascade. The zero value is not usable; call
// New.
type Extractor struct {
	detectors      []Detector
	targetFallback map[Code]Code
	statistical    *StatisticalDetector
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithStatistical appends a lingua-backed statistical detector between the
// keyword scorer and the default. The model is built here, once, at
// construction. Deterministic deployments leave it off.
func WithStatistical() Option {
	return WithStatisticalDetector(NewStatisticalDetector())
}

// WithStatisticalDetector is WithStatistical with a caller-built model.
func WithStatisticalDetector(d *StatisticalDetector) Option {
	return func(e *Extractor) {
		e.statistical = d
		e.detectors = append(e.detectors, d.cascadeStep())
	}
}

// Statistical returns the configured statistical detector, or nil when the
// cascade is purely deterministic.
func (e *Extractor) Statistical() *StatisticalDetector { return e.statistical }

// WithTargetFallback overrides the static conversation-to-target mapping used
// when no explicit target instruction is found. Entries must never map a
// language to itself.
func WithTargetFallback(m map[Code]Code) Option {
	return func(e *Extractor) {
		for k, v := range m {
			e.targetFallback[k] = v
		}
	}
}

// New builds an Extractor with the standard cascade.
func New(opts ...Option) *Extractor {
	e := &Extractor{
		detectors: []Detector{
			detectRefusalPhrase,
			detectExplicitInstruction,
			detectScript,
			detectKeywords,
		},
		targetFallback: defaultTargetFallback(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// defaultTargetFallback maps a conversation language to the target assumed
// when the user never names one. Documents arriving in any foreign language
// default to the base language; a base-language conversation defaults to
// French. The mapping never sends a language to itself.
func defaultTargetFallback() map[Code]Code {
	m := make(map[Code]Code, len(Supported()))
	for _, c := range Supported() {
		m[c] = English
	}
	m[English] = French
	return m
}

// ConversationLanguage resolves the language the conversation is held in.
// refusalSample may be empty; when present it is the buffered start of a
// model refusal and dominates all other signals.
func (e *Extractor) ConversationLanguage(current string, prior []string, refusalSample string) Code {
	in := Input{Current: current, Prior: prior, RefusalSample: refusalSample}
	for _, d := range e.detectors {
		if code, ok := d(in); ok {
			return code
		}
	}
	return Default
}

// TargetLanguage resolves the language the user wants output in. An explicit
// indicator phrase anywhere in the current message wins; otherwise the
// conversation language is mapped through the static fallback table, which
// never yields "translate into the same language".
func (e *Extractor) TargetLanguage(current string, prior []string) Code {
	if code, ok := explicitTarget(current); ok {
		return code
	}
	conv := e.ConversationLanguage(current, prior, "")
	if t, ok := e.targetFallback[conv]; ok && t != conv {
		return t
	}
	if conv != Default {
		return Default
	}
	return French
}
