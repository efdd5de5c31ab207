package langsig

import (
	"regexp"
	"strings"
	"unicode"
)

// --- Detector 1: refusal phrases ---

// refusalMarkers holds, per non-default language, phrasings a model uses when
// declining, and domain words that anchor the refusal to a translation
// request. A language matches when the sample contains one marker from each
// list. English is deliberately absent: a base-language refusal carries no
// new signal and falls through the cascade.
var refusalMarkers = map[Code]struct{ refusal, domain []string }{
	French:    {[]string{"ne peux pas", "je ne peux", "je suis désolé", "désolé"}, []string{"traduire", "traduction", "document", "aider"}},
	Spanish:   {[]string{"no puedo", "lo siento", "no me es posible"}, []string{"traducir", "traducción", "documento", "ayudar"}},
	German:    {[]string{"kann nicht", "ich kann", "es tut mir leid", "leider nicht"}, []string{"übersetzen", "übersetzung", "dokument", "helfen"}},
	Arabic:    {[]string{"لا أستطيع", "لا يمكنني", "آسف", "عذرًا"}, []string{"ترجمة", "أترجم", "المستند", "مساعدتك"}},
	Chinese:   {[]string{"无法", "不能", "抱歉", "对不起"}, []string{"翻译", "文档", "帮助"}},
	Korean:    {[]string{"할 수 없", "수 없습니다", "죄송"}, []string{"번역", "문서", "도움"}},
	Russian:   {[]string{"не могу", "к сожалению", "извините"}, []string{"перевести", "перевод", "документ", "помочь"}},
	Ukrainian: {[]string{"не можу", "на жаль", "вибачте"}, []string{"перекласти", "переклад", "документ", "допомогти"}},
}

// refusalOrder fixes iteration order so detection is deterministic.
var refusalOrder = []Code{French, Spanish, German, Arabic, Chinese, Korean, Russian, Ukrainian}

func detectRefusalPhrase(in Input) (Code, bool) {
	sample := strings.ToLower(in.RefusalSample)
	if sample == "" {
		return "", false
	}
	for _, code := range refusalOrder {
		m := refusalMarkers[code]
		if containsAny(sample, m.refusal) && containsAny(sample, m.domain) {
			return code, true
		}
	}
	return "", false
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// --- Detector 2: explicit instruction ---

// instructionPatterns capture the language name from a "translate to X"
// phrasing, per instruction language. Each pattern allows a few intervening
// words within the same sentence ("translate this document into French").
var instructionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\btranslat(?:e|ed|ing|ion)\b[^.!?\n]{0,40}?\b(?:in)?to\s+([\p{L}-]+)`),
	regexp.MustCompile(`(?i)\btradui(?:re|s|sez|t|te|ction)\b[^.!?\n]{0,40}?\ben\s+([\p{L}-]+)`),
	regexp.MustCompile(`(?i)\btraduc(?:ir|e|es|ción|cion)\b[^.!?\n]{0,40}?\ba(?:l|\b)\s*([\p{L}-]+)`),
	// \b is an ASCII word boundary in RE2, useless next to Cyrillic or
	// umlauted letters; these patterns anchor on whitespace instead.
	regexp.MustCompile(`(?i)(?:\A|[^\p{L}])übersetz\p{L}*[^.!?\n]{0,40}?\s(?:ins|auf|in)\s+([\p{L}-]+)`),
	regexp.MustCompile(`(?i)перев(?:еди|едите|ести|од)[^.!?\n]{0,40}?\sна\s+([\p{L}-]+)`),
	regexp.MustCompile(`(?i)переклад\p{L}*[^.!?\n]{0,40}?\sна\s+([\p{L}-]+)`),
	regexp.MustCompile(`翻译成([\p{Han}]+)`),
	regexp.MustCompile(`([\p{Hangul}]+)로\s*번역`),
}

// arabicTarget matches "ترجم … إلى <language>".
var arabicTarget = regexp.MustCompile(`إلى\s+(ال[\p{Arabic}]+)`)

// languageNames maps a lowercased language name, in any supported instruction
// language, to its code. Adjective and declined forms appear where an
// instruction would naturally produce them ("ins Französische", "на
// французский").
var languageNames = map[string]Code{
	"english": English, "anglais": English, "inglés": English, "ingles": English,
	"englisch": English, "englische": English, "английский": English,
	"англійську": English, "англійська": English, "الإنجليزية": English,
	"英语": English, "英文": English, "영어": English,

	"french": French, "français": French, "francais": French, "francés": French,
	"frances": French, "französisch": French, "französische": French,
	"французский": French, "французьку": French, "французька": French,
	"الفرنسية": French, "法语": French, "法文": French, "프랑스어": French,

	"spanish": Spanish, "espagnol": Spanish, "español": Spanish, "espanol": Spanish,
	"spanisch": Spanish, "spanische": Spanish, "испанский": Spanish,
	"іспанську": Spanish, "іспанська": Spanish, "الإسبانية": Spanish,
	"西班牙语": Spanish, "스페인어": Spanish,

	"german": German, "allemand": German, "alemán": German, "aleman": German,
	"deutsch": German, "deutsche": German, "немецкий": German,
	"німецьку": German, "німецька": German, "الألمانية": German,
	"德语": German, "독일어": German,

	"arabic": Arabic, "arabe": Arabic, "árabe": Arabic, "arabisch": Arabic,
	"arabische": Arabic, "арабский": Arabic, "арабську": Arabic,
	"арабська": Arabic, "العربية": Arabic, "阿拉伯语": Arabic, "아랍어": Arabic,

	"chinese": Chinese, "chinois": Chinese, "chino": Chinese, "chinesisch": Chinese,
	"chinesische": Chinese, "китайский": Chinese, "китайську": Chinese,
	"китайська": Chinese, "الصينية": Chinese, "中文": Chinese, "汉语": Chinese,
	"중국어": Chinese,

	"korean": Korean, "coréen": Korean, "coreen": Korean, "coreano": Korean,
	"koreanisch": Korean, "koreanische": Korean, "корейский": Korean,
	"корейську": Korean, "корейська": Korean, "الكورية": Korean,
	"韩语": Korean, "한국어": Korean,

	"russian": Russian, "russe": Russian, "ruso": Russian, "russisch": Russian,
	"russische": Russian, "русский": Russian, "російську": Russian,
	"російська": Russian, "الروسية": Russian, "俄语": Russian, "러시아어": Russian,

	"ukrainian": Ukrainian, "ukrainien": Ukrainian, "ucraniano": Ukrainian,
	"ukrainisch": Ukrainian, "ukrainische": Ukrainian, "украинский": Ukrainian,
	"українську": Ukrainian, "українська": Ukrainian, "الأوكرانية": Ukrainian,
	"乌克兰语": Ukrainian, "우크라이나어": Ukrainian,
}

// explicitLanguage parses text for a "translate to <name>" instruction in any
// supported instruction language and maps the captured name to a code.
func explicitLanguage(text string) (Code, bool) {
	for _, re := range instructionPatterns {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		if code, ok := lookupLanguageName(m[1]); ok {
			return code, true
		}
	}
	if strings.Contains(text, "ترجم") {
		if m := arabicTarget.FindStringSubmatch(text); m != nil {
			if code, ok := lookupLanguageName(m[1]); ok {
				return code, true
			}
		}
	}
	return "", false
}

func lookupLanguageName(name string) (Code, bool) {
	name = strings.ToLower(strings.Trim(name, ".,!?;:'\"«»"))
	code, ok := languageNames[name]
	return code, ok
}

func detectExplicitInstruction(in Input) (Code, bool) {
	return explicitLanguage(in.Current)
}

// explicitTarget is the target-language variant: it scans for an indicator
// phrase anywhere in the message. Same mechanics as the conversation-side
// detector; kept separate so target resolution can evolve independently.
func explicitTarget(text string) (Code, bool) {
	return explicitLanguage(text)
}

// --- Detector 3: script ranges ---

// scriptRanges lists diagnostic Unicode blocks in priority order. Script
// presence is unambiguous, so the first block found wins.
var scriptRanges = []struct {
	code Code
	in   func(rune) bool
}{
	{Arabic, func(r rune) bool {
		return (r >= 0x0600 && r <= 0x06FF) || (r >= 0x0750 && r <= 0x077F)
	}},
	{Chinese, func(r rune) bool {
		return (r >= 0x4E00 && r <= 0x9FFF) || (r >= 0x3400 && r <= 0x4DBF)
	}},
	{Korean, func(r rune) bool {
		return (r >= 0xAC00 && r <= 0xD7AF) || (r >= 0x1100 && r <= 0x11FF)
	}},
	{Russian, func(r rune) bool {
		return r >= 0x0400 && r <= 0x04FF
	}},
}

// ukrainianLetters are Cyrillic letters used by Ukrainian but not Russian.
const ukrainianLetters = "ґєії"

func detectScript(in Input) (Code, bool) {
	for _, sr := range scriptRanges {
		for _, text := range in.userText() {
			if !containsRune(text, sr.in) {
				continue
			}
			if sr.code == Russian && strings.ContainsAny(text, ukrainianLetters) {
				return Ukrainian, true
			}
			return sr.code, true
		}
	}
	return "", false
}

func containsRune(s string, pred func(rune) bool) bool {
	for _, r := range s {
		if pred(r) {
			return true
		}
	}
	return false
}

// --- Detector 4: Latin keyword scoring ---

// keywordSets scores Latin-script languages by whole-word matches over
// function words plus domain words. Words shared between candidate languages
// are deliberately left out.
var keywordSets = []struct {
	code  Code
	words map[string]struct{}
}{
	{French, wordSet("le", "la", "les", "et", "est", "dans", "pour", "vous", "je",
		"bonjour", "merci", "veuillez", "traduire", "traduction", "ce", "cette", "document")},
	{Spanish, wordSet("el", "los", "las", "una", "usted", "hola", "gracias",
		"por", "favor", "puede", "traducir", "traducción", "este", "documento")},
	{German, wordSet("der", "die", "das", "und", "ist", "nicht", "ein", "bitte",
		"danke", "ich", "übersetzen", "übersetzung", "dokument")},
	{English, wordSet("the", "and", "is", "are", "you", "please", "hello",
		"thanks", "translate", "translation", "this", "can", "need", "my")},
}

// minKeywordMatches guards against false positives on short text.
const minKeywordMatches = 2

func wordSet(words ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}

func detectKeywords(in Input) (Code, bool) {
	words := tokenize(strings.ToLower(strings.Join(in.userText(), " ")))

	var best Code
	bestScore := 0
	for _, ks := range keywordSets {
		score := 0
		for _, w := range words {
			if _, ok := ks.words[w]; ok {
				score++
			}
		}
		if score > bestScore {
			best, bestScore = ks.code, score
		}
	}
	if bestScore < minKeywordMatches {
		return "", false
	}
	return best, true
}

func tokenize(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && r != '\''
	})
}
