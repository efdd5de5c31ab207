package langsig_test

import (
	"testing"

	"github.com/valpere/perelay/internal/langsig"
)

func TestStatisticalDetector(t *testing.T) {
	det := langsig.NewStatisticalDetector()
	french := "Bonjour, je voudrais obtenir une traduction complète de ce document administratif, " +
		"car je dois le présenter aux autorités la semaine prochaine."

	code, ok := det.Detect(french)
	if !ok {
		t.Fatal("expected a detection for unambiguous French prose")
	}
	if code != langsig.French {
		t.Errorf("detected %s, want fr", code)
	}

	if _, ok := det.Detect(""); ok {
		t.Error("empty text should not detect")
	}
}

func TestStatistical_InjectedAndExposed(t *testing.T) {
	if langsig.New().Statistical() != nil {
		t.Error("deterministic extractor should carry no statistical detector")
	}

	det := langsig.NewStatisticalDetector()
	e := langsig.New(langsig.WithStatisticalDetector(det))
	if e.Statistical() != det {
		t.Error("extractor does not expose the injected detector")
	}
}

func TestWithStatistical_ExtendsCascade(t *testing.T) {
	// Prose with no script signal and no scorable keywords: only the
	// statistical step can catch it.
	text := "quisiera obtener una copia certificada cuanto antes"

	plain := langsig.New()
	if got := plain.ConversationLanguage(text, nil, ""); got != langsig.Default {
		t.Fatalf("deterministic cascade unexpectedly detected %s", got)
	}

	stat := langsig.New(langsig.WithStatistical())
	if got := stat.ConversationLanguage(text, nil, ""); got != langsig.Spanish {
		t.Errorf("statistical cascade detected %s, want es", got)
	}
}
