package translate

import (
	"strings"
	"testing"

	"github.com/valpere/perelay/internal/logger"
	"github.com/valpere/perelay/internal/placeholder"
)

func TestGoogleRestoreMarkup_ToleratesLostMarkers(t *testing.T) {
	g := NewGoogleBackend(nil, logger.Nop())

	protected, markers := placeholder.Protect("Run `make build` and see <b>docs</b> for details.")
	if len(markers) != 3 {
		t.Fatalf("expected 3 markers, got %d", len(markers))
	}

	// Simulate the backend dropping one marker from its output.
	mangled := strings.Replace(protected, "[PH0]", "", 1)

	out := g.restoreMarkup(mangled, markers)
	if strings.Contains(out, "[PH") {
		t.Errorf("surviving markers not restored: %q", out)
	}
	if !strings.Contains(out, "<b>") {
		t.Errorf("surviving markup lost: %q", out)
	}
}
