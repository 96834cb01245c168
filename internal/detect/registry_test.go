package detect_test

import (
	"testing"

	"github.com/xadriann/stockwatch/internal/config"
	"github.com/xadriann/stockwatch/internal/detect"
)

func TestNewAllBuildsFullBattery(t *testing.T) {
	detectors := detect.NewAll(config.Default().Rules, testClassifier())

	if len(detectors) != 12 {
		t.Fatalf("battery size = %d, want 12", len(detectors))
	}
	for i, d := range detectors {
		if want := i + 1; d.RuleID() != want {
			t.Errorf("position %d: rule ID = %d, want %d", i, d.RuleID(), want)
		}
		if d.Name() == "" {
			t.Errorf("rule %d has no name", d.RuleID())
		}
		if !d.Severity().Valid() {
			t.Errorf("rule %d severity %q is not valid", d.RuleID(), d.Severity())
		}
	}
}
