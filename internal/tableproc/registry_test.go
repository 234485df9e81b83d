package tableproc

import (
	"context"
	"strings"
	"testing"

	"github.com/anime-shed/table-cropper-go/pkg/models"
)

type stubProcessor struct{ langs []string }

func (p *stubProcessor) Name() string { return "stub" }

func (p *stubProcessor) DetectAndCorrect(ctx context.Context, data []byte, filename string) (models.CandidateSet, error) {
	return models.CandidateSet{}, nil
}

func TestRegistry(t *testing.T) {
	if _, err := Lookup("missing"); err == nil || !strings.Contains(err.Error(), "not compiled in") {
		t.Fatalf("Expected not compiled in error, got %v", err)
	}

	Register("stub", func(languages ...string) Processor { return &stubProcessor{langs: languages} })
	proc, err := Lookup("stub", "eng", "deu")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if got := proc.(*stubProcessor).langs; len(got) != 2 || got[1] != "deu" {
		t.Errorf("Expected languages to reach the constructor, got %v", got)
	}

	found := false
	for _, name := range Registered() {
		if name == "stub" {
			found = true
		}
	}
	if !found {
		t.Errorf("Expected stub in %v", Registered())
	}
}
