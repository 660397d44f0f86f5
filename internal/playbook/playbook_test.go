package playbook_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"tidybox/internal/playbook"
	"tidybox/internal/synthesis"
)

var generated = time.Date(2025, 3, 4, 10, 0, 0, 0, time.UTC)

func names(frameworks []synthesis.Framework) []string {
	out := make([]string, 0, len(frameworks))
	for _, fw := range frameworks {
		out = append(out, fw.Name)
	}
	return out
}

func TestGroupByTypeOrder(t *testing.T) {
	frameworks := []synthesis.Framework{
		{Name: "Zeta", Type: "scaling_framework"},
		{Name: "Odd", Type: "mystery_framework"},
		{Name: "Beta", Type: "process_framework"},
		{Name: "Alpha", Type: "process_framework"},
		{Name: "Gamma", Type: "model_framework"},
	}
	groups := playbook.GroupByType(frameworks)
	var headings []string
	for _, g := range groups {
		headings = append(headings, g.Heading)
	}
	want := []string{"Process Frameworks", "Model Frameworks", "Scaling Frameworks", "Mystery Frameworks"}
	if diff := cmp.Diff(want, headings); diff != "" {
		t.Fatalf("heading order mismatch:\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Alpha", "Beta"}, names(groups[0].Frameworks)); diff != "" {
		t.Fatalf("group order mismatch:\n%s", diff)
	}
	if got := playbook.TypeHeading(""); got != "Uncategorized" {
		t.Fatalf("expected Uncategorized, got %q", got)
	}
}

func TestRenderSections(t *testing.T) {
	frameworks := []synthesis.Framework{
		{
			Name:                "Pilot Ladder",
			Type:                "scaling_framework",
			Definition:          "Scale in rungs.",
			CorePrinciple:       "Prove before expanding.",
			Components:          []synthesis.Component{{Name: "Pilot", Purpose: "Prove value", KeyActivities: []string{"Pick a team"}}},
			WhenToUse:           "New capability.",
			ImplementationSteps: []string{"Pick", "Measure"},
			SuccessMetrics:      []string{"Adoption"},
			EvidenceSources:     2,
			Confidence:          0.8,
			SourceDates:         []string{"2025-01-10", "2025-02-11"},
			SupportingEvidence:  &synthesis.Evidence{Quotes: []string{"rung by\nrung"}},
			Actionability: &synthesis.Actionability{
				DecisionTree:            "IF pilot works THEN expand",
				ImplementationChecklist: []string{"Pick a team"},
				DecisionPoints:          []synthesis.DecisionPoint{{Question: "Expand?", Options: []string{"yes", "no"}, Criteria: "adoption"}},
				RiskMitigation:          []string{"Scope creep: timebox"},
			},
		},
		{Name: "Value Map", Type: "process_framework", Definition: "Map value.", ActionabilityError: "response schema violation"},
	}
	doc := playbook.Render("AI Playbook", frameworks, generated)

	for _, want := range []string{
		"# AI Playbook\n",
		"_Generated 2025-03-04 from 2 frameworks._",
		"## Process Frameworks",
		"### 1. Value Map",
		"### 2. Pilot Ladder",
		"**Confidence:** 0.80 | **Sources:** 2 | **Dates:** 2025-01-10, 2025-02-11",
		"#### Definition\n\nScale in rungs.",
		"- **Pilot**: Prove value\n  - Key activities: Pick a team",
		"1. Pick\n2. Measure",
		"> rung by rung",
		"```text\nIF pilot works THEN expand\n```",
		"- [ ] Pick a team",
		"- Expand? (yes / no): adoption",
		"_Implementation guidance unavailable: response schema violation_",
	} {
		if !strings.Contains(doc, want) {
			t.Errorf("rendered playbook missing %q", want)
		}
	}
	if strings.Index(doc, "## Process Frameworks") > strings.Index(doc, "## Scaling Frameworks") {
		t.Fatal("process frameworks should come before scaling frameworks")
	}
	if strings.Contains(doc, "When Not to Use") {
		t.Fatal("empty sections should be omitted")
	}
}

func TestWriteSanitizesName(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "playbooks")
	path, err := playbook.Write(dir, "AI: Transformation/Playbook?", nil, generated)
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if filepath.Base(path) != "AI-_Transformation-Playbook.md" {
		t.Fatalf("unexpected file name %q", filepath.Base(path))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read playbook: %v", err)
	}
	if !strings.HasPrefix(string(data), "# AI: Transformation/Playbook?\n") {
		t.Fatalf("unexpected content %q", data)
	}
	if got := playbook.FileName("  "); got != "Strategic_Playbook.md" {
		t.Fatalf("expected default file name, got %q", got)
	}
}

func TestMergeFirstSetWins(t *testing.T) {
	first := []synthesis.Framework{
		{Name: "Pilot Ladder", Type: "scaling_framework", Definition: "first"},
		{Name: "Value Map", Type: "model_framework"},
	}
	second := []synthesis.Framework{
		{Name: "Pilot Ladder", Type: "process_framework", Definition: "second"},
		{Name: "Intake Flow", Type: "process_framework"},
	}
	merged := playbook.Merge(first, second)
	if diff := cmp.Diff([]string{"Intake Flow", "Value Map", "Pilot Ladder"}, names(merged.Frameworks)); diff != "" {
		t.Fatalf("merge order mismatch:\n%s", diff)
	}
	if merged.Frameworks[2].Definition != "first" {
		t.Fatalf("expected first set to win, got %q", merged.Frameworks[2].Definition)
	}
	if diff := cmp.Diff([]string{"Pilot Ladder"}, merged.Duplicates); diff != "" {
		t.Fatalf("duplicates mismatch:\n%s", diff)
	}
	want := map[string]int{"process_framework": 1, "model_framework": 1, "scaling_framework": 1}
	if diff := cmp.Diff(want, playbook.CountByType(merged.Frameworks)); diff != "" {
		t.Fatalf("counts mismatch:\n%s", diff)
	}
}
