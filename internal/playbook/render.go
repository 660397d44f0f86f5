package playbook

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"tidybox/internal/synthesis"
	"tidybox/internal/textutil"
)

const defaultTitle = "Strategic Playbook"

// Group is the frameworks of one type.
type Group struct {
	Type       string
	Heading    string
	Frameworks []synthesis.Framework
}

// GroupByType orders frameworks by type rank then name and splits them into
// groups.
func GroupByType(frameworks []synthesis.Framework) []Group {
	sorted := append([]synthesis.Framework(nil), frameworks...)
	sortFrameworks(sorted)

	var groups []Group
	for _, fw := range sorted {
		if n := len(groups); n > 0 && groups[n-1].Type == fw.Type {
			groups[n-1].Frameworks = append(groups[n-1].Frameworks, fw)
			continue
		}
		groups = append(groups, Group{Type: fw.Type, Heading: TypeHeading(fw.Type), Frameworks: []synthesis.Framework{fw}})
	}
	return groups
}

// TypeHeading turns "process_framework" into "Process Frameworks".
func TypeHeading(frameworkType string) string {
	t := strings.TrimSpace(strings.ReplaceAll(frameworkType, "_", " "))
	if t == "" {
		return "Uncategorized"
	}
	return cases.Title(language.English).String(t) + "s"
}

func sortFrameworks(frameworks []synthesis.Framework) {
	sort.SliceStable(frameworks, func(i, j int) bool {
		ri, rj := synthesis.TypeRank(frameworks[i].Type), synthesis.TypeRank(frameworks[j].Type)
		if ri != rj {
			return ri < rj
		}
		if frameworks[i].Type != frameworks[j].Type {
			return frameworks[i].Type < frameworks[j].Type
		}
		return frameworks[i].Name < frameworks[j].Name
	})
}

// Render returns the playbook document.
func Render(title string, frameworks []synthesis.Framework, generatedAt time.Time) string {
	if strings.TrimSpace(title) == "" {
		title = defaultTitle
	}
	groups := GroupByType(frameworks)

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", strings.TrimSpace(title))
	fmt.Fprintf(&b, "_Generated %s from %d frameworks._\n\n", generatedAt.Format("2006-01-02"), len(frameworks))

	b.WriteString("## Contents\n\n")
	for _, g := range groups {
		fmt.Fprintf(&b, "- **%s** (%d)\n", g.Heading, len(g.Frameworks))
		for _, fw := range g.Frameworks {
			fmt.Fprintf(&b, "  - %s\n", fw.Name)
		}
	}
	b.WriteString("\n")

	n := 0
	for _, g := range groups {
		fmt.Fprintf(&b, "## %s\n\n", g.Heading)
		for _, fw := range g.Frameworks {
			n++
			renderFramework(&b, n, fw)
		}
	}
	return strings.TrimRight(b.String(), "\n") + "\n"
}

func renderFramework(b *strings.Builder, n int, fw synthesis.Framework) {
	fmt.Fprintf(b, "### %d. %s\n\n", n, fw.Name)
	dates := strings.Join(fw.SourceDates, ", ")
	if dates == "" {
		dates = "unknown"
	}
	fmt.Fprintf(b, "**Confidence:** %.2f | **Sources:** %d | **Dates:** %s\n\n", fw.Confidence, fw.EvidenceSources, dates)

	section(b, "Definition", fw.Definition)
	section(b, "Core Principle", fw.CorePrinciple)

	if len(fw.Components) > 0 {
		b.WriteString("#### Components\n\n")
		for _, c := range fw.Components {
			if c.Purpose != "" {
				fmt.Fprintf(b, "- **%s**: %s\n", c.Name, c.Purpose)
			} else {
				fmt.Fprintf(b, "- **%s**\n", c.Name)
			}
			nested(b, "Key activities", c.KeyActivities)
			nested(b, "Success criteria", c.SuccessCriteria)
			nested(b, "Common pitfalls", c.CommonPitfalls)
		}
		b.WriteString("\n")
	}

	section(b, "When to Use", fw.WhenToUse)
	section(b, "When Not to Use", fw.WhenNotToUse)
	numbered(b, "Implementation Steps", fw.ImplementationSteps)
	section(b, "Decision Logic", fw.DecisionLogic)
	bullets(b, "Success Metrics", fw.SuccessMetrics)

	if ev := fw.SupportingEvidence; ev != nil && len(ev.Quotes)+len(ev.CaseStudies) > 0 {
		b.WriteString("#### Evidence\n\n")
		for _, q := range ev.Quotes {
			fmt.Fprintf(b, "> %s\n\n", strings.Join(strings.Fields(q), " "))
		}
		for _, cs := range ev.CaseStudies {
			fmt.Fprintf(b, "- Case study: %s\n", cs)
		}
		if len(ev.CaseStudies) > 0 {
			b.WriteString("\n")
		}
	}

	renderActionability(b, fw)
	b.WriteString("---\n\n")
}

func renderActionability(b *strings.Builder, fw synthesis.Framework) {
	b.WriteString("#### Putting It Into Practice\n\n")
	a := fw.Actionability
	if a == nil {
		reason := fw.ActionabilityError
		if reason == "" {
			reason = "not generated"
		}
		fmt.Fprintf(b, "_Implementation guidance unavailable: %s_\n\n", reason)
		return
	}
	if strings.TrimSpace(a.DecisionTree) != "" {
		b.WriteString("**Decision tree**\n\n```text\n")
		b.WriteString(strings.TrimRight(a.DecisionTree, "\n"))
		b.WriteString("\n```\n\n")
	}
	if len(a.ImplementationChecklist) > 0 {
		b.WriteString("**Checklist**\n\n")
		for _, item := range a.ImplementationChecklist {
			fmt.Fprintf(b, "- [ ] %s\n", item)
		}
		b.WriteString("\n")
	}
	if len(a.DecisionPoints) > 0 {
		b.WriteString("**Decision points**\n\n")
		for _, dp := range a.DecisionPoints {
			fmt.Fprintf(b, "- %s", dp.Question)
			if len(dp.Options) > 0 {
				fmt.Fprintf(b, " (%s)", strings.Join(dp.Options, " / "))
			}
			if dp.Criteria != "" {
				fmt.Fprintf(b, ": %s", dp.Criteria)
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	if len(a.RiskMitigation) > 0 {
		b.WriteString("**Risks**\n\n")
		for _, r := range a.RiskMitigation {
			fmt.Fprintf(b, "- %s\n", r)
		}
		b.WriteString("\n")
	}
}

func section(b *strings.Builder, heading, body string) {
	body = strings.TrimSpace(body)
	if body == "" {
		return
	}
	fmt.Fprintf(b, "#### %s\n\n%s\n\n", heading, body)
}

func bullets(b *strings.Builder, heading string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "#### %s\n\n", heading)
	for _, item := range items {
		fmt.Fprintf(b, "- %s\n", item)
	}
	b.WriteString("\n")
}

func numbered(b *strings.Builder, heading string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "#### %s\n\n", heading)
	for i, item := range items {
		fmt.Fprintf(b, "%d. %s\n", i+1, item)
	}
	b.WriteString("\n")
}

func nested(b *strings.Builder, label string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "  - %s: %s\n", label, strings.Join(items, "; "))
}

// FileName returns the markdown file name for a playbook title.
func FileName(title string) string {
	name := strings.Join(strings.Fields(textutil.SanitizeFileName(title)), "_")
	if name == "" {
		name = strings.ReplaceAll(defaultTitle, " ", "_")
	}
	return name + ".md"
}

// Write renders the playbook into dir and returns the file path. An existing
// playbook with the same title is replaced.
func Write(dir, title string, frameworks []synthesis.Framework, now time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create playbook directory: %w", err)
	}
	path := filepath.Join(dir, FileName(title))
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(Render(title, frameworks, now)), 0o644); err != nil {
		return "", fmt.Errorf("write playbook: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("replace playbook: %w", err)
	}
	return path, nil
}
