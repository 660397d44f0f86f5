package synthesis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"tidybox/internal/logging"
	"tidybox/internal/prompts"
	"tidybox/internal/services"
	"tidybox/internal/textutil"
	"tidybox/internal/transcripts"
)

const (
	maxEvidenceCandidates   = 10
	evidenceQuoteLimit      = 200
	maxSupportingQuotes     = 5
	actionabilityComponents = 5
)

// Models names the model used by each calling pass.
type Models struct {
	Discovery     string
	Synthesis     string
	Actionability string
}

// Limits bound how much work and prompt text each pass uses. Non-positive
// values mean no limit.
type Limits struct {
	DiscoveryLimit int
	MaxFrameworks  int
	MaxChunks      int
	MaxPromptChars int
}

// Pipeline holds everything the passes share.
type Pipeline struct {
	WorkDir   string
	Models    Models
	Limits    Limits
	LLM       Completer
	Prompts   *prompts.Loader
	Validator *Validator
	Budget    *Budget
	Pricing   Pricing
	Recorder  CallRecorder
	Logger    *slog.Logger
	RunID     string
}

// Result summarizes a run.
type Result struct {
	RunID      string
	From       Stage
	Candidates int
	Frameworks []Framework
	Skipped    int
	FinalPath  string
	Spent      float64
}

// Run executes the passes starting at from. Earlier passes are not rerun;
// their artifacts are read from WorkDir. transcriptFiles is only used when
// starting at discovery.
func (p *Pipeline) Run(ctx context.Context, transcriptFiles []string, from Stage) (Result, error) {
	p.ensureRun()
	result, err := p.run(ctx, transcriptFiles, from)
	result.Spent = p.Budget.Spent()
	return result, err
}

func (p *Pipeline) run(ctx context.Context, transcriptFiles []string, from Stage) (Result, error) {
	result := Result{RunID: p.RunID, From: from}
	ctx = services.WithRunID(ctx, p.RunID)
	start := from.index()
	if start < 0 {
		return result, fmt.Errorf("unknown stage %q", from)
	}

	var (
		candidates []Candidate
		frameworks []Framework
		err        error
	)
	if start > 0 {
		input := filepath.Join(p.WorkDir, inputFor(from))
		if from == StageSynthesis {
			err = ReadJSON(input, &candidates)
		} else {
			err = ReadJSON(input, &frameworks)
		}
		if err != nil {
			return result, services.Wrap(services.ErrNotFound, string(from), "resume", "read previous pass output", err)
		}
	}

	if start <= StageDiscovery.index() {
		candidates, err = p.Discover(ctx, transcriptFiles)
		if err != nil {
			return result, err
		}
		if err := WriteJSON(filepath.Join(p.WorkDir, CandidatesFile), candidates); err != nil {
			return result, err
		}
	}
	result.Candidates = len(candidates)

	if start <= StageSynthesis.index() {
		frameworks, err = p.Synthesize(ctx, candidates)
		if err != nil {
			return result, err
		}
		if err := WriteJSON(filepath.Join(p.WorkDir, SynthesizedFile), frameworks); err != nil {
			return result, err
		}
	}

	if start <= StageEvidence.index() {
		frameworks = AttachEvidence(frameworks)
		if err := WriteJSON(filepath.Join(p.WorkDir, EvidenceFile), frameworks); err != nil {
			return result, err
		}
	}

	frameworks, err = p.AddActionability(ctx, frameworks, false)
	if err != nil {
		return result, err
	}
	final := filepath.Join(p.WorkDir, FinalFile)
	if err := WriteJSON(final, frameworks); err != nil {
		return result, err
	}
	result.Frameworks = frameworks
	result.FinalPath = final
	for _, fw := range frameworks {
		if fw.NeedsActionability() {
			result.Skipped++
		}
	}
	return result, nil
}

// Discover runs pass 1 over the given normalized transcript files.
func (p *Pipeline) Discover(ctx context.Context, files []string) ([]Candidate, error) {
	ctx = services.WithStage(ctx, string(StageDiscovery))
	logger := p.passLogger(ctx)
	c := p.caller(logger)

	if limit := p.Limits.DiscoveryLimit; limit > 0 && len(files) > limit {
		files = files[:limit]
	}
	logger.Info("discovery started",
		logging.String(logging.FieldEventType, "pass_start"),
		logging.Int("transcripts", len(files)),
		logging.String("model", p.Models.Discovery),
	)

	var all []Candidate
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return all, err
		}
		transcript, err := transcripts.Load(path)
		if err != nil {
			p.skip(logger, "transcript unreadable", path, err)
			continue
		}
		content := transcript.Content(p.Limits.MaxChunks)
		if p.Limits.MaxPromptChars > 0 {
			content = textutil.Truncate(content, p.Limits.MaxPromptChars)
		}
		prompt, maxTokens, err := p.Prompts.Render(prompts.Discovery, prompts.DiscoveryData{Content: content})
		if err != nil {
			return all, err
		}
		response, err := c.call(ctx, string(StageDiscovery), p.Models.Discovery, prompt, maxTokens)
		if err != nil {
			if itemScoped(err) {
				p.skip(logger, "discovery failed for transcript", path, err)
				continue
			}
			return all, err
		}
		var decoded discoveryResponse
		if err := p.Validator.Decode(schemaDiscovery, response, &decoded); err != nil {
			p.skip(logger, "discovery response rejected", path, err)
			continue
		}
		for _, cand := range decoded.Frameworks {
			cand.SourceTranscript = path
			cand.SourceDate = transcript.Metadata.Date
			all = append(all, cand)
		}
		logger.Info("frameworks found",
			logging.String(logging.FieldEventType, "discovery_item"),
			logging.String("transcript", filepath.Base(path)),
			logging.Int("count", len(decoded.Frameworks)),
		)
	}
	logger.Info("discovery finished",
		logging.String(logging.FieldEventType, "pass_complete"),
		logging.Int("candidates", len(all)),
	)
	return all, nil
}

// Synthesize runs pass 2: one framework per cluster, largest first.
func (p *Pipeline) Synthesize(ctx context.Context, candidates []Candidate) ([]Framework, error) {
	ctx = services.WithStage(ctx, string(StageSynthesis))
	logger := p.passLogger(ctx)
	c := p.caller(logger)

	clusters := ClusterCandidates(candidates)
	total := len(clusters)
	if limit := p.Limits.MaxFrameworks; limit > 0 && len(clusters) > limit {
		clusters = clusters[:limit]
	}
	logger.Info("synthesis started",
		logging.String(logging.FieldEventType, "pass_start"),
		logging.Int("clusters", total),
		logging.Int("selected", len(clusters)),
		logging.String("model", p.Models.Synthesis),
	)

	var frameworks []Framework
	for _, cluster := range clusters {
		if err := ctx.Err(); err != nil {
			return frameworks, err
		}
		fw, err := p.synthesizeCluster(ctx, c, cluster)
		if err != nil {
			if itemScoped(err) {
				p.skip(logger, "synthesis failed for cluster", cluster.Key, err)
				continue
			}
			return frameworks, err
		}
		frameworks = append(frameworks, fw)
		logger.Info("framework synthesized",
			logging.String(logging.FieldEventType, "synthesis_item"),
			logging.String("framework", fw.Name),
			logging.Int("sources", fw.EvidenceSources),
		)
	}
	logger.Info("synthesis finished",
		logging.String(logging.FieldEventType, "pass_complete"),
		logging.Int("frameworks", len(frameworks)),
	)
	return frameworks, nil
}

func (p *Pipeline) synthesizeCluster(ctx context.Context, c *caller, cluster Cluster) (Framework, error) {
	sources := cluster.Candidates
	if len(sources) > maxEvidenceCandidates {
		sources = sources[:maxEvidenceCandidates]
	}
	parts := make([]string, 0, len(sources))
	for i, cand := range sources {
		parts = append(parts, fmt.Sprintf("Source %d: %s\nEvidence: %s", i+1, cand.Description, textutil.Truncate(cand.EvidenceQuote, evidenceQuoteLimit)))
	}
	evidence := strings.Join(parts, "\n\n")
	if p.Limits.MaxPromptChars > 0 {
		evidence = textutil.Truncate(evidence, p.Limits.MaxPromptChars)
	}
	clusterType := cluster.dominantType()

	prompt, maxTokens, err := p.Prompts.Render(prompts.Synthesis, prompts.SynthesisData{
		Name:     cluster.Candidates[0].Name,
		Type:     clusterType,
		Sources:  len(cluster.Candidates),
		Evidence: evidence,
	})
	if err != nil {
		return Framework{}, err
	}
	response, err := c.call(ctx, string(StageSynthesis), p.Models.Synthesis, prompt, maxTokens)
	if err != nil {
		return Framework{}, err
	}
	var fw Framework
	if err := p.Validator.Decode(schemaSynthesis, response, &fw); err != nil {
		return Framework{}, err
	}
	if strings.TrimSpace(fw.Type) == "" {
		fw.Type = clusterType
	}
	fw.EvidenceSources = len(cluster.Candidates)
	fw.Confidence = cluster.meanConfidence()
	fw.SourceDates = cluster.sourceDates()
	fw.EvidenceQuotes = cluster.quotes()
	return fw, nil
}

// AttachEvidence runs pass 3. It copies up to five distinct cluster quotes
// into each framework's supporting evidence and makes no model calls.
func AttachEvidence(frameworks []Framework) []Framework {
	out := make([]Framework, len(frameworks))
	for i, fw := range frameworks {
		quotes := fw.EvidenceQuotes
		if len(quotes) > maxSupportingQuotes {
			quotes = quotes[:maxSupportingQuotes]
		}
		fw.SupportingEvidence = &Evidence{
			Quotes:      append([]string{}, quotes...),
			CaseStudies: []string{},
			Metrics:     append([]string{}, fw.SuccessMetrics...),
		}
		out[i] = fw
	}
	return out
}

// AddActionability runs pass 4. With onlyMissing set, frameworks that
// already carry guidance are left alone, which retries earlier failures.
// A failed framework records ActionabilityError and the pass continues.
func (p *Pipeline) AddActionability(ctx context.Context, frameworks []Framework, onlyMissing bool) ([]Framework, error) {
	ctx = services.WithStage(ctx, string(StageActionability))
	logger := p.passLogger(ctx)
	c := p.caller(logger)

	out := make([]Framework, len(frameworks))
	copy(out, frameworks)
	attempted := 0
	for i := range out {
		fw := &out[i]
		if onlyMissing && !fw.NeedsActionability() {
			continue
		}
		if err := ctx.Err(); err != nil {
			return out, err
		}
		attempted++
		guidance, err := p.actionability(ctx, c, *fw)
		if err != nil {
			if !itemScoped(err) {
				return out, err
			}
			fw.Actionability = nil
			fw.ActionabilityError = err.Error()
			p.skip(logger, "actionability failed for framework", fw.Name, err)
			continue
		}
		fw.Actionability = &guidance
		fw.ActionabilityError = ""
	}
	logger.Info("actionability finished",
		logging.String(logging.FieldEventType, "pass_complete"),
		logging.Int("attempted", attempted),
	)
	return out, nil
}

func (p *Pipeline) actionability(ctx context.Context, c *caller, fw Framework) (Actionability, error) {
	components := fw.Components
	if len(components) > actionabilityComponents {
		components = components[:actionabilityComponents]
	}
	summaries := make([]prompts.ComponentSummary, 0, len(components))
	for _, comp := range components {
		summaries = append(summaries, prompts.ComponentSummary{Name: comp.Name, Purpose: comp.Purpose})
	}
	prompt, maxTokens, err := p.Prompts.Render(prompts.Actionability, prompts.ActionabilityData{
		Name:       fw.Name,
		Type:       fw.Type,
		Definition: fw.Definition,
		Components: summaries,
	})
	if err != nil {
		return Actionability{}, err
	}
	response, err := c.call(ctx, string(StageActionability), p.Models.Actionability, prompt, maxTokens)
	if err != nil {
		return Actionability{}, err
	}
	var guidance Actionability
	if err := p.Validator.Decode(schemaActionability, response, &guidance); err != nil {
		return Actionability{}, err
	}
	return guidance, nil
}

// RetryActionability reruns pass 4 on the final artifact for frameworks
// without guidance and rewrites it.
func (p *Pipeline) RetryActionability(ctx context.Context) (Result, error) {
	p.ensureRun()
	result := Result{RunID: p.RunID, From: StageActionability}
	ctx = services.WithRunID(ctx, p.RunID)
	final := filepath.Join(p.WorkDir, FinalFile)
	frameworks, err := LoadFrameworks(final)
	if err != nil {
		return result, services.Wrap(services.ErrNotFound, string(StageActionability), "retry", "read final frameworks", err)
	}
	frameworks, err = p.AddActionability(ctx, frameworks, true)
	result.Spent = p.Budget.Spent()
	if err != nil {
		return result, err
	}
	if err := WriteJSON(final, frameworks); err != nil {
		return result, err
	}
	result.Frameworks = frameworks
	result.FinalPath = final
	for _, fw := range frameworks {
		if fw.NeedsActionability() {
			result.Skipped++
		}
	}
	return result, nil
}

func (p *Pipeline) ensureRun() {
	if p.RunID == "" {
		p.RunID = uuid.NewString()
	}
	if p.Budget == nil {
		p.Budget = NewBudget(0, 0)
	}
}

func (p *Pipeline) caller(logger *slog.Logger) *caller {
	p.ensureRun()
	return &caller{
		llm:      p.LLM,
		budget:   p.Budget,
		pricing:  p.Pricing,
		recorder: p.Recorder,
		runID:    p.RunID,
		logger:   logger,
	}
}

func (p *Pipeline) passLogger(ctx context.Context) *slog.Logger {
	base := p.Logger
	if base == nil {
		base = logging.NewNop()
	}
	return logging.WithContext(ctx, base)
}

func (p *Pipeline) skip(logger *slog.Logger, msg, subject string, err error) {
	hint := services.Hint(err)
	switch {
	case errors.Is(err, ErrSchemaViolation):
		hint = "the model did not return the expected JSON; rerun or adjust the prompt override"
	case hint == "":
		hint = "check the run log for details"
	}
	logging.WarnWithContext(logger, msg, "item_skipped",
		logging.String(logging.FieldSubject, subject),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, hint),
		logging.String(logging.FieldImpact, "item left out of this pass"),
	)
}
