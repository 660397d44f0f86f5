package synthesis

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Stage names a pass; runs can resume from any of them.
type Stage string

const (
	StageDiscovery     Stage = "discovery"
	StageSynthesis     Stage = "synthesis"
	StageEvidence      Stage = "evidence"
	StageActionability Stage = "actionability"
)

// Stages lists the passes in execution order.
var Stages = []Stage{StageDiscovery, StageSynthesis, StageEvidence, StageActionability}

// ParseStage accepts a stage name; empty means discovery.
func ParseStage(value string) (Stage, error) {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return StageDiscovery, nil
	}
	for _, s := range Stages {
		if string(s) == value {
			return s, nil
		}
	}
	return "", fmt.Errorf("unknown stage %q (want discovery, synthesis, evidence or actionability)", value)
}

func (s Stage) index() int {
	for i, known := range Stages {
		if known == s {
			return i
		}
	}
	return -1
}

// Artifact file names inside the work directory.
const (
	CandidatesFile  = "framework_candidates.json"
	SynthesizedFile = "frameworks_synthesized.json"
	EvidenceFile    = "frameworks_evidence.json"
	FinalFile       = "frameworks_final.json"
)

// inputFor names the artifact a stage reads when resuming.
func inputFor(s Stage) string {
	switch s {
	case StageSynthesis:
		return CandidatesFile
	case StageEvidence:
		return SynthesizedFile
	case StageActionability:
		return EvidenceFile
	default:
		return ""
	}
}

// WriteJSON writes v as indented JSON, replacing any previous artifact.
func WriteJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create artifact directory: %w", err)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace %s: %w", filepath.Base(path), err)
	}
	return nil
}

// ReadJSON decodes an artifact into v.
func ReadJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return nil
}

// LoadFrameworks reads a framework artifact such as FinalFile.
func LoadFrameworks(path string) ([]Framework, error) {
	var frameworks []Framework
	if err := ReadJSON(path, &frameworks); err != nil {
		return nil, err
	}
	return frameworks, nil
}
