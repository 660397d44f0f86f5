package transcripts

import (
	"encoding/json"
	"fmt"
	"os"
)

// UnknownDate is recorded when the filename carries no YYYY-MM-DD date.
const UnknownDate = "unknown"

// Chunk is one speaker turn.
type Chunk struct {
	ID        string `json:"chunk_id"`
	Speaker   string `json:"speaker"`
	Text      string `json:"text"`
	WordCount int    `json:"word_count"`
}

// Metadata is derived from the source filename and content.
type Metadata struct {
	Date             string `json:"date"`
	MeetingType      string `json:"meeting_type"`
	WordCount        int    `json:"word_count"`
	OriginalFilename string `json:"original_filename"`
}

// Transcript is the normalized form written to disk.
type Transcript struct {
	ID         string   `json:"transcript_id"`
	SourceFile string   `json:"source_file"`
	Metadata   Metadata `json:"metadata"`
	Chunks     []Chunk  `json:"chunks"`
}

// Content joins the first maxChunks chunk texts with blank lines. A
// non-positive maxChunks joins all of them.
func (t Transcript) Content(maxChunks int) string {
	chunks := t.Chunks
	if maxChunks > 0 && len(chunks) > maxChunks {
		chunks = chunks[:maxChunks]
	}
	var out []byte
	for i, c := range chunks {
		if i > 0 {
			out = append(out, "\n\n"...)
		}
		out = append(out, c.Text...)
	}
	return string(out)
}

// Load reads a normalized transcript.
func Load(path string) (Transcript, error) {
	var t Transcript
	data, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := json.Unmarshal(data, &t); err != nil {
		return t, fmt.Errorf("decode %s: %w", path, err)
	}
	return t, nil
}
