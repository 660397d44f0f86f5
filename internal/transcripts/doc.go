// Package transcripts turns raw meeting transcripts into structured JSON and
// sorts them into categories by filename keywords.
//
// Normalization walks the transcripts directory recursively, extracts text
// from .txt and .pdf files, derives metadata from the filename (date, meeting
// type) and splits the body into chunks at "Speaker Name:" labels. Each
// transcript is written as <stem>.json in the normalized directory. A file
// that fails to extract is logged and skipped; it never stops the batch.
package transcripts
