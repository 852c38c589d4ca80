// Package filestore lays out downloaded content on disk.
//
// Under the data directory:
//
//	metadata/YYYY/MM/DD.json          raw daily index as served by the source
//	news/YYYY-MM-DD/HH-MM-{id}.md     article content as markdown
//	news/YYYY-MM-DD/HH-MM-{id}-sum.{lang}.txt
//
// All writes go through a temp file and rename so readers never observe a
// partially written file.
package filestore

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Store writes pipeline artifacts under a single root directory.
type Store struct {
	root string
}

// New constructs a Store rooted at dir.
func New(dir string) *Store {
	return &Store{root: dir}
}

// SaveIndex writes the raw daily index JSON and returns its path.
func (s *Store) SaveIndex(date time.Time, raw []byte) (string, error) {
	path := filepath.Join(s.root, "metadata",
		fmt.Sprintf("%04d", date.Year()),
		fmt.Sprintf("%02d", int(date.Month())),
		fmt.Sprintf("%02d.json", date.Day()))
	if err := writeAtomic(path, raw); err != nil {
		return "", fmt.Errorf("op=filestore.SaveIndex: %w", err)
	}
	return path, nil
}

// SaveArticle writes the article markdown, title as a level-one heading,
// and returns its path.
func (s *Store) SaveArticle(ts time.Time, id int64, title, markdown string) (string, error) {
	path := filepath.Join(s.articleDir(ts), fmt.Sprintf("%s-%d.md", hourMinute(ts), id))
	var b strings.Builder
	if title != "" {
		b.WriteString("# ")
		b.WriteString(title)
		b.WriteString("\n\n")
	}
	b.WriteString(markdown)
	if !strings.HasSuffix(markdown, "\n") {
		b.WriteString("\n")
	}
	if err := writeAtomic(path, []byte(b.String())); err != nil {
		return "", fmt.Errorf("op=filestore.SaveArticle: %w", err)
	}
	return path, nil
}

// SaveSummary writes one language's summary next to the article file and
// returns its path.
func (s *Store) SaveSummary(ts time.Time, id int64, lang, content string) (string, error) {
	path := filepath.Join(s.articleDir(ts), fmt.Sprintf("%s-%d-sum.%s.txt", hourMinute(ts), id, lang))
	if err := writeAtomic(path, []byte(content)); err != nil {
		return "", fmt.Errorf("op=filestore.SaveSummary: %w", err)
	}
	return path, nil
}

// Read returns the content of a previously saved file.
func (s *Store) Read(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("op=filestore.Read: %w", err)
	}
	return string(data), nil
}

func (s *Store) articleDir(ts time.Time) string {
	return filepath.Join(s.root, "news", ts.Format("2006-01-02"))
}

func hourMinute(ts time.Time) string {
	return ts.Format("15-04")
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return nil
}

// RawDumper records raw engine responses for debugging, one file per call:
// {root}/{session}/{agent}_{unix_nanos}.txt.
type RawDumper struct {
	root    string
	session string
}

// NewRawDumper creates a dumper for one pipeline session.
func NewRawDumper(root, session string) *RawDumper {
	return &RawDumper{root: root, session: session}
}

// Dump writes one raw response. Failures are returned but callers typically
// only log them; a lost dump must never fail the pipeline.
func (d *RawDumper) Dump(agent string, raw string) error {
	path := filepath.Join(d.root, d.session,
		fmt.Sprintf("%s_%d.txt", agent, time.Now().UnixNano()))
	if err := writeAtomic(path, []byte(raw)); err != nil {
		return fmt.Errorf("op=filestore.Dump: %w", err)
	}
	return nil
}
