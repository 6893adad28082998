package logsource

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/sync/errgroup"

	"github.com/atikulmunna/logsift/internal/model"
)

// SplitLines splits raw log text on newlines.
// A trailing newline yields a trailing empty line; nothing is stripped.
func SplitLines(text string) []string {
	return strings.Split(text, "\n")
}

// ReadFile reads a whole log file and returns its lines.
// Errors wrap the underlying *fs.PathError so callers can test fs.ErrNotExist.
func ReadFile(path string) ([]model.RawLine, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read log file: %w", err)
	}

	texts := SplitLines(string(raw))
	lines := make([]model.RawLine, len(texts))
	for i, text := range texts {
		lines[i] = model.RawLine{Text: text, Source: path, Number: i + 1}
	}
	return lines, nil
}

// Expand resolves patterns to file paths. Patterns without glob syntax are
// returned unchanged, so a missing file surfaces as a read error later.
// Recursive patterns like /var/log/**/*.log are supported via doublestar.
func Expand(patterns []string) ([]string, error) {
	var paths []string
	seen := make(map[string]bool)

	for _, pattern := range patterns {
		if !hasMeta(pattern) {
			if !seen[pattern] {
				seen[pattern] = true
				paths = append(paths, pattern)
			}
			continue
		}

		matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly(), doublestar.WithFailOnIOErrors())
		if err != nil {
			return nil, fmt.Errorf("expand pattern %q: %w", pattern, err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("no files matched pattern %q", pattern)
		}
		sort.Strings(matches)
		for _, m := range matches {
			m = filepath.Clean(m)
			if !seen[m] {
				seen[m] = true
				paths = append(paths, m)
			}
		}
	}

	return paths, nil
}

// Load expands patterns and reads every file, concatenating lines in path order.
func Load(ctx context.Context, patterns []string) ([]model.RawLine, []string, error) {
	paths, err := Expand(patterns)
	if err != nil {
		return nil, nil, err
	}

	perFile := make([][]model.RawLine, len(paths))
	eg, ctx := errgroup.WithContext(ctx)
	for i, p := range paths {
		i, p := i, p
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			lines, err := ReadFile(p)
			if err != nil {
				return err
			}
			perFile[i] = lines
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, nil, err
	}

	var all []model.RawLine
	for _, lines := range perFile {
		all = append(all, lines...)
	}
	return all, paths, nil
}

func hasMeta(pattern string) bool {
	return strings.ContainsAny(pattern, "*?[{")
}
