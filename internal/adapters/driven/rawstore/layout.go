// Package rawstore holds the batch naming scheme shared by the raw batch
// backends. Batches live at <source lower>/<set>/batch_<seq>.xml, both as
// file paths under the raw directory and as object keys in a bucket.
package rawstore

import (
	"fmt"
	"path"
	"regexp"
	"strconv"
	"strings"

	"github.com/activemonkeys/geneax/internal/core/domain"
)

var batchNamePattern = regexp.MustCompile(`^batch_(\d{6,})\.xml$`)

// BatchName returns the file name of a batch sequence.
func BatchName(seq int) string {
	return fmt.Sprintf("batch_%06d.xml", seq)
}

// Key returns the slash-separated key of a batch.
func Key(sourceCode, setSpec string, seq int) string {
	return path.Join(strings.ToLower(sourceCode), setSpec, BatchName(seq))
}

// ParseBatchName returns the sequence of a batch file name.
func ParseBatchName(name string) (int, bool) {
	m := batchNamePattern.FindStringSubmatch(name)
	if m == nil {
		return 0, false
	}
	seq, err := strconv.Atoi(m[1])
	if err != nil || seq <= 0 {
		return 0, false
	}
	return seq, true
}

// ParseKey reads a BatchRef from the last three segments of a
// slash-separated key. The returned ref carries no Key.
func ParseKey(key string) (domain.BatchRef, bool) {
	parts := strings.Split(strings.Trim(key, "/"), "/")
	if len(parts) < 3 {
		return domain.BatchRef{}, false
	}
	parts = parts[len(parts)-3:]

	seq, ok := ParseBatchName(parts[2])
	if !ok || parts[0] == "" || parts[1] == "" {
		return domain.BatchRef{}, false
	}
	return domain.BatchRef{
		SourceCode: domain.NormaliseSourceCode(parts[0]),
		SetSpec:    parts[1],
		Sequence:   seq,
	}, true
}

// ValidatePair rejects codes and set specs that cannot be a single path segment.
func ValidatePair(sourceCode, setSpec string) error {
	for _, s := range []string{sourceCode, setSpec} {
		if s == "" || s == "." || s == ".." || strings.ContainsAny(s, `/\`) {
			return fmt.Errorf("%w: %q cannot name a batch directory", domain.ErrInvalidInput, s)
		}
	}
	return nil
}

// Less orders batches by source, set and sequence.
func Less(a, b domain.BatchRef) bool {
	if a.SourceCode != b.SourceCode {
		return a.SourceCode < b.SourceCode
	}
	if a.SetSpec != b.SetSpec {
		return a.SetSpec < b.SetSpec
	}
	return a.Sequence < b.Sequence
}
