// Package ledger collects the identity keys a ledger already holds.
package ledger

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/yurifrl/ledgeru/pkg/identity"
)

// KeyMeta is the metadata entry that carries the key of an imported
// transaction.
const KeyMeta = "identity_key"

// LoadKeyFile reads a file of keys, either a YAML list or one key per line.
// Blank lines and lines starting with # are ignored.
func LoadKeyFile(path string) (identity.Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return identity.Set{}, fmt.Errorf("failed to read key file: %w", err)
	}

	var list []string
	if err := yaml.Unmarshal(data, &list); err == nil && len(list) > 0 {
		return toSet(list), nil
	}

	var keys []string
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		keys = append(keys, line)
	}
	if err := scanner.Err(); err != nil {
		return identity.Set{}, fmt.Errorf("%s: %w", path, err)
	}
	return toSet(keys), nil
}

var keyMetaLine = regexp.MustCompile(`^\s+` + KeyMeta + `:\s*"([^"]+)"`)

// ScanJournal collects the identity_key metadata of a beancount journal.
func ScanJournal(r io.Reader) (identity.Set, error) {
	var keys []string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if m := keyMetaLine.FindStringSubmatch(scanner.Text()); m != nil {
			keys = append(keys, m[1])
		}
	}
	if err := scanner.Err(); err != nil {
		return identity.Set{}, fmt.Errorf("scan journal: %w", err)
	}
	return toSet(keys), nil
}

// ScanJournalFile is ScanJournal on a file.
func ScanJournalFile(path string) (identity.Set, error) {
	f, err := os.Open(path)
	if err != nil {
		return identity.Set{}, fmt.Errorf("failed to open journal: %w", err)
	}
	defer f.Close()
	return ScanJournal(f)
}

// Merge combines several key sources.
func Merge(sets ...identity.Set) identity.Set {
	return identity.Union(sets...)
}

func toSet(keys []string) identity.Set {
	out := make([]identity.Key, 0, len(keys))
	for _, k := range keys {
		out = append(out, identity.Key(strings.TrimSpace(k)))
	}
	return identity.NewSet(out...)
}
