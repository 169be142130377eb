package ledger

import (
	"encoding/json"
	"sort"
	"strings"
	"time"
)

// Entry is the descriptive metadata for one gallery asset. The JSON shape
// is the on-disk contract: other tooling (the feed, the sitemap, external
// scripts) reads the same document.
type Entry struct {
	Alt       string   `json:"alt"`
	Caption   string   `json:"caption,omitempty"`
	Tags      []string `json:"tags,omitempty"`
	CreatedAt string   `json:"createdAt,omitempty"`
	Location  string   `json:"location,omitempty"`
	Featured  bool     `json:"featured,omitempty"`
}

// Document is the single ledger mapping asset keys to their metadata.
type Document map[string]Entry

// DecodeDocument parses a serialized ledger. A nil/empty payload or an
// unparsable one yields an empty document: readers must degrade to the
// empty ledger rather than fail, while writers must never produce an
// unparsable document.
func DecodeDocument(raw []byte) Document {
	doc := Document{}
	if len(raw) == 0 {
		return doc
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return Document{}
	}
	return doc
}

// EncodeDocument serializes the ledger as indented JSON. Output is
// deterministic (Go sorts map keys) so successive writes of the same state
// are byte-identical.
func EncodeDocument(doc Document) ([]byte, error) {
	if doc == nil {
		doc = Document{}
	}
	return json.MarshalIndent(doc, "", "  ")
}

// normalizeEntry trims text fields, deduplicates tags preserving first
// occurrence, and defaults CreatedAt to now (ISO calendar date).
func normalizeEntry(entry Entry, now time.Time) Entry {
	entry.Alt = strings.TrimSpace(entry.Alt)
	entry.Caption = strings.TrimSpace(entry.Caption)
	entry.Location = strings.TrimSpace(entry.Location)
	entry.Tags = dedupeTags(entry.Tags)
	if strings.TrimSpace(entry.CreatedAt) == "" {
		entry.CreatedAt = now.Format("2006-01-02")
	}
	return entry
}

func dedupeTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// sortedKeys returns the document keys in ascending order.
func sortedKeys(doc Document) []string {
	keys := make([]string, 0, len(doc))
	for key := range doc {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
