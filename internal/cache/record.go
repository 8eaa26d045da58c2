package cache

import (
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/blake2b"
	"gopkg.in/yaml.v3"

	"github.com/heartmarshall/leocli/internal/domain"
)

// CurrentFormat is the only record format version Lookup accepts. Records
// written by older releases (v1 carried no section labels) read as misses.
const CurrentFormat = "v2"

// Persisted fragment kind names.
const (
	kindText       = "Text"
	kindAnnotation = "Attribute"
)

// Record is one persisted cache entry.
type Record struct {
	Format   string          `yaml:"cache_format" json:"cache_format"`
	Key      string          `yaml:"key" json:"key"`
	LastUsed int64           `yaml:"last_used" json:"last_used"`
	NumUsed  int             `yaml:"num_used" json:"num_used"`
	Data     []SectionRecord `yaml:"data" json:"data"`
}

// SectionRecord is a section as persisted. Each translation is a two
// element list of sides; each side is a list of [kind, text] pairs.
type SectionRecord struct {
	Name         string         `yaml:"name,omitempty" json:"name,omitempty"`
	Title        string         `yaml:"title,omitempty" json:"title,omitempty"`
	Translations [][][][]string `yaml:"translations" json:"translations"`
}

// KeyHash returns the hex blake2b-256 digest of a query key. Backends use it
// to derive storage locations that are safe for any search term.
func KeyHash(key string) string {
	sum := blake2b.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

// EncodeData converts a result set to its persisted form.
func EncodeData(rs domain.ResultSet) []SectionRecord {
	out := make([]SectionRecord, 0, len(rs))
	for _, s := range rs {
		sr := SectionRecord{
			Name:         s.Name,
			Title:        s.Title,
			Translations: make([][][][]string, 0, len(s.Pairs)),
		}
		for _, p := range s.Pairs {
			sr.Translations = append(sr.Translations, [][][]string{encodeSide(p.Source), encodeSide(p.Target)})
		}
		out = append(out, sr)
	}
	return out
}

func encodeSide(side domain.Side) [][]string {
	out := make([][]string, 0, len(side))
	for _, f := range side {
		kind := kindText
		if f.Kind == domain.FragmentAnnotation {
			kind = kindAnnotation
		}
		out = append(out, []string{kind, f.Text})
	}
	return out
}

// DecodeData is the inverse of EncodeData. It rejects any structure
// EncodeData could not have produced.
func DecodeData(data []SectionRecord) (domain.ResultSet, error) {
	rs := make(domain.ResultSet, 0, len(data))
	for i, sr := range data {
		s := domain.Section{
			Name:  sr.Name,
			Title: sr.Title,
			Pairs: make([]domain.TranslationPair, 0, len(sr.Translations)),
		}
		for j, tr := range sr.Translations {
			if len(tr) != 2 {
				return nil, fmt.Errorf("section %d translation %d: want 2 sides, got %d", i, j, len(tr))
			}
			src, err := decodeSide(tr[0])
			if err != nil {
				return nil, fmt.Errorf("section %d translation %d: %w", i, j, err)
			}
			dst, err := decodeSide(tr[1])
			if err != nil {
				return nil, fmt.Errorf("section %d translation %d: %w", i, j, err)
			}
			s.Pairs = append(s.Pairs, domain.TranslationPair{Source: src, Target: dst})
		}
		rs = append(rs, s)
	}
	return rs, nil
}

func decodeSide(raw [][]string) (domain.Side, error) {
	side := make(domain.Side, 0, len(raw))
	for _, f := range raw {
		if len(f) != 2 {
			return nil, fmt.Errorf("fragment: want [kind, text], got %d fields", len(f))
		}
		switch f[0] {
		case kindText:
			side = append(side, domain.Text(f[1]))
		case kindAnnotation:
			side = append(side, domain.Annotation(f[1]))
		default:
			return nil, fmt.Errorf("fragment: unknown kind %q", f[0])
		}
	}
	return side, nil
}

// Marshal encodes a record as YAML.
func Marshal(rec *Record) ([]byte, error) {
	b, err := yaml.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("cache: marshal record: %w", err)
	}
	return b, nil
}

// Unmarshal decodes a YAML record.
func Unmarshal(b []byte) (*Record, error) {
	var rec Record
	if err := yaml.Unmarshal(b, &rec); err != nil {
		return nil, fmt.Errorf("cache: unmarshal record: %w", err)
	}
	return &rec, nil
}
