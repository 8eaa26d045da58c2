package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Overrides carries user settings given explicitly on the command line.
// A nil field was not given.
type Overrides struct {
	Lang      *string
	Pager     *string
	UseEmojis *bool
	UseColor  *bool
	UseCache  *bool
	CacheDir  *string
}

// Empty reports whether no override is set.
func (o Overrides) Empty() bool {
	return o.Lang == nil && o.Pager == nil && o.UseEmojis == nil &&
		o.UseColor == nil && o.UseCache == nil && o.CacheDir == nil
}

// ApplyOverrides merges o into c and re-validates.
func (c *Config) ApplyOverrides(o Overrides) error {
	if o.Lang != nil {
		c.Lang = *o.Lang
	}
	if o.Pager != nil {
		c.Pager = *o.Pager
	}
	if o.UseEmojis != nil {
		c.UseEmojis = *o.UseEmojis
	}
	if o.UseColor != nil {
		c.UseColor = *o.UseColor
	}
	if o.UseCache != nil {
		c.UseCache = *o.UseCache
	}
	if o.CacheDir != nil {
		c.CacheDir = *o.CacheDir
	}
	return c.Validate()
}

// userSettings lists the persisted user settings by YAML key, paired with
// their current and built-in values.
func (c *Config) userSettings() []struct {
	key          string
	value, deflt any
} {
	return []struct {
		key          string
		value, deflt any
	}{
		{"lang", c.Lang, DefaultLang},
		{"pager", c.Pager, DefaultPager},
		{"use_emojis", c.UseEmojis, false},
		{"use_color", c.UseColor, true},
		{"use_cache", c.UseCache, true},
		{"cache_dir", c.CacheDir, DefaultCacheDir()},
	}
}

// Save writes the user settings that differ from their built-in values to
// path. Other keys already in the file are kept. When nothing remains to
// store the file is removed. An unreadable existing file is replaced.
func (c *Config) Save(path string) error {
	doc := map[string]any{}
	if b, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(b, &doc); err != nil || doc == nil {
			doc = map[string]any{}
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("config: read %s: %w", path, err)
	}

	for _, s := range c.userSettings() {
		if s.value == s.deflt {
			delete(doc, s.key)
			continue
		}
		doc[s.key] = s.value
	}

	if len(doc) == 0 {
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("config: remove %s: %w", path, err)
		}
		return nil
	}

	b, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("config: create dir: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}
