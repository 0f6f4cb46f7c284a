package cache

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"seo-audit/pkg/models"
	"seo-audit/pkg/utils"
)

// Store persists one CrawlCache JSON document per crawl target, keyed by the
// target's sanitized hostname. Loads are best-effort: a missing, truncated or
// otherwise corrupt file is reported as "no cache", never as an error.
type Store struct {
	dir string
	log *logrus.Entry
}

// NewStore creates a Store rooted at dir. The directory is created lazily on
// the first Save.
func NewStore(dir string, log *logrus.Logger) *Store {
	return &Store{
		dir: dir,
		log: log.WithField("component", "cache"),
	}
}

// Key derives the cache key for a target URL: the sanitized hostname, or a
// sanitized form of the whole string if it does not parse
func (s *Store) Key(baseURL string) string {
	if parsed, err := url.Parse(baseURL); err == nil && parsed.Hostname() != "" {
		return utils.SanitizeFilename(parsed.Hostname())
	}
	return utils.SanitizeFilename(baseURL)
}

// Path returns the cache file path for a target URL
func (s *Store) Path(baseURL string) string {
	return filepath.Join(s.dir, s.Key(baseURL)+".json")
}

// Load reads the cache for the target. Returns (nil, false) when no usable
// cache exists; corruption is logged at debug level and swallowed.
func (s *Store) Load(baseURL string) (*models.CrawlCache, bool) {
	path := s.Path(baseURL)
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.log.Debugf("Cache read failed for %s: %v", path, err)
		}
		return nil, false
	}

	var cc models.CrawlCache
	if err := json.Unmarshal(data, &cc); err != nil {
		s.log.Debugf("Cache unmarshal failed for %s, treating as empty: %v", path, err)
		return nil, false
	}

	// Enforce the no-duplicate-URLs invariant on the way in; keep the first
	// occurrence of each URL
	seen := make(map[string]struct{}, len(cc.Pages))
	deduped := cc.Pages[:0]
	for _, page := range cc.Pages {
		if page == nil || page.URL == "" {
			continue
		}
		if _, dup := seen[page.URL]; dup {
			s.log.Warnf("Dropping duplicate cached entry for %s", page.URL)
			continue
		}
		seen[page.URL] = struct{}{}
		deduped = append(deduped, page)
	}
	cc.Pages = deduped

	return &cc, true
}

// Save writes the full cache document. The JSON is serialized to a temp file
// in the same directory and renamed over the previous snapshot, so a crash
// mid-write never destroys the last successful save.
func (s *Store) Save(baseURL string, cc *models.CrawlCache) error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("creating cache dir '%s': %w", s.dir, err)
	}

	data, err := json.MarshalIndent(cc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling cache for '%s': %w", baseURL, err)
	}

	path := s.Path(baseURL)
	tmp, err := os.CreateTemp(s.dir, s.Key(baseURL)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating cache temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing cache temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing cache temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing cache file '%s': %w", path, err)
	}

	s.log.WithFields(logrus.Fields{"path": path, "pages": len(cc.Pages)}).Debug("Cache saved")
	return nil
}
