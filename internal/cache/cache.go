// Package cache persists fetched statement markup on the local filesystem.
// Presence of an artifact alone decides a hit; content is never validated
// or re-fetched, which is what makes interrupted runs resumable.
package cache

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/sells-group/finstat-harvester/internal/model"
)

// FetchFunc obtains statement markup remotely on a cache miss.
type FetchFunc func(ctx context.Context) (string, error)

// Cache is a filesystem-backed statement document cache rooted at dir.
type Cache struct {
	dir string
}

// New creates a Cache rooted at dir.
func New(dir string) *Cache {
	return &Cache{dir: dir}
}

// foldDiacritics strips combining marks so entity names like "Poslovna
// Inteligencija" or "Čikom" produce portable directory names.
var foldDiacritics = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// safeName folds an entity display name into a stable filesystem-safe
// directory name.
func safeName(name string) string {
	folded, _, err := transform.String(foldDiacritics, name)
	if err != nil {
		folded = name
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == ' ', r == '-', r == '_', r == '.':
			return r
		default:
			return '_'
		}
	}, folded)
}

// EntityDir returns the per-entity artifact directory.
func (c *Cache) EntityDir(entity model.Entity) string {
	return filepath.Join(c.dir, safeName(entity.Name))
}

// Path returns the artifact path for one (entity, statement) pair.
// Keyed on PIB and year: both are stable across listings, and a listing
// never carries two statements for the same year.
func (c *Cache) Path(entity model.Entity, ref model.StatementRef) string {
	return filepath.Join(c.EntityDir(entity), fmt.Sprintf("%s-%s.html", entity.PIB, ref.Year))
}

// EnsureEntityDir creates the per-entity directory before any write.
func (c *Cache) EnsureEntityDir(entity model.Entity) error {
	if err := os.MkdirAll(c.EntityDir(entity), 0o755); err != nil {
		return eris.Wrapf(err, "cache: create dir for %s", entity.Name)
	}
	return nil
}

// GetOrFetch returns the cached markup for the statement, fetching and
// persisting it on a miss. The returned hit flag tells the caller whether a
// remote call happened (it drives the politeness throttle).
//
// A persist failure is logged and swallowed: content availability takes
// precedence over cache durability. A fetch failure propagates unchanged.
func (c *Cache) GetOrFetch(ctx context.Context, entity model.Entity, ref model.StatementRef, fetch FetchFunc) (string, bool, error) {
	path := c.Path(entity, ref)

	if data, err := os.ReadFile(path); err == nil {
		return string(data), true, nil
	}

	html, err := fetch(ctx)
	if err != nil {
		return "", false, err
	}

	if err := os.WriteFile(path, []byte(html), 0o644); err != nil {
		zap.L().Warn("cache: failed to persist statement artifact",
			zap.String("path", path),
			zap.String("pib", entity.PIB),
			zap.String("year", ref.Year),
			zap.Error(err),
		)
	}

	return html, false, nil
}
