// Package naming generates unique, human-readable run directory names of
// the form <tag_><petname>_<YYYY.MM.DD_HH.MM>. The generator is an explicit
// registry object scoped to one expansion, so collision avoidance has no
// process-wide state and stays a single point of serialization if callers
// ever submit runs in parallel.
package naming

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	petname "github.com/dustinkirkland/golang-petname"
)

// ErrNamingCollision is returned when a fresh unique name could not be found
// within the retry budget.
var ErrNamingCollision = errors.New("naming collision")

const (
	timestampLayout = "2006.01.02_15.04"
	slugWords       = 2
	maxAttempts     = 8
)

// Generator produces run directory names unique both within this expansion
// and against directories already on disk under the experiment directory.
type Generator struct {
	expDir string
	plain  bool
	seen   map[string]struct{}

	// injectable for tests
	now  func() time.Time
	slug func() string
}

// New creates a generator for one expansion. expDir is the experiment
// directory the generated names will live under; plain drops the petname
// and timestamp, leaving only the tag.
func New(expDir string, plain bool) *Generator {
	return &Generator{
		expDir: expDir,
		plain:  plain,
		seen:   make(map[string]struct{}),
		now:    time.Now,
		slug:   func() string { return petname.Generate(slugWords, "-") },
	}
}

// Generate returns a fresh unique name for a run with the given tag (which
// may be empty). It probes both the in-expansion registry and the disk, and
// regenerates on collision up to the retry budget.
func (g *Generator) Generate(tag string) (string, error) {
	for attempt := 0; attempt < maxAttempts; attempt++ {
		name := g.compose(tag)
		if g.taken(name) {
			if g.plain {
				// A plain name has no random component; retrying
				// cannot resolve the collision.
				break
			}
			continue
		}
		g.seen[name] = struct{}{}
		return name, nil
	}
	return "", fmt.Errorf("%w: could not find a free name for tag %q under %s", ErrNamingCollision, tag, g.expDir)
}

func (g *Generator) compose(tag string) string {
	prefix := ""
	if tag != "" {
		prefix = tag + "_"
	}
	if g.plain {
		if tag == "" {
			return "run"
		}
		return tag
	}
	return prefix + g.slug() + "_" + g.now().Format(timestampLayout)
}

func (g *Generator) taken(name string) bool {
	if _, ok := g.seen[name]; ok {
		return true
	}
	if g.expDir == "" {
		return false
	}
	_, err := os.Stat(filepath.Join(g.expDir, name))
	return err == nil
}
