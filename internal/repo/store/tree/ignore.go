package tree

import (
	"bufio"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/solovev/dirsnap/internal/fs"
)

// Excludes is a set of entry names skipped during the tree walk.
// Exclusion is name-based: an entry of a matching name is skipped at
// any depth, not only where the pattern originally matched.
type Excludes map[string]struct{}

func (e Excludes) Has(name string) bool {
	_, ok := e[name]
	return ok
}

func (e Excludes) add(name string) {
	e[filepath.Base(filepath.Clean(name))] = struct{}{}
}

// LoadExcludes builds the exclusion set for a snapshot of dir.
//
// The ignore file is optional: absence yields only the reserved names.
// An ignore file that exists but cannot be read aborts the snapshot.
// Lines are trimmed; blank lines and # comments are skipped. A line
// containing a glob metacharacter is matched against the entries of
// dir and every match's name is added individually; a literal line is
// added verbatim.
func LoadExcludes(fsys fs.FS, dir, ignorePath string, reserved []string) (Excludes, error) {
	set := make(Excludes)
	for _, name := range reserved {
		set.add(name)
	}

	rc, err := fsys.Open(ignorePath)
	if err != nil {
		if fsys.IsNotExist(err) {
			return set, nil
		}
		return nil, fmt.Errorf("read ignore file %q: %w", ignorePath, err)
	}
	defer rc.Close()

	sc := bufio.NewScanner(rc)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.ContainsAny(line, "*?[") {
			if err := expandPattern(fsys, dir, line, set); err != nil {
				return nil, err
			}
			continue
		}
		set.add(line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read ignore file %q: %w", ignorePath, err)
	}

	return set, nil
}

// expandPattern matches a glob line against the entries of dir and
// adds each matching name.
func expandPattern(fsys fs.FS, dir, pattern string, set Excludes) error {
	entries, err := fsys.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("expand ignore pattern %q: %w", pattern, err)
	}
	for _, entry := range entries {
		ok, err := filepath.Match(pattern, entry.Name())
		if err != nil {
			return fmt.Errorf("bad ignore pattern %q: %w", pattern, err)
		}
		if ok {
			set.add(entry.Name())
		}
	}
	return nil
}
