package migrate

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"regexp"
	"strings"

	"go.uber.org/multierr"
)

const (
	upAnnotation   = "-- +goose Up"
	downAnnotation = "-- +goose Down"
)

var migrationFileRe = regexp.MustCompile(`^(\d{14})_[a-z0-9_]+\.sql$`)

// ValidateDir checks the migration files under dir on disk.
func ValidateDir(dir string) error {
	if dir == "" {
		return fmt.Errorf("migrations dir is required")
	}
	return ValidateFS(os.DirFS(dir), ".")
}

// ValidateEmbedded checks the migrations compiled into the binary.
func ValidateEmbedded() error {
	return ValidateFS(embedded, embeddedDir)
}

// ValidateFS checks every .sql file under root: the file name carries a
// unique 14 digit version, and the body has an Up section with at least one
// statement followed by a Down section. All problems are returned together.
func ValidateFS(fsys fs.FS, root string) error {
	entries, err := fs.ReadDir(fsys, root)
	if err != nil {
		return fmt.Errorf("read migrations %q: %w", root, err)
	}

	var errs error
	versions := make(map[string]string, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || path.Ext(name) != ".sql" {
			continue
		}
		match := migrationFileRe.FindStringSubmatch(name)
		if match == nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: expected YYYYMMDDHHMMSS_name.sql", name))
			continue
		}
		if prev, dup := versions[match[1]]; dup {
			errs = multierr.Append(errs, fmt.Errorf("%s: version %s already used by %s", name, match[1], prev))
		}
		versions[match[1]] = name

		body, err := fs.ReadFile(fsys, path.Join(root, name))
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", name, err))
			continue
		}
		errs = multierr.Append(errs, checkSections(name, string(body)))
	}
	return errs
}

func checkSections(name, body string) error {
	up := strings.Index(body, upAnnotation)
	down := strings.Index(body, downAnnotation)
	switch {
	case up < 0:
		return fmt.Errorf("%s: missing %q", name, upAnnotation)
	case down < 0:
		return fmt.Errorf("%s: missing %q", name, downAnnotation)
	case down < up:
		return fmt.Errorf("%s: %q must come after %q", name, downAnnotation, upAnnotation)
	}
	if !hasStatement(body[up+len(upAnnotation) : down]) {
		return fmt.Errorf("%s: up section has no statements", name)
	}
	return nil
}

// hasStatement reports whether section holds anything besides comments.
func hasStatement(section string) bool {
	for _, line := range strings.Split(section, "\n") {
		line = strings.TrimSpace(line)
		if line != "" && !strings.HasPrefix(line, "--") {
			return true
		}
	}
	return false
}
