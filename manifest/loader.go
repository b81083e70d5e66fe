package manifest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"
)

// Loader reads manifests from local files or HTTP and resolves query texts.
type Loader struct {
	logger *slog.Logger
	client *http.Client
}

// NewLoader creates a manifest loader.
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		logger: logger,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

// Load reads a manifest from a local path or an http(s) URL, resolves the
// query text of every declaration, and validates the result. Any failure here
// is a setup failure: the whole run must abort.
func (l *Loader) Load(ctx context.Context, source string) (*Manifest, error) {
	if isHTTP(source) {
		return l.loadHTTP(ctx, source)
	}
	return l.loadFile(source)
}

func isHTTP(source string) bool {
	u, err := url.Parse(source)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https")
}

func (l *Loader) loadFile(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	m, err := parse(data, path)
	if err != nil {
		return nil, err
	}

	baseDir := filepath.Dir(path)
	for i := range m.Queries {
		if err := l.resolveQueryText(&m.Queries[i], baseDir); err != nil {
			return nil, err
		}
	}

	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("invalid manifest: %w", err)
	}

	l.logger.Debug("Loaded manifest",
		"path", path,
		"requirements", len(m.Requirements),
		"queries", len(m.Queries))
	return m, nil
}

func (l *Loader) loadHTTP(ctx context.Context, rawURL string) (*Manifest, error) {
	data, err := l.getBytes(ctx, rawURL)
	if err != nil {
		return nil, fmt.Errorf("fetch manifest: %w", err)
	}
	m, err := parse(data, rawURL)
	if err != nil {
		return nil, err
	}

	base, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse manifest url: %w", err)
	}

	for i := range m.Queries {
		q := &m.Queries[i]
		if q.Text != "" || q.File == "" {
			continue
		}
		ref, err := url.Parse(q.File)
		if err != nil {
			return nil, fmt.Errorf("query %s: parse file reference: %w", q.ID, err)
		}
		text, err := l.get(ctx, base.ResolveReference(ref).String())
		if err != nil {
			return nil, fmt.Errorf("query %s: %w", q.ID, err)
		}
		q.Text = text
	}

	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("invalid manifest: %w", err)
	}

	l.logger.Debug("Loaded manifest",
		"url", rawURL,
		"requirements", len(m.Requirements),
		"queries", len(m.Queries))
	return m, nil
}

func (l *Loader) get(ctx context.Context, rawURL string) (string, error) {
	data, err := l.getBytes(ctx, rawURL)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (l *Loader) getBytes(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: unexpected status %s", rawURL, resp.Status)
	}
	return io.ReadAll(resp.Body)
}

// resolveQueryText loads the query text for a declaration. The file reference
// may contain glob metacharacters; it must then match exactly one file.
func (l *Loader) resolveQueryText(q *QueryDecl, baseDir string) error {
	if q.Text != "" || q.File == "" {
		return nil
	}

	path := q.File
	if !filepath.IsAbs(path) {
		path = filepath.Join(baseDir, path)
	}

	if hasGlobMeta(q.File) {
		matches, err := doublestar.FilepathGlob(path)
		if err != nil {
			return fmt.Errorf("query %s: glob %s: %w", q.ID, q.File, err)
		}
		if len(matches) == 0 {
			return fmt.Errorf("query %s: glob %s matched no files", q.ID, q.File)
		}
		if len(matches) > 1 {
			return fmt.Errorf("query %s: glob %s matched %d files, want exactly one", q.ID, q.File, len(matches))
		}
		path = matches[0]
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("query %s: read query file: %w", q.ID, err)
	}
	q.Text = string(data)
	return nil
}

func hasGlobMeta(pattern string) bool {
	return strings.ContainsAny(pattern, "*?[{")
}

// parse decodes manifest bytes as YAML or JSON, chosen by file extension.
// YAML is the default since it is a superset of what we accept from JSON.
func parse(data []byte, source string) (*Manifest, error) {
	var m Manifest
	if strings.HasSuffix(strings.ToLower(source), ".json") {
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("parse manifest: %w", err)
		}
		return &m, nil
	}
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	return &m, nil
}
