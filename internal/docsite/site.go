// Package docsite produces the project's documentation site sources: the
// generator configuration (conf.py), a root page and a normalization report.
package docsite

import (
	"bytes"
	"fmt"
	"html"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/inful/mdfp"
	"github.com/yuin/goldmark"

	"github.com/Phaysik/database-normalizer/internal/foundation/errors"
	"github.com/Phaysik/database-normalizer/internal/logfields"
	"github.com/Phaysik/database-normalizer/internal/output"
)

// File names written next to the root page.
const (
	ConfFile       = "conf.py"
	ReportMarkdown = "report.md"
	ReportHTML     = "report.html"
)

const lastmodLayout = "2006-01-02"

// Report is the normalization result published on the site.
type Report struct {
	Dataset        string
	Form           string
	SQLFile        string
	DependencyFile string
	Tables         []string
	SQL            string
}

// Result lists what Build wrote.
type Result struct {
	Files       []string
	Fingerprint string
	// ReportChanged is false when report.md already held the same content.
	ReportChanged bool
}

// Option configures a Site.
type Option func(*Site)

// WithLogger sets the logger used for build progress.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Site) { s.logger = logger }
}

// WithClock overrides the time source used when git history is unavailable.
func WithClock(now func() time.Time) Option {
	return func(s *Site) { s.now = now }
}

// Site writes documentation sources for one set of settings.
type Site struct {
	settings Settings
	logger   *slog.Logger
	now      func() time.Time
}

// New validates settings and returns a Site.
func New(settings Settings, opts ...Option) (*Site, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	s := &Site{settings: settings.Clone(), logger: slog.Default(), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Settings returns a copy of the site's settings.
func (s *Site) Settings() Settings { return s.settings.Clone() }

// Build writes conf.py, the root page, report.md and report.html into dir.
func (s *Site) Build(dir string, r Report) (Result, error) {
	var res Result

	var conf bytes.Buffer
	if err := s.settings.RenderConf(&conf); err != nil {
		return res, errors.WrapError(err, errors.CategoryInternal, "could not render conf.py").Build()
	}
	confPath, err := output.Write(dir, ConfFile, conf.String())
	if err != nil {
		return res, err
	}
	res.Files = append(res.Files, confPath)

	rootPath := filepath.Join(dir, filepath.FromSlash(s.settings.MasterDoc)+".rst")
	if _, err := output.Write(filepath.Dir(rootPath), filepath.Base(rootPath), s.rootPage(r)); err != nil {
		return res, err
	}
	res.Files = append(res.Files, rootPath)

	body := []byte(reportBody(r))
	mdPath := filepath.Join(dir, ReportMarkdown)
	fp, changed, err := s.writeReport(mdPath, r, body)
	if err != nil {
		return res, err
	}
	res.Fingerprint = fp
	res.ReportChanged = changed
	res.Files = append(res.Files, mdPath)

	page, err := s.reportPage(body)
	if err != nil {
		return res, err
	}
	htmlPath, err := output.Write(dir, ReportHTML, page)
	if err != nil {
		return res, err
	}
	res.Files = append(res.Files, htmlPath)

	s.logger.Info("Documentation sources written",
		logfields.Path(dir),
		slog.String("fingerprint", fp),
		slog.Bool("report_changed", changed))
	return res, nil
}

func (s *Site) rootPage(r Report) string {
	var b strings.Builder
	title := s.settings.HTMLTitle
	b.WriteString(title + "\n" + strings.Repeat("=", len(title)) + "\n\n")
	fmt.Fprintf(&b, "Normalization of ``%s`` to %s.\n\n", r.Dataset, r.Form)
	b.WriteString(".. code-block:: sql\n\n")
	for _, line := range strings.Split(strings.TrimRight(r.SQL, "\n"), "\n") {
		if line == "" {
			b.WriteString("\n")
			continue
		}
		b.WriteString("   " + line + "\n")
	}
	return b.String()
}

func reportBody(r Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s in %s\n\n", r.Dataset, r.Form)
	fmt.Fprintf(&b, "Dataset `%s` with dependencies `%s` produced %d tables.\n\n",
		filepath.Base(r.SQLFile), filepath.Base(r.DependencyFile), len(r.Tables))
	for _, t := range r.Tables {
		fmt.Fprintf(&b, "- `%s`\n", t)
	}
	if len(r.Tables) > 0 {
		b.WriteString("\n")
	}
	b.WriteString("```sql\n")
	b.WriteString(strings.TrimRight(r.SQL, "\n"))
	b.WriteString("\n```\n")
	return b.String()
}

// writeReport rewrites report.md only when its fingerprint changes.
func (s *Site) writeReport(path string, r Report, body []byte) (string, bool, error) {
	fields := map[string]any{
		"title":           s.settings.HTMLTitle,
		"dataset":         r.Dataset,
		"form":            r.Form,
		"sql_file":        filepath.Base(r.SQLFile),
		"dependency_file": filepath.Base(r.DependencyFile),
		"tables":          append([]string{}, r.Tables...),
	}
	fp, err := fingerprint(fields, body)
	if err != nil {
		return "", false, errors.WrapError(err, errors.CategoryInternal, "could not fingerprint report").Build()
	}

	if existing, err := os.ReadFile(path); err == nil {
		if fm, _, had, splitErr := splitFrontmatter(existing); splitErr == nil && had {
			if old, parseErr := parseFrontmatter(fm); parseErr == nil && old[mdfp.FingerprintField] == fp {
				return fp, false, nil
			}
		}
	}

	fields[mdfp.FingerprintField] = fp
	fields[lastmodField] = s.lastmod(r).UTC().Format(lastmodLayout)
	fm, err := serializeFrontmatter(fields)
	if err != nil {
		return "", false, errors.WrapError(err, errors.CategoryInternal, "could not serialize report frontmatter").Build()
	}
	if err := output.WriteFile(path, string(joinFrontmatter(fm, body))); err != nil {
		return "", false, err
	}
	return fp, true, nil
}

func (s *Site) lastmod(r Report) time.Time {
	if when, ok := lastCommitTime(r.SQLFile, r.DependencyFile); ok {
		return when
	}
	return s.now()
}

func (s *Site) reportPage(body []byte) (string, error) {
	var content bytes.Buffer
	if err := goldmark.Convert(body, &content); err != nil {
		return "", errors.WrapError(err, errors.CategoryInternal, "could not render report.md").Build()
	}
	title := html.EscapeString(s.settings.HTMLTitle)
	var page strings.Builder
	page.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&page, "<title>%s</title>\n", title)
	for _, css := range s.settings.HTMLCSSFiles {
		fmt.Fprintf(&page, "<link rel=\"stylesheet\" href=\"%s\">\n", html.EscapeString(css))
	}
	page.WriteString("</head>\n<body>\n")
	page.Write(content.Bytes())
	page.WriteString("</body>\n</html>\n")
	return page.String(), nil
}
