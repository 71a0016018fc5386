package docsite

import (
	"fmt"
	"slices"
	"strings"

	"github.com/Phaysik/database-normalizer/internal/foundation/errors"
)

// Configuration keys understood by Assign.
const (
	KeyExtensions            = "extensions"
	KeyMasterDoc             = "master_doc"
	KeyHTMLTitle             = "html_title"
	KeyHTMLTheme             = "html_theme"
	KeyHTMLStaticPath        = "html_static_path"
	KeyHTMLCSSFiles          = "html_css_files"
	KeyHTMLThemeOptions      = "html_theme_options"
	KeyCopybuttonPromptText  = "copybutton_prompt_text"
	KeyBreatheDefaultProject = "breathe_default_project"
	KeyBreatheDefaultMembers = "breathe_default_members"
)

// Theme option keys.
const (
	OptionRepositoryURL       = "repository_url"
	OptionUseRepositoryButton = "use_repository_button"
	OptionHomePageInTOC       = "home_page_in_toc"
)

// ThemeOptions holds the html_theme_options mapping.
type ThemeOptions struct {
	RepositoryURL       string `yaml:"repository_url"`
	UseRepositoryButton bool   `yaml:"use_repository_button"`
	HomePageInTOC       bool   `yaml:"home_page_in_toc"`
}

// Settings is the documentation generator configuration written to conf.py.
type Settings struct {
	Extensions            []string     `yaml:"extensions"`
	MasterDoc             string       `yaml:"master_doc"`
	HTMLTitle             string       `yaml:"html_title"`
	HTMLTheme             string       `yaml:"html_theme"`
	HTMLStaticPath        []string     `yaml:"html_static_path"`
	HTMLCSSFiles          []string     `yaml:"html_css_files"`
	HTMLThemeOptions      ThemeOptions `yaml:"html_theme_options"`
	CopybuttonPromptText  string       `yaml:"copybutton_prompt_text"`
	BreatheDefaultProject string       `yaml:"breathe_default_project"`
	BreatheDefaultMembers []string     `yaml:"breathe_default_members"`
}

// Assignment is one key = value statement replayed onto Settings.
type Assignment struct {
	Key   string `yaml:"key"`
	Value any    `yaml:"value"`
}

// Published returns the assignment sequence of the project's conf.py.
// extensions is assigned twice; the second list is the one in effect.
func Published() []Assignment {
	return []Assignment{
		{KeyExtensions, []string{"breathe"}},
		{KeyMasterDoc, "rst/index"},
		{KeyHTMLTitle, "Database Normalizer"},
		{KeyHTMLTheme, "sphinx_book_theme"},
		{KeyHTMLStaticPath, []string{"docs/_static/"}},
		{KeyHTMLCSSFiles, []string{"css/custom.css"}},
		{KeyHTMLThemeOptions, ThemeOptions{
			RepositoryURL:       "https://github.com/Phaysik/database-normalizer",
			UseRepositoryButton: true,
			HomePageInTOC:       true,
		}},
		{KeyExtensions, []string{"sphinx_copybutton", "sphinx_last_updated_by_git", "notfound.extension"}},
		{KeyCopybuttonPromptText, "Copy to clipboard"},
		{KeyBreatheDefaultProject, "documentation"},
		{KeyBreatheDefaultMembers, []string{"members", "protected-members", "private-members"}},
	}
}

// Defaults returns the settings produced by replaying Published.
func Defaults() Settings {
	var s Settings
	if err := s.ApplyAll(Published()); err != nil {
		panic(err)
	}
	return s
}

// Clone returns a deep copy of s.
func (s Settings) Clone() Settings {
	s.Extensions = slices.Clone(s.Extensions)
	s.HTMLStaticPath = slices.Clone(s.HTMLStaticPath)
	s.HTMLCSSFiles = slices.Clone(s.HTMLCSSFiles)
	s.BreatheDefaultMembers = slices.Clone(s.BreatheDefaultMembers)
	return s
}

// ApplyAll replays assignments in order. Later assignments to the same key
// replace earlier ones.
func (s *Settings) ApplyAll(assignments []Assignment) error {
	for i, a := range assignments {
		if err := s.Assign(a.Key, a.Value); err != nil {
			return errors.WrapError(err, errors.CategoryValidation, "invalid docs assignment").
				WithContext("index", i).
				WithContext("key", a.Key).
				Build()
		}
	}
	return nil
}

// Assign sets key to value, replacing any previous value.
func (s *Settings) Assign(key string, value any) error {
	var err error
	switch key {
	case KeyExtensions:
		s.Extensions, err = stringList(key, value)
	case KeyHTMLStaticPath:
		s.HTMLStaticPath, err = stringList(key, value)
	case KeyHTMLCSSFiles:
		s.HTMLCSSFiles, err = stringList(key, value)
	case KeyBreatheDefaultMembers:
		s.BreatheDefaultMembers, err = stringList(key, value)
	case KeyMasterDoc:
		s.MasterDoc, err = stringValue(key, value)
	case KeyHTMLTitle:
		s.HTMLTitle, err = stringValue(key, value)
	case KeyHTMLTheme:
		s.HTMLTheme, err = stringValue(key, value)
	case KeyCopybuttonPromptText:
		s.CopybuttonPromptText, err = stringValue(key, value)
	case KeyBreatheDefaultProject:
		s.BreatheDefaultProject, err = stringValue(key, value)
	case KeyHTMLThemeOptions:
		s.HTMLThemeOptions, err = themeOptions(value)
	default:
		err = errors.ValidationError(fmt.Sprintf("unknown docs key %q", key)).Build()
	}
	return err
}

// Validate reports the first well-formedness problem in s.
func (s Settings) Validate() error {
	required := []struct{ key, value string }{
		{KeyMasterDoc, s.MasterDoc},
		{KeyHTMLTitle, s.HTMLTitle},
		{KeyHTMLTheme, s.HTMLTheme},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return errors.ValidationError(fmt.Sprintf("%s must not be empty", r.key)).Build()
		}
	}
	if strings.HasPrefix(s.MasterDoc, "/") || strings.Contains(s.MasterDoc, "..") {
		return errors.ValidationError(fmt.Sprintf("%s must be a relative path inside the site", KeyMasterDoc)).
			WithContext("value", s.MasterDoc).
			Build()
	}
	lists := []struct {
		key    string
		values []string
	}{
		{KeyExtensions, s.Extensions},
		{KeyHTMLStaticPath, s.HTMLStaticPath},
		{KeyHTMLCSSFiles, s.HTMLCSSFiles},
		{KeyBreatheDefaultMembers, s.BreatheDefaultMembers},
	}
	for _, l := range lists {
		for i, v := range l.values {
			if strings.TrimSpace(v) == "" {
				return errors.ValidationError(fmt.Sprintf("%s[%d] must not be empty", l.key, i)).Build()
			}
		}
	}
	return nil
}

func stringValue(key string, value any) (string, error) {
	v, ok := value.(string)
	if !ok {
		return "", errors.ValidationError(fmt.Sprintf("%s expects a string, got %T", key, value)).Build()
	}
	return v, nil
}

func stringList(key string, value any) ([]string, error) {
	switch v := value.(type) {
	case string:
		return []string{v}, nil
	case []string:
		return slices.Clone(v), nil
	case []any:
		out := make([]string, 0, len(v))
		for i, item := range v {
			str, ok := item.(string)
			if !ok {
				return nil, errors.ValidationError(fmt.Sprintf("%s[%d] expects a string, got %T", key, i, item)).Build()
			}
			out = append(out, str)
		}
		return out, nil
	default:
		return nil, errors.ValidationError(fmt.Sprintf("%s expects a list of strings, got %T", key, value)).Build()
	}
}

func themeOptions(value any) (ThemeOptions, error) {
	switch v := value.(type) {
	case ThemeOptions:
		return v, nil
	case map[string]any:
		var opts ThemeOptions
		for k, raw := range v {
			var ok bool
			switch k {
			case OptionRepositoryURL:
				opts.RepositoryURL, ok = raw.(string)
			case OptionUseRepositoryButton:
				opts.UseRepositoryButton, ok = raw.(bool)
			case OptionHomePageInTOC:
				opts.HomePageInTOC, ok = raw.(bool)
			default:
				return ThemeOptions{}, errors.ValidationError(fmt.Sprintf("unknown theme option %q", k)).Build()
			}
			if !ok {
				return ThemeOptions{}, errors.ValidationError(fmt.Sprintf("theme option %q has the wrong type %T", k, raw)).Build()
			}
		}
		return opts, nil
	default:
		return ThemeOptions{}, errors.ValidationError(fmt.Sprintf("%s expects a mapping, got %T", KeyHTMLThemeOptions, value)).Build()
	}
}
