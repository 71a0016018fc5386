package docsite

import (
	"io"
	"strconv"
	"strings"
	"text/template"
)

var confTemplate = template.Must(template.New("conf.py").Funcs(template.FuncMap{
	"str":   pyString,
	"list":  pyList,
	"tuple": pyTuple,
	"bool":  pyBool,
}).Parse(`# Generated by dbnormalizer docs. Edit dbnormalizer.yaml instead.

extensions = {{ list .Extensions }}

master_doc = {{ str .MasterDoc }}
html_title = {{ str .HTMLTitle }}
html_theme = {{ str .HTMLTheme }}
html_static_path = {{ list .HTMLStaticPath }}

html_css_files = {{ list .HTMLCSSFiles }}

html_theme_options = {
	"repository_url": {{ str .HTMLThemeOptions.RepositoryURL }},
	"use_repository_button": {{ bool .HTMLThemeOptions.UseRepositoryButton }},
	"home_page_in_toc": {{ bool .HTMLThemeOptions.HomePageInTOC }},
}

copybutton_prompt_text = {{ str .CopybuttonPromptText }}

breathe_default_project = {{ str .BreatheDefaultProject }}
breathe_default_members = {{ tuple .BreatheDefaultMembers }}
`))

// RenderConf writes s as a conf.py module.
func (s Settings) RenderConf(w io.Writer) error {
	return confTemplate.Execute(w, s)
}

func pyString(s string) string {
	return strconv.Quote(s)
}

func pyBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}

func pyItems(values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = pyString(v)
	}
	return strings.Join(quoted, ", ")
}

func pyList(values []string) string {
	return "[" + pyItems(values) + "]"
}

func pyTuple(values []string) string {
	if len(values) == 1 {
		return "(" + pyString(values[0]) + ",)"
	}
	return "(" + pyItems(values) + ")"
}
