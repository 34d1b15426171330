package tmpl

import (
	"bytes"
	"net/url"
	"text/template"
)

var funcs = template.FuncMap{
	"queryEscape": url.QueryEscape,
}

// Render executes text against data. Missing keys are errors.
func Render(name, text string, data interface{}) (string, error) {
	tpl, err := template.New(name).Option("missingkey=error").Funcs(funcs).Parse(text)
	if err != nil {
		return "", err
	}
	buf := &bytes.Buffer{}
	if err := tpl.Execute(buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Check parses text without executing it, so that broken templates are reported before
// any work starts.
func Check(name, text string) error {
	_, err := template.New(name).Funcs(funcs).Parse(text)
	return err
}
