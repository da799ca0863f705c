// Package templates renders the backend-supplied message templates.
//
// Only an enumerated set of placeholders is recognized. Anything else that
// looks like a placeholder is removed instead of being shown to users.
package templates

import (
	"regexp"
	"strings"
)

var placeholderPattern = regexp.MustCompile(`\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Renderer substitutes {website} and {email}.
type Renderer struct {
	Website string
	Email   string
}

// NewRenderer creates a renderer for the given site values.
func NewRenderer(website, email string) *Renderer {
	return &Renderer{
		Website: strings.TrimRight(website, "/"),
		Email:   email,
	}
}

// Render substitutes the site placeholders plus any caller-provided extras.
// Extras cannot shadow {website} or {email}.
func (r *Renderer) Render(tpl string, extras map[string]string) string {
	if !strings.Contains(tpl, "{") {
		return tpl
	}
	return placeholderPattern.ReplaceAllStringFunc(tpl, func(token string) string {
		name := token[1 : len(token)-1]
		switch name {
		case "website":
			return r.Website
		case "email":
			return r.Email
		}
		if v, ok := extras[name]; ok {
			return v
		}
		return ""
	})
}
