// Package render fills control-script templates with run settings.
//
// Templates use text/template syntax, e.g. "/run/beamOn {{.nevents}}", with the sprig
// function library available. Every setting is turned into a string before rendering,
// so templates never see the type a value was configured with.
//
// Placeholders match setting keys regardless of case when there is no exact match, since
// config files don't preserve the case of keys: {{.gunParticle}} finds a "gunparticle" setting.
package render

import (
	"bytes"
	"sort"
	"strings"
	"text/template"
	"text/template/parse"

	"github.com/Masterminds/sprig/v3"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"github.com/spf13/cast"

	"github.com/pg4sim/pg4launch/internal/common/launcherrors"
)

// Renderer renders one parsed template.
type Renderer struct {
	name     string
	template *template.Template
	// Top-level keys the template refers to.
	fields []string
}

// New parses text as a template. name is used in error messages.
func New(name, text string) (*Renderer, error) {
	tmpl, err := template.New(name).
		Funcs(sprig.TxtFuncMap()).
		Option("missingkey=error").
		Parse(text)
	if err != nil {
		return nil, errors.WithStack(&launcherrors.ErrInvalidArgument{
			Name:    "template",
			Value:   name,
			Message: err.Error(),
		})
	}
	return &Renderer{name: name, template: tmpl, fields: fieldNames(tmpl)}, nil
}

// Load reads and parses the template at path.
func Load(fs afero.Fs, path string) (*Renderer, error) {
	text, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, errors.WithStack(&launcherrors.ErrInvalidArgument{
			Name:    "template",
			Value:   path,
			Message: err.Error(),
		})
	}
	return New(path, string(text))
}

// Render substitutes settings into the template.
// It fails with ErrUnresolvedPlaceholder if the template refers to a key that isn't in settings.
func (r *Renderer) Render(settings map[string]interface{}) (string, error) {
	values, err := Stringify(settings)
	if err != nil {
		return "", err
	}
	r.resolveCase(values)
	var buf bytes.Buffer
	if err := r.template.Execute(&buf, values); err != nil {
		if strings.Contains(err.Error(), "map has no entry for key") {
			return "", errors.WithStack(&launcherrors.ErrUnresolvedPlaceholder{
				Template: r.name,
				Cause:    err.Error(),
			})
		}
		return "", errors.Wrapf(err, "error rendering template %s", r.name)
	}
	return buf.String(), nil
}

// resolveCase adds the fields of the template missing from values under their own spelling,
// when exactly one key of values matches them ignoring case.
func (r *Renderer) resolveCase(values map[string]string) {
	aliases := make(map[string]string)
	for _, field := range r.fields {
		if _, ok := values[field]; ok {
			continue
		}
		var matches []string
		for k := range values {
			if strings.EqualFold(k, field) {
				matches = append(matches, k)
			}
		}
		if len(matches) == 1 {
			aliases[field] = values[matches[0]]
		}
	}
	for field, value := range aliases {
		values[field] = value
	}
}

// fieldNames returns the first identifier of every field reference in tmpl and its associated
// templates, e.g. "gun" for {{.gun.energy}}, sorted.
func fieldNames(tmpl *template.Template) []string {
	seen := make(map[string]bool)
	for _, t := range tmpl.Templates() {
		if t.Tree != nil {
			collectFields(t.Tree.Root, seen)
		}
	}
	rv := make([]string, 0, len(seen))
	for name := range seen {
		rv = append(rv, name)
	}
	sort.Strings(rv)
	return rv
}

func collectFields(node parse.Node, seen map[string]bool) {
	switch n := node.(type) {
	case *parse.ListNode:
		if n == nil {
			return
		}
		for _, child := range n.Nodes {
			collectFields(child, seen)
		}
	case *parse.ActionNode:
		collectFields(n.Pipe, seen)
	case *parse.IfNode:
		collectBranch(&n.BranchNode, seen)
	case *parse.RangeNode:
		collectBranch(&n.BranchNode, seen)
	case *parse.WithNode:
		collectBranch(&n.BranchNode, seen)
	case *parse.TemplateNode:
		collectFields(n.Pipe, seen)
	case *parse.PipeNode:
		if n == nil {
			return
		}
		for _, cmd := range n.Cmds {
			collectFields(cmd, seen)
		}
	case *parse.CommandNode:
		for _, arg := range n.Args {
			collectFields(arg, seen)
		}
	case *parse.ChainNode:
		collectFields(n.Node, seen)
	case *parse.FieldNode:
		if len(n.Ident) > 0 {
			seen[n.Ident[0]] = true
		}
	}
}

func collectBranch(n *parse.BranchNode, seen map[string]bool) {
	collectFields(n.Pipe, seen)
	collectFields(n.List, seen)
	collectFields(n.ElseList, seen)
}

// Stringify converts every value to its natural text form: integers in decimal,
// floats in the shortest form that round-trips, strings unchanged.
func Stringify(settings map[string]interface{}) (map[string]string, error) {
	rv := make(map[string]string, len(settings))
	for k, v := range settings {
		s, err := cast.ToStringE(v)
		if err != nil {
			return nil, errors.WithStack(&launcherrors.ErrInvalidArgument{
				Name:    k,
				Value:   v,
				Message: "setting values must be strings or numbers",
			})
		}
		rv[k] = s
	}
	return rv, nil
}

// WriteArtifact writes rendered text to path, replacing any existing file.
func WriteArtifact(fs afero.Fs, path, text string) error {
	if err := afero.WriteFile(fs, path, []byte(text), 0o644); err != nil {
		return errors.Wrapf(err, "error writing %s", path)
	}
	return nil
}
