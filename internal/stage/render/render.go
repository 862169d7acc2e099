// Package render produces deployable node configs from a version's template.
package render

import (
	"bytes"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"github.com/tacogips/nodestage/internal/stage/model"
	"github.com/tacogips/nodestage/internal/stage/reader"
)

// Options controls rendering.
type Options struct {
	// Placeholder is the token replaced by the address. Defaults to model.DefaultAddressPlaceholder.
	Placeholder string
	// LegacyBlankLines follows every line emitted by the override pass with a blank line,
	// matching configs generated by older tooling byte for byte.
	LegacyBlankLines bool
}

func (o Options) placeholder() string {
	if o.Placeholder == "" {
		return model.DefaultAddressPlaceholder
	}
	return o.Placeholder
}

// Render applies overrides to template and substitutes every placeholder with address.
// Lines not touched by an override are kept byte for byte.
func Render(template, address string, overrides model.OverrideSet, opts Options) string {
	out := template
	if !overrides.Empty() {
		out = applyOverrides(template, overrides, opts.LegacyBlankLines)
	}
	return strings.ReplaceAll(out, opts.placeholder(), address)
}

func applyOverrides(template string, overrides model.OverrideSet, legacy bool) string {
	lines := strings.Split(template, "\n")
	trailingNewline := strings.HasSuffix(template, "\n")
	if trailingNewline {
		lines = lines[:len(lines)-1]
	}

	var buf bytes.Buffer
	section := ""
	for i, line := range lines {
		emitted := line
		if name, ok := reader.SectionHeader(line); ok {
			section = name
		} else if trimmed := strings.TrimSpace(line); trimmed != "" && !reader.IsComment(trimmed) {
			if key, _, ok := reader.SplitKeyValue(trimmed); ok {
				if value, hit := overrides.Lookup(section, key); hit {
					emitted = key + " = " + value
				}
			}
		}

		buf.WriteString(emitted)
		switch {
		case legacy:
			buf.WriteString("\n\n")
		case i < len(lines)-1 || trailingNewline:
			buf.WriteString("\n")
		}
	}
	return buf.String()
}

// Renderer renders and writes config files for staged versions.
type Renderer struct {
	layout model.Layout
	opts   Options
	writer *FileWriter
	log    zerolog.Logger
}

// NewRenderer creates a Renderer writing below layout.
func NewRenderer(layout model.Layout, opts Options, log zerolog.Logger) *Renderer {
	log = log.With().Str("component", "render").Logger()
	return &Renderer{
		layout: layout,
		opts:   opts,
		writer: NewFileWriter(log),
		log:    log,
	}
}

// RenderVersion renders the version's example config into its config file.
// It returns the path actually written, which is the ".new" sibling when a
// config file is already present.
func (r *Renderer) RenderVersion(version model.ProtocolVersion, address string, overrides model.OverrideSet) (string, error) {
	if err := version.Validate(); err != nil {
		return "", model.NewPreconditionError("", err.Error())
	}
	src := r.layout.ExampleConfigFile(version)
	template, err := os.ReadFile(src)
	if err != nil {
		if os.IsNotExist(err) {
			return "", model.NewPreconditionError(src, "config template not found")
		}
		return "", model.NewIOError(src, "failed to read config template", err)
	}

	content := Render(string(template), address, overrides, r.opts)
	written, err := r.writer.Write(r.layout.ConfigFile(version), []byte(content))
	if err != nil {
		return "", err
	}
	r.log.Info().Str("version", string(version)).Str("path", written).Msg("config rendered")
	return written, nil
}

// RenderVersion is a convenience wrapper that loads overridesPath (may be empty) first.
func RenderVersion(layout model.Layout, version model.ProtocolVersion, address, overridesPath string, opts Options, log zerolog.Logger) (string, error) {
	overrides, err := reader.LoadOverrides(overridesPath)
	if err != nil {
		return "", err
	}
	return NewRenderer(layout, opts, log).RenderVersion(version, address, overrides)
}
