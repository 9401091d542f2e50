package config

// TocName is the table name of the toc preprocessor under [preprocessor]
const TocName = "toc"

// TocConfig holds the [preprocessor.toc] settings
type TocConfig struct {
	// Command is set by the host when the preprocessor runs out of process
	Command string `toml:"command"`

	// Renderers is a list of renderer names this preprocessor applies to
	// If empty, applies to all renderers
	Renderers []string `toml:"renderers"`

	// EntryTemplate is the handlebars template for one list line
	// If empty, the built-in "* [label](#slug)" form is used
	EntryTemplate string `toml:"entry-template"`
}

// DefaultTocConfig returns a toc config with defaults
func DefaultTocConfig() TocConfig {
	return TocConfig{}
}

// Supports reports whether the preprocessor should run for renderer
func (t *TocConfig) Supports(renderer string) bool {
	if len(t.Renderers) == 0 {
		return true
	}
	for _, r := range t.Renderers {
		if r == renderer {
			return true
		}
	}
	return false
}
