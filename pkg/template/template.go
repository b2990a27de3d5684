package template

// Channel identifies the delivery channel a template is written for.
type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelSMS   Channel = "sms"
)

// Variable declares a placeholder a template expects.
// MaxLength is used only for worst-case SMS length estimation.
type Variable struct {
	Name      string `json:"name" yaml:"name"`
	Required  bool   `json:"required" yaml:"required"`
	MaxLength int    `json:"max_length,omitempty" yaml:"max_length,omitempty"`
}

// Template is a read-only message template owned by an external repository.
// SubjectTemplate and BodyHTML are only meaningful for email templates;
// BodyText is the canonical body for both channels.
type Template struct {
	ID              string     `json:"id"`
	Channel         Channel    `json:"channel"`
	SubjectTemplate string     `json:"subject_template,omitempty"`
	BodyHTML        string     `json:"body_template_html,omitempty"`
	BodyText        string     `json:"body_template_text"`
	Variables       []Variable `json:"variables"`
	Version         int        `json:"version"`
}

// variable returns the declared variable with the given name, if any.
func (t Template) variable(name string) (Variable, bool) {
	for _, v := range t.Variables {
		if v.Name == name {
			return v, true
		}
	}
	return Variable{}, false
}

// RenderedOutput is the result of rendering a template.
// CharacterCount and SegmentCount describe the rendered text body and are
// primarily interesting for SMS templates.
type RenderedOutput struct {
	Subject        string `json:"subject,omitempty"`
	HTML           string `json:"html,omitempty"`
	Text           string `json:"text"`
	CharacterCount int    `json:"character_count"`
	SegmentCount   int    `json:"segment_count"`
}

// ValidationResult reports the outcome of Validate.
// Errors make a template unusable with the given input; warnings flag
// references outside the declared variable list but do not block rendering.
type ValidationResult struct {
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}
