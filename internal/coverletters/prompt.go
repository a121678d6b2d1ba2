package coverletters

import (
	_ "embed"
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed prompts/phrases.yaml
var defaultPromptYAML []byte

const (
	dateLayout      = "January 02, 2006"
	datePlaceholder = "{{date}}"
)

// PromptConfig holds the fixed prompt text.
type PromptConfig struct {
	System              string   `yaml:"system"`
	Role                string   `yaml:"role"`
	MetadataSystem      string   `yaml:"metadata_system"`
	MetadataInstruction string   `yaml:"metadata_instruction"`
	DefaultTemplate     string   `yaml:"default_template"`
	ForbiddenPhrases    []string `yaml:"forbidden_phrases"`
	Closing             string   `yaml:"closing"`
}

// ParsePromptConfig decodes prompt text from YAML.
func ParsePromptConfig(data []byte) (PromptConfig, error) {
	var cfg PromptConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return PromptConfig{}, fmt.Errorf("parse prompt config: %w", err)
	}
	if strings.TrimSpace(cfg.Role) == "" || strings.TrimSpace(cfg.DefaultTemplate) == "" {
		return PromptConfig{}, fmt.Errorf("parse prompt config: role and default_template are required")
	}
	return cfg, nil
}

// PromptBuilder assembles model prompts. It does no I/O and never rejects input.
type PromptBuilder struct {
	cfg PromptConfig
	now func() time.Time
}

// NewPromptBuilder returns a builder using the embedded prompt text.
func NewPromptBuilder() (*PromptBuilder, error) {
	cfg, err := ParsePromptConfig(defaultPromptYAML)
	if err != nil {
		return nil, err
	}
	return &PromptBuilder{cfg: cfg, now: time.Now}, nil
}

func (b *PromptBuilder) System() string         { return b.cfg.System }
func (b *PromptBuilder) MetadataSystem() string { return b.cfg.MetadataSystem }

// DefaultTemplate is the format template used when a profile has none.
func (b *PromptBuilder) DefaultTemplate() string { return b.cfg.DefaultTemplate }

// BuildMetadata builds the prompt for the company/job title pass.
func (b *PromptBuilder) BuildMetadata(req SubmissionRequest) string {
	var sb strings.Builder
	sb.WriteString(b.cfg.MetadataInstruction)
	sb.WriteString("\n\nJob Description:\n")
	sb.WriteString(req.JobDescription)
	return sb.String()
}

// BuildFinal builds the letter prompt. Sections always appear in the same order.
func (b *PromptBuilder) BuildFinal(req SubmissionRequest, profile Profile, meta Metadata) string {
	var sb strings.Builder
	section := func(label, body string) {
		sb.WriteString("\n\n")
		sb.WriteString(label)
		sb.WriteString(":\n")
		sb.WriteString(body)
	}

	sb.WriteString(b.cfg.Role)
	section("Candidate Name", profile.FullName())
	if meta.CompanyName != "" {
		section("Company", meta.CompanyName)
	}
	if meta.JobTitle != "" {
		section("Job Title", meta.JobTitle)
	}
	section("Job Description", req.JobDescription)
	section("Format", b.template(profile.CoverLetterTemplate))
	section("Focus Areas", req.FocusAreas)
	section("Resume", req.ResumeText)
	section("Never use these phrases", b.forbiddenList())
	sb.WriteString("\n\n")
	sb.WriteString(b.cfg.Closing)
	return sb.String()
}

func (b *PromptBuilder) template(custom string) string {
	tmpl := custom
	if strings.TrimSpace(tmpl) == "" {
		tmpl = b.cfg.DefaultTemplate
	}
	return strings.ReplaceAll(tmpl, datePlaceholder, b.now().Format(dateLayout))
}

func (b *PromptBuilder) forbiddenList() string {
	lines := make([]string, 0, len(b.cfg.ForbiddenPhrases))
	for _, p := range b.cfg.ForbiddenPhrases {
		lines = append(lines, "- "+p)
	}
	return strings.Join(lines, "\n")
}
