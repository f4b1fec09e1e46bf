package pitch

import (
	"fmt"
	"os"
	"strings"
	"sync"
)

// systemPrompt pins the output contract. The extractor downstream
// tolerates fences, prose, and sloppy quoting anyway, but asking for
// clean JSON up front keeps the repair stages mostly idle.
const systemPrompt = `You are a startup pitch writer. You are given an existing app and an unrelated niche, and you write the pitch for applying that app's core mechanic to that niche.

Respond with a JSON object containing exactly two string fields:
  "summary": an executive-summary paragraph, followed by a short numbered business-model list (2 to 4 entries)
  "quip": one snappy landing-page sentence

Respond with the JSON object only. No code fences, no commentary before or after.`

// defaultUserTemplate is the built-in request template. {{app}} and
// {{niche}} are substituted with the sanitized inputs.
const defaultUserTemplate = `Write the pitch for "{{app}} for {{niche}}": {{app}}'s core mechanic applied to the {{niche}} market. Make the summary read like the top slide of a deck and the quip read like the hero line of a landing page.`

// PromptBuilder renders the backend prompt from a template. The
// template is swappable at runtime (see TemplateWatcher), so reads and
// writes go through a lock.
type PromptBuilder struct {
	mu       sync.RWMutex
	template string
}

// NewPromptBuilder returns a builder using the built-in template.
func NewPromptBuilder() *PromptBuilder {
	return &PromptBuilder{template: defaultUserTemplate}
}

// Render produces the system and user prompt texts for a sanitized
// pair. Pure with respect to the current template.
func (b *PromptBuilder) Render(app, niche string) (system, user string) {
	b.mu.RLock()
	tmpl := b.template
	b.mu.RUnlock()

	r := strings.NewReplacer("{{app}}", app, "{{niche}}", niche)
	return systemPrompt, r.Replace(tmpl)
}

// Template returns the current user template text.
func (b *PromptBuilder) Template() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.template
}

// SetTemplate swaps the user template. Empty input restores the
// built-in default.
func (b *PromptBuilder) SetTemplate(tmpl string) {
	tmpl = strings.TrimSpace(tmpl)
	if tmpl == "" {
		tmpl = defaultUserTemplate
	}
	b.mu.Lock()
	b.template = tmpl
	b.mu.Unlock()
}

// LoadFile replaces the template with the contents of path.
func (b *PromptBuilder) LoadFile(path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read template %s: %w", path, err)
	}
	b.SetTemplate(string(content))
	return nil
}
