package app

import (
	"context"
	"fmt"
)

// PromptSource produces prompt wording for a run. Prompt engineering is an
// external collaborator; the pipeline only consumes its output.
type PromptSource interface {
	// BasePrompt returns the run's base prompt for a theme.
	BasePrompt(ctx context.Context, theme string) (string, error)

	// Variants derives n prompt variants from the base prompt.
	Variants(ctx context.Context, basePrompt string, n int) ([]string, error)

	// AltText writes accessibility alt text for the chosen image.
	AltText(ctx context.Context, basePrompt, variantPrompt string) (string, error)
}

// templatePrompts is the built-in PromptSource used when no external prompt
// engine is wired. It composes deterministic wording from fixed modifiers.
type templatePrompts struct{}

// NewTemplatePrompts returns the built-in template-based PromptSource.
func NewTemplatePrompts() PromptSource { return templatePrompts{} }

var variantModifiers = []string{
	"soft ambient light, wide composition",
	"dramatic contrast, intricate detail",
	"muted palette, minimalist framing",
	"vivid colors, dreamlike atmosphere",
	"golden hour glow, cinematic depth",
}

func (templatePrompts) BasePrompt(ctx context.Context, theme string) (string, error) {
	return fmt.Sprintf("%s wallpaper, highly detailed, no text, no watermark", theme), nil
}

func (templatePrompts) Variants(ctx context.Context, basePrompt string, n int) ([]string, error) {
	variants := make([]string, 0, n)
	for i := 0; i < n; i++ {
		mod := variantModifiers[i%len(variantModifiers)]
		variants = append(variants, basePrompt+", "+mod)
	}
	return variants, nil
}

func (templatePrompts) AltText(ctx context.Context, basePrompt, variantPrompt string) (string, error) {
	return "AI-generated wallpaper: " + basePrompt, nil
}
