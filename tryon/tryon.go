package tryon

import (
	"context"
	"fmt"

	"github.com/raushankrgupta/fitscroll/models"
)

// Request describes one try-on: the user's photo composited into one outfit reference
type Request struct {
	BasePhoto      string
	ReferenceImage string
	Caption        string
	Gender         models.Gender
	StyleHint      string
}

// GenerateTryOn loads both images, builds the scene prompt and generates the composite.
// It does not call the model when either image cannot be loaded.
func (c *Client) GenerateTryOn(ctx context.Context, req Request) (string, error) {
	base, err := c.loader.Load(ctx, req.BasePhoto)
	if err != nil {
		return "", fmt.Errorf("load base photo: %w", err)
	}
	reference, err := c.loader.Load(ctx, req.ReferenceImage)
	if err != nil {
		return "", fmt.Errorf("load reference image: %w", err)
	}

	prompt := BuildPrompt(req.Caption, req.Gender, req.StyleHint)
	return c.Generate(ctx, prompt, []InlineImage{base, reference})
}
