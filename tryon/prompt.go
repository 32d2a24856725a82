package tryon

import (
	"fmt"
	"strings"

	"github.com/raushankrgupta/fitscroll/models"
)

const defaultEnvironment = "a photogenic location with soft natural light and a clean, uncluttered background"

// scene for each known style tag, keyed in lower case
var environments = map[string]string{
	"streetwear":  "a busy city street with graffiti walls, crosswalks and urban energy",
	"y2k":         "a glossy early-2000s mall with chrome details and pastel neon lights",
	"minimalist":  "a bright gallery space with white walls and concrete floors",
	"vintage":     "a sunlit thrift store street with old storefronts and warm film tones",
	"athleisure":  "a modern gym terrace or a running track at golden hour",
	"formal":      "an elegant hotel lobby with marble floors and soft chandeliers",
	"boho":        "a desert festival field with wildflowers and warm sunset light",
	"grunge":      "a moody alley outside a music venue with brick walls and dim lights",
	"preppy":      "a leafy university campus with ivy covered brick buildings",
	"old money":   "a country club terrace overlooking tennis courts and manicured lawns",
	"techwear":    "a rain-soaked city underpass with cold LED lighting",
	"cottagecore": "a blooming cottage garden with a wooden fence and morning light",
	"business":    "a glass-walled office lobby in a financial district",
	"casual":      "a relaxed neighbourhood cafe terrace on a sunny afternoon",
}

// EnvironmentFor maps a style tag to a scene description
func EnvironmentFor(styleTag string) string {
	if env, ok := environments[strings.ToLower(strings.TrimSpace(styleTag))]; ok {
		return env
	}
	return defaultEnvironment
}

// BuildPrompt writes the instruction sent with the base photo and the outfit reference
func BuildPrompt(caption string, gender models.Gender, styleHint string) string {
	var b strings.Builder
	b.WriteString("The first image is a photo of a person. The second image shows an outfit.\n")
	b.WriteString("Dress the person from the first image in the outfit from the second image.\n")
	b.WriteString("Keep the person's face, body shape, skin tone and hair exactly the same; do not replace them with a different person.\n")
	b.WriteString("Show the full outfit with realistic fit, fabric and lighting, as a candid fashion photo.\n")
	if gender != models.GenderUnset {
		fmt.Fprintf(&b, "The person is %s.\n", gender)
	}
	if c := strings.TrimSpace(caption); c != "" {
		fmt.Fprintf(&b, "Outfit description: %s.\n", c)
	}
	fmt.Fprintf(&b, "Setting: %s.\n", EnvironmentFor(styleHint))
	return b.String()
}

// OutputInstructions describes the fixed output configuration of a deployment
func OutputInstructions(modalities []string, aspectRatio string) string {
	var parts []string
	if len(modalities) > 0 {
		parts = append(parts, fmt.Sprintf("Respond with %s.", strings.ToLower(strings.Join(modalities, " and "))))
	}
	if aspectRatio != "" {
		parts = append(parts, fmt.Sprintf("Return exactly one image with a %s aspect ratio.", aspectRatio))
	}
	return strings.Join(parts, " ")
}
