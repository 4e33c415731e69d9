package providers

import "strings"

// styleSuffix biases prompt-only backends toward a consistent aesthetic.
// Backends that accept reference images carry style intent through the
// images themselves and leave the prompt untouched.
const styleSuffix = "vibrant sticker-style illustration, clean white background, high resolution, best quality"

// AugmentPrompt appends the fixed style qualifiers to the caller's prompt.
func AugmentPrompt(prompt string) string {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return styleSuffix
	}
	return prompt + ", " + styleSuffix
}
