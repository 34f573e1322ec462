// Package pii masks personal identifiers in text before it is stored or answered.
package pii

import (
	"regexp"

	"github.com/hyperjump/tanya/internal/config"
)

// Masker rewrites text to hide personal identifiers. Implementations must be pure.
type Masker interface {
	Mask(text string) string
}

// MaskerFunc adapts a function to the Masker interface.
type MaskerFunc func(string) string

// Mask calls f(text).
func (f MaskerFunc) Mask(text string) string { return f(text) }

var aadhaarPattern = regexp.MustCompile(`\b\d{12}\b`)

// Aadhaar masks 12-digit Aadhaar numbers, keeping the last four digits: XXXX-XXXX-1234.
var Aadhaar = MaskerFunc(func(text string) string {
	return aadhaarPattern.ReplaceAllStringFunc(text, func(n string) string {
		return "XXXX-XXXX-" + n[8:]
	})
})

// Chain applies maskers in order.
type Chain []Masker

// Mask runs text through every masker.
func (c Chain) Mask(text string) string {
	for _, m := range c {
		text = m.Mask(text)
	}
	return text
}

// None leaves text unchanged.
var None = MaskerFunc(func(text string) string { return text })

// New builds the masker chain enabled by cfg.
func New(cfg *config.PIIConfig) Masker {
	var chain Chain
	if cfg.AadhaarOrDefault() {
		chain = append(chain, Aadhaar)
	}
	if len(chain) == 0 {
		return None
	}
	return chain
}
