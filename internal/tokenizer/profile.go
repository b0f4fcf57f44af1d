package tokenizer

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/dlclark/regexp2"
)

// Encoding names a tiktoken vocabulary.
type Encoding string

const (
	// CL100kBase is the encoding of GPT-4 and GPT-3.5-turbo.
	CL100kBase Encoding = "cl100k_base"
	// O200kBase is the encoding of GPT-4o.
	O200kBase Encoding = "o200k_base"
	// P50kBase is the encoding of Codex and text-davinci-002/003.
	P50kBase Encoding = "p50k_base"
	// R50kBase is the encoding of the original GPT-3 models.
	R50kBase Encoding = "r50k_base"
)

// Special token literals.
const (
	EndOfText   = "<|endoftext|>"
	FimPrefix   = "<|fim_prefix|>"
	FimMiddle   = "<|fim_middle|>"
	FimSuffix   = "<|fim_suffix|>"
	EndOfPrompt = "<|endofprompt|>"
)

// Segmentation patterns. They must stay byte-for-byte identical to the reference
// tokenizer, any edit changes token counts.
const (
	patternP50k  = `'s|'t|'re|'ve|'m|'ll|'d| ?[A-Za-z]+| ?[0-9]+| ?[^\sA-Za-z0-9]+|\s+(?!\S)|\s+`
	patternP100k = `'s|'t|'re|'ve|'m|'ll|'d|[^\r\n\p{L}\p{N}]?\p{L}+|\p{N}{1,3}| ?[^\s\p{L}\p{N}]+[\r\n]*|\s*[\r\n]+|\s+(?!\S)|\s+`
	patternO200k = `[^\r\n\p{L}\p{N}]?[\p{Lu}\p{Lt}\p{Lm}\p{Lo}\p{M}]*[\p{Ll}\p{Lm}\p{Lo}\p{M}]+(?i:'s|'t|'re|'ve|'m|'ll|'d)?|[^\r\n\p{L}\p{N}]?[\p{Lu}\p{Lt}\p{Lm}\p{Lo}\p{M}]+[\p{Ll}\p{Lm}\p{Lo}\p{M}]*(?i:'s|'t|'re|'ve|'m|'ll|'d)?|\p{N}{1,3}| ?[^\s\p{L}\p{N}]+[\r\n/]*|\s*[\r\n]+|\s+(?!\S)|\s+`
)

// Profile binds an encoding to its segmentation regex and special tokens.
//
// Profiles are built once at package initialisation and never modified.
type Profile struct {
	name            Encoding
	pattern         string
	caseInsensitive bool
	special         map[string]int32
	regex           *regexp2.Regexp
}

var profiles = map[Encoding]*Profile{
	CL100kBase: newProfile(CL100kBase, patternP100k, true, map[string]int32{
		EndOfText:   100257,
		FimPrefix:   100258,
		FimMiddle:   100259,
		FimSuffix:   100260,
		EndOfPrompt: 100276,
	}),
	O200kBase: newProfile(O200kBase, patternO200k, true, map[string]int32{
		EndOfText:   199999,
		EndOfPrompt: 200018,
	}),
	P50kBase: newProfile(P50kBase, patternP50k, false, map[string]int32{
		EndOfText: 50256,
	}),
	R50kBase: newProfile(R50kBase, patternP50k, false, map[string]int32{
		EndOfText: 50256,
	}),
}

func newProfile(name Encoding, pattern string, caseInsensitive bool, special map[string]int32) *Profile {
	return &Profile{
		name:            name,
		pattern:         pattern,
		caseInsensitive: caseInsensitive,
		special:         special,
		regex:           regexp2.MustCompile(pattern, regexOptions(pattern, caseInsensitive)),
	}
}

// regexOptions maps the case-insensitivity flag to compile options.
//
// regexp2 folds the input rune before testing Unicode categories, which would make
// \p{Lu} unreachable under a global IgnoreCase. Patterns that test letter case
// carry their case-insensitivity in inline (?i:...) groups instead.
func regexOptions(pattern string, caseInsensitive bool) regexp2.RegexOptions {
	if caseInsensitive && !strings.Contains(pattern, `\p{Lu}`) {
		return regexp2.IgnoreCase
	}
	return regexp2.None
}

// Encodings returns all known encodings in a stable order.
func Encodings() []Encoding {
	return slices.Sorted(maps.Keys(profiles))
}

// ParseEncoding validates an encoding name.
func ParseEncoding(name string) (Encoding, error) {
	enc := Encoding(name)
	if _, ok := profiles[enc]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownEncoding, name)
	}
	return enc, nil
}

// ProfileFor returns the profile of enc.
func ProfileFor(enc Encoding) (*Profile, error) {
	p, ok := profiles[enc]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEncoding, string(enc))
	}
	return p, nil
}

// Name returns the encoding name.
func (p *Profile) Name() Encoding { return p.name }

// Pattern returns the segmentation regex source.
func (p *Profile) Pattern() string { return p.pattern }

// CaseInsensitive reports whether the profile matches case-insensitively.
func (p *Profile) CaseInsensitive() bool { return p.caseInsensitive }

// SpecialTokens returns a copy of the literal -> id table.
func (p *Profile) SpecialTokens() map[string]int32 {
	return maps.Clone(p.special)
}

// SpecialLiterals returns the special token literals sorted.
func (p *Profile) SpecialLiterals() []string {
	return slices.Sorted(maps.Keys(p.special))
}

// Segmenter returns a segmenter over the profile regex.
func (p *Profile) Segmenter() *Segmenter {
	return &Segmenter{re: p.regex}
}

// modelPrefixes maps model name prefixes to encodings, longest prefix first.
var modelPrefixes = []struct {
	prefix   string
	encoding Encoding
}{
	{"gpt-4o-", O200kBase},
	{"gpt-4.1-", O200kBase},
	{"chatgpt-4o-", O200kBase},
	{"o1-", O200kBase},
	{"o3-", O200kBase},
	{"gpt-4-", CL100kBase},
	{"gpt-3.5-turbo-", CL100kBase},
	{"gpt-35-turbo-", CL100kBase},
	{"ft:gpt-4o", O200kBase},
	{"ft:gpt-4", CL100kBase},
	{"ft:gpt-3.5-turbo", CL100kBase},
	{"ft:davinci-002", CL100kBase},
	{"ft:babbage-002", CL100kBase},
}

var modelEncodings = map[string]Encoding{
	"gpt-4o":                 O200kBase,
	"gpt-4.1":                O200kBase,
	"o1":                     O200kBase,
	"o3":                     O200kBase,
	"gpt-4":                  CL100kBase,
	"gpt-3.5-turbo":          CL100kBase,
	"gpt-3.5":                CL100kBase,
	"gpt-35-turbo":           CL100kBase,
	"davinci-002":            CL100kBase,
	"babbage-002":            CL100kBase,
	"text-embedding-ada-002": CL100kBase,
	"text-embedding-3-small": CL100kBase,
	"text-embedding-3-large": CL100kBase,
	"text-davinci-003":       P50kBase,
	"text-davinci-002":       P50kBase,
	"code-davinci-002":       P50kBase,
	"code-davinci-001":       P50kBase,
	"code-cushman-002":       P50kBase,
	"code-cushman-001":       P50kBase,
	"davinci-codex":          P50kBase,
	"cushman-codex":          P50kBase,
	"text-davinci-001":       R50kBase,
	"text-curie-001":         R50kBase,
	"text-babbage-001":       R50kBase,
	"text-ada-001":           R50kBase,
	"davinci":                R50kBase,
	"curie":                  R50kBase,
	"babbage":                R50kBase,
	"ada":                    R50kBase,
	"gpt2":                   R50kBase,
}

// EncodingForModel returns the encoding used by an OpenAI model name.
func EncodingForModel(model string) (Encoding, error) {
	if enc, ok := modelEncodings[model]; ok {
		return enc, nil
	}
	for _, mp := range modelPrefixes {
		if strings.HasPrefix(model, mp.prefix) {
			return mp.encoding, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownModel, model)
}
