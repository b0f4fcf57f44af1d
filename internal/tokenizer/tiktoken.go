package tokenizer

import (
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"
)

// allSpecial is the literal that stands for every special token of a profile.
const allSpecial = "all"

// SpecialPolicy controls how special token literals in the input are treated.
//
// Allowed literals are emitted as their special token ids. Disallowed literals make
// encoding fail. A list holding only "all" expands to the profile's full set; for
// Disallowed that is the full set minus the allowed literals. Literals in neither
// list are encoded as plain text.
type SpecialPolicy struct {
	Allowed    []string
	Disallowed []string
}

// DefaultSpecialPolicy allows no special tokens and rejects all of them.
func DefaultSpecialPolicy() SpecialPolicy {
	return SpecialPolicy{Disallowed: []string{allSpecial}}
}

// PlainTextPolicy treats special literals as ordinary text.
func PlainTextPolicy() SpecialPolicy {
	return SpecialPolicy{}
}

// AllowAllPolicy encodes every special literal as its special token.
func AllowAllPolicy() SpecialPolicy {
	return SpecialPolicy{Allowed: []string{allSpecial}}
}

// TikToken is a tiktoken-compatible BPE tokenizer for one encoding.
//
// A TikToken holds only immutable data and is safe for concurrent use.
type TikToken struct {
	profile        *Profile
	encoder        Encoder
	decoder        map[int32][]byte
	special        map[string]int32
	specialDecoder map[int32]string
	segmenter      *Segmenter
}

var (
	_ Tokenizer = (*TikToken)(nil)
	_ Counter   = (*TikToken)(nil)
)

// NewTikToken creates a tokenizer from a profile and its loaded vocabulary.
func NewTikToken(profile *Profile, encoder Encoder) *TikToken {
	special := profile.SpecialTokens()
	specialDecoder := make(map[int32]string, len(special))
	for lit, id := range special {
		specialDecoder[id] = lit
	}

	return &TikToken{
		profile:        profile,
		encoder:        encoder,
		decoder:        encoder.Decoder(),
		special:        special,
		specialDecoder: specialDecoder,
		segmenter:      profile.Segmenter(),
	}
}

// Name returns the encoding name.
func (t *TikToken) Name() string {
	return string(t.profile.Name())
}

// Profile returns the encoding profile.
func (t *TikToken) Profile() *Profile {
	return t.profile
}

// Encode converts text to token IDs, rejecting any special token literal.
func (t *TikToken) Encode(text string) ([]int32, error) {
	return t.EncodeWithPolicy(text, DefaultSpecialPolicy())
}

// EncodeWithPolicy converts text to token IDs under the given special token policy.
func (t *TikToken) EncodeWithPolicy(text string, policy SpecialPolicy) ([]int32, error) {
	allowed := t.resolveAllowed(policy.Allowed)
	disallowed := t.resolveDisallowed(policy.Disallowed, allowed)

	if found := containedLiterals(text, disallowed); len(found) > 0 {
		return nil, &DisallowedSpecialError{Tokens: found}
	}

	tokens := make([]int32, 0, len(text)/4+1)
	rest := text
	for {
		pos, lit := earliestLiteral(rest, allowed)

		plain := rest
		if pos >= 0 {
			plain = rest[:pos]
		}

		var err error
		if tokens, err = t.encodeOrdinary(tokens, plain, len(text)-len(rest)); err != nil {
			return nil, err
		}

		if pos < 0 {
			break
		}

		id, ok := t.special[lit]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrSpecialTokenMissing, lit)
		}
		tokens = append(tokens, id)
		rest = rest[pos+len(lit):]
	}

	return tokens, nil
}

// encodeOrdinary appends the tokens of a text without special tokens. base is the
// offset of plain within the caller's input.
func (t *TikToken) encodeOrdinary(tokens []int32, plain string, base int) ([]int32, error) {
	spans, err := t.segmenter.Segment(plain)
	if err != nil {
		return nil, err
	}

	for _, sp := range spans {
		piece := plain[sp.Start:sp.End]
		if i := invalidUTF8Index(piece); i >= 0 {
			return nil, fmt.Errorf("%w: invalid UTF-8 at byte %d", ErrEncodingFailed, base+sp.Start+i)
		}

		if id, ok := t.encoder[piece]; ok {
			tokens = append(tokens, id)
			continue
		}

		merged, err := BytePairEncode([]byte(piece), t.encoder)
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, merged...)
	}

	return tokens, nil
}

// Count returns the number of tokens in text, treating special literals as text.
func (t *TikToken) Count(text string) (int, error) {
	tokens, err := t.EncodeWithPolicy(text, PlainTextPolicy())
	if err != nil {
		return 0, err
	}
	return len(tokens), nil
}

// DecodeBytes converts token IDs back to raw bytes.
func (t *TikToken) DecodeBytes(tokens []int32) ([]byte, error) {
	out := make([]byte, 0, len(tokens)*4)
	for i, tok := range tokens {
		if b, ok := t.decoder[tok]; ok {
			out = append(out, b...)
			continue
		}
		if lit, ok := t.specialDecoder[tok]; ok {
			out = append(out, lit...)
			continue
		}
		return nil, &UnknownTokenError{Token: tok, Position: i}
	}
	return out, nil
}

// Decode converts token IDs back to text.
func (t *TikToken) Decode(tokens []int32) (string, error) {
	b, err := t.DecodeBytes(tokens)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(b) {
		return "", ErrInvalidUTF8
	}
	return string(b), nil
}

// VocabSize returns one more than the highest token id, special tokens included.
func (t *TikToken) VocabSize() int {
	maxID := int32(-1)
	for id := range t.decoder {
		maxID = max(maxID, id)
	}
	for id := range t.specialDecoder {
		maxID = max(maxID, id)
	}
	return int(maxID) + 1
}

// BosToken returns -1, tiktoken encodings have no BOS token.
func (t *TikToken) BosToken() int32 {
	return -1
}

// EosToken returns the <|endoftext|> id, or -1 if the profile lacks it.
func (t *TikToken) EosToken() int32 {
	if id, ok := t.special[EndOfText]; ok {
		return id
	}
	return -1
}

// PadToken returns -1, tiktoken doesn't define a padding token.
func (t *TikToken) PadToken() int32 {
	return -1
}

// UnkToken returns UnknownToken.
func (t *TikToken) UnkToken() int32 {
	return UnknownToken
}

// IsSpecialToken checks if a token ID is a special token.
func (t *TikToken) IsSpecialToken(token int32) bool {
	_, ok := t.specialDecoder[token]
	return ok
}

// SpecialTokens returns a copy of the special token table.
func (t *TikToken) SpecialTokens() map[string]int32 {
	return t.profile.SpecialTokens()
}

func (t *TikToken) resolveAllowed(allowed []string) []string {
	if isAll(allowed) {
		return t.profile.SpecialLiterals()
	}
	return nonEmpty(allowed)
}

func (t *TikToken) resolveDisallowed(disallowed, allowed []string) []string {
	if !isAll(disallowed) {
		return nonEmpty(disallowed)
	}

	var out []string
	for _, lit := range t.profile.SpecialLiterals() {
		if !slices.Contains(allowed, lit) {
			out = append(out, lit)
		}
	}
	return out
}

func isAll(set []string) bool {
	return len(set) == 1 && set[0] == allSpecial
}

// nonEmpty drops empty literals, which would match at every position.
func nonEmpty(set []string) []string {
	return slices.DeleteFunc(slices.Clone(set), func(s string) bool { return s == "" })
}

func containedLiterals(text string, literals []string) []string {
	var found []string
	for _, lit := range literals {
		if strings.Contains(text, lit) && !slices.Contains(found, lit) {
			found = append(found, lit)
		}
	}
	slices.Sort(found)
	return found
}

// earliestLiteral returns the position and value of the first literal occurring in
// s. At equal positions the longest literal wins, then the smallest one. Returns -1
// when none occurs.
func earliestLiteral(s string, literals []string) (int, string) {
	pos, best := -1, ""
	for _, lit := range literals {
		i := strings.Index(s, lit)
		if i < 0 {
			continue
		}
		switch {
		case pos < 0 || i < pos:
			pos, best = i, lit
		case i == pos && (len(lit) > len(best) || (len(lit) == len(best) && lit < best)):
			best = lit
		}
	}
	return pos, best
}

// invalidUTF8Index returns the offset of the first byte of s that does not start a
// valid UTF-8 sequence, or -1.
func invalidUTF8Index(s string) int {
	for i, r := range s {
		if r != utf8.RuneError {
			continue
		}
		if _, size := utf8.DecodeRuneInString(s[i:]); size == 1 {
			return i
		}
	}
	return -1
}
