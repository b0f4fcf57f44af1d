// Package tokenizer implements tiktoken-compatible byte-level BPE tokenization.
//
// The package is built from five parts:
//   - Vocabulary loading: tiktoken files ("<base64> <rank>" lines) into an Encoder
//   - Encoding profiles: cl100k_base, o200k_base, p50k_base, r50k_base, each with
//     a segmentation regex and a special token table
//   - Segmenter: splits text into pre-tokens with the profile regex
//   - BytePairEncode: lowest-rank-first merging of one pre-token
//   - TikToken and Service: special token policy, encode, decode and count
//
// Token counts match the reference tokenizer exactly, so the regexes and the merge
// order must not change.
//
// Example usage:
//
//	cache := NewVocabularyCache(DirSource{Dir: "/var/lib/tiktoken"})
//	svc := NewService(cache, parallel.DefaultConfig())
//
//	// Encode text
//	tokens, err := svc.Encode(ctx, "Hello, world!", CL100kBase, DefaultSpecialPolicy())
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Decode tokens
//	text, err := svc.Decode(ctx, tokens, CL100kBase)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Count tokens
//	n, err := svc.Count(ctx, text, CL100kBase)
package tokenizer
