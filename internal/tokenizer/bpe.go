package tokenizer

import "slices"

// part is one boundary of a piece being merged.
//
// rank caches the encoder rank of the byte span that starts at this boundary and
// covers two parts. hasRank is false when that span is not in the encoder.
type part struct {
	start   int
	rank    int32
	hasRank bool
}

// BytePairEncode splits piece into tokens by repeatedly merging the adjacent pair
// with the lowest rank.
//
// A single byte maps straight to its token, or UnknownToken. Byte ranges left
// without an encoder entry after merging also become UnknownToken.
func BytePairEncode(piece []byte, enc Encoder) ([]int32, error) {
	switch len(piece) {
	case 0:
		return nil, ErrEmptyPiece
	case 1:
		return []int32{lookupOrUnknown(enc, piece)}, nil
	}

	parts := bytePairMerge(piece, enc)

	tokens := make([]int32, len(parts)-1)
	for i := range tokens {
		tokens[i] = lookupOrUnknown(enc, piece[parts[i].start:parts[i+1].start])
	}
	return tokens, nil
}

// bytePairMerge returns the surviving boundaries of piece, len(piece) >= 2.
func bytePairMerge(piece []byte, enc Encoder) []part {
	parts := make([]part, len(piece)+1)
	for i := range parts {
		parts[i].start = i
	}

	// spanRank looks up the bytes from boundary i to boundary i+skip+2.
	spanRank := func(i, skip int) (int32, bool) {
		if i+skip+2 >= len(parts) {
			return 0, false
		}
		return enc.Lookup(piece[parts[i].start:parts[i+skip+2].start])
	}

	for i := 0; i < len(parts)-2; i++ {
		parts[i].rank, parts[i].hasRank = spanRank(i, 0)
	}

	for len(parts) > 1 {
		minIdx := minRankIndex(parts)
		if minIdx < 0 {
			break
		}

		// Absorb the next part: the cached span now reaches one part further.
		parts[minIdx].rank, parts[minIdx].hasRank = spanRank(minIdx, 1)
		if minIdx > 0 {
			parts[minIdx-1].rank, parts[minIdx-1].hasRank = spanRank(minIdx-1, 1)
		}

		parts = slices.Delete(parts, minIdx+1, minIdx+2)
	}

	return parts
}

// minRankIndex scans left to right with strict less-than, so the leftmost of
// equal minimal ranks wins. Returns -1 when no part has a rank.
func minRankIndex(parts []part) int {
	minIdx := -1
	var minRank int32
	for i, p := range parts {
		if !p.hasRank {
			continue
		}
		if minIdx < 0 || p.rank < minRank {
			minIdx, minRank = i, p.rank
		}
	}
	return minIdx
}

func lookupOrUnknown(enc Encoder, b []byte) int32 {
	if rank, ok := enc.Lookup(b); ok {
		return rank
	}
	return UnknownToken
}
