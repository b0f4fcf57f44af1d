package tokenizer

import (
	"encoding/base64"
	"fmt"
	"sort"
	"strings"
)

// byteVocab maps every single byte b to rank b+1, leaving 0 for UnknownToken.
func byteVocab() Encoder {
	enc := make(Encoder, 256)
	for b := 0; b < 256; b++ {
		enc[string([]byte{byte(b)})] = int32(b) + 1
	}
	return enc
}

// withMerges returns a copy of base extended by the given entries.
func withMerges(base Encoder, merges map[string]int32) Encoder {
	enc := make(Encoder, len(base)+len(merges))
	for k, v := range base {
		enc[k] = v
	}
	for k, v := range merges {
		enc[k] = v
	}
	return enc
}

// vocabFile renders enc in tiktoken format, ordered by rank.
func vocabFile(enc Encoder) string {
	keys := make([]string, 0, len(enc))
	for k := range enc {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return enc[keys[i]] < enc[keys[j]] })

	var sb strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&sb, "%s %d\n", base64.StdEncoding.EncodeToString([]byte(k)), enc[k])
	}
	return sb.String()
}

// testVocab is byteVocab plus a few English merges.
func testVocab() Encoder {
	return withMerges(byteVocab(), map[string]int32{
		"he":     300,
		"ll":     301,
		"hell":   302,
		"hello":  303,
		" w":     304,
		"or":     305,
		" wor":   306,
		"ld":     307,
		" world": 308,
		"in":     309,
		"ing":    310,
	})
}
