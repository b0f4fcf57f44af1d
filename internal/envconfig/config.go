package envconfig

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
)

var (
	// Set via TIKBPE_DEBUG in the environment
	Debug bool
	// Set via TIKBPE_DEBUG=2 (or higher) in the environment
	Trace bool
	// Set via TIKBPE_ENCODING in the environment
	Encoding string
	// Set via TIKBPE_NUM_PARALLEL in the environment
	NumParallel int
	// Set via TIKBPE_VOCAB_DIR in the environment
	VocabDir string
)

const defaultEncoding = "cl100k_base"

type EnvVar struct {
	Name        string
	Value       any
	Description string
}

func AsMap() map[string]EnvVar {
	return map[string]EnvVar{
		"TIKBPE_DEBUG":        {"TIKBPE_DEBUG", Debug, "Show additional debug information (e.g. TIKBPE_DEBUG=1, TIKBPE_DEBUG=2 for trace)"},
		"TIKBPE_ENCODING":     {"TIKBPE_ENCODING", Encoding, "Encoding used when --encoding is not given (default \"cl100k_base\")"},
		"TIKBPE_NUM_PARALLEL": {"TIKBPE_NUM_PARALLEL", NumParallel, "Number of workers for batch requests (default number of CPUs)"},
		"TIKBPE_VOCAB_DIR":    {"TIKBPE_VOCAB_DIR", VocabDir, "Directory holding <encoding>.tiktoken files (default \"~/.cache/tikbpe\")"},
	}
}

func Values() map[string]string {
	vals := make(map[string]string)
	for k, v := range AsMap() {
		vals[k] = fmt.Sprintf("%v", v.Value)
	}
	return vals
}

// Clean quotes and spaces from the value
func clean(key string) string {
	return strings.Trim(os.Getenv(key), "\"' ")
}

func init() {
	LoadConfig()
}

func LoadConfig() {
	Debug, Trace = false, false
	if debug := clean("TIKBPE_DEBUG"); debug != "" {
		d, err := strconv.ParseBool(debug)
		if err == nil {
			Debug = d
		} else {
			Debug = true
		}
		if n, err := strconv.Atoi(debug); err == nil && n >= 2 {
			Trace = true
		}
	}

	Encoding = clean("TIKBPE_ENCODING")
	if Encoding == "" {
		Encoding = defaultEncoding
	}

	NumParallel = runtime.NumCPU()
	if onp := clean("TIKBPE_NUM_PARALLEL"); onp != "" {
		val, err := strconv.Atoi(onp)
		if err != nil || val <= 0 {
			slog.Error("invalid setting must be greater than zero", "TIKBPE_NUM_PARALLEL", onp, "error", err)
		} else {
			NumParallel = val
		}
	}

	VocabDir = clean("TIKBPE_VOCAB_DIR")
	if VocabDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			slog.Error("failed to lookup home directory", "error", err)
			home = "."
		}
		VocabDir = filepath.Join(home, ".cache", "tikbpe")
	}
}
