package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/born-ml/tikbpe/internal/crosscheck"
	"github.com/born-ml/tikbpe/internal/envconfig"
	"github.com/born-ml/tikbpe/internal/logutil"
	"github.com/born-ml/tikbpe/internal/parallel"
	"github.com/born-ml/tikbpe/internal/tokenizer"
)

var errMismatch = errors.New("tokenizations differ")

// session bundles what a subcommand needs after flags are parsed.
type session struct {
	cache    *tokenizer.VocabularyCache
	svc      *tokenizer.Service
	encoding tokenizer.Encoding
}

func newSession(cmd *cobra.Command) (*session, error) {
	dir, _ := cmd.Flags().GetString("vocab-dir")
	name, _ := cmd.Flags().GetString("encoding")
	model, _ := cmd.Flags().GetString("model")

	var enc tokenizer.Encoding
	var err error
	if model != "" {
		enc, err = tokenizer.EncodingForModel(model)
	} else {
		enc, err = tokenizer.ParseEncoding(name)
	}
	if err != nil {
		return nil, err
	}

	cfg := parallel.DefaultConfig()
	cfg.NumWorkers = envconfig.NumParallel
	cfg.Enabled = cfg.NumWorkers > 1

	opts := []tokenizer.CacheOption{tokenizer.WithLogger(slog.Default())}
	if verify, _ := cmd.Flags().GetBool("verify-checksum"); verify {
		opts = append(opts, tokenizer.WithChecksumVerification())
	}

	cache := tokenizer.NewVocabularyCache(tokenizer.DirSource{Dir: dir}, opts...)
	return &session{
		cache:    cache,
		svc:      tokenizer.NewService(cache, cfg),
		encoding: enc,
	}, nil
}

// inputTexts returns the joined args, the whole of stdin, or one text per stdin
// line when lines is set.
func inputTexts(cmd *cobra.Command, args []string, lines bool) ([]string, error) {
	if len(args) > 0 {
		if lines {
			return args, nil
		}
		return []string{strings.Join(args, " ")}, nil
	}

	if !lines {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, err
		}
		return []string{string(data)}, nil
	}

	var texts []string
	scanner := bufio.NewScanner(cmd.InOrStdin())
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		texts = append(texts, scanner.Text())
	}
	return texts, scanner.Err()
}

func specialPolicy(cmd *cobra.Command) tokenizer.SpecialPolicy {
	allowed, _ := cmd.Flags().GetStringSlice("allow-special")
	disallowed, _ := cmd.Flags().GetStringSlice("disallow-special")
	return tokenizer.SpecialPolicy{Allowed: allowed, Disallowed: disallowed}
}

func formatTokens(tokens []int32) string {
	parts := make([]string, len(tokens))
	for i, t := range tokens {
		parts[i] = strconv.FormatInt(int64(t), 10)
	}
	return strings.Join(parts, " ")
}

func parseTokens(fields []string) ([]int32, error) {
	tokens := make([]int32, 0, len(fields))
	for _, f := range fields {
		for _, s := range strings.FieldsFunc(f, func(r rune) bool { return r == ',' || r == ' ' || r == '\n' || r == '\t' || r == '\r' }) {
			v, err := strconv.ParseInt(s, 10, 32)
			if err != nil {
				return nil, fmt.Errorf("invalid token %q: %w", s, err)
			}
			tokens = append(tokens, int32(v)) //nolint:gosec // G115: ParseInt bounded to 32 bits.
		}
	}
	return tokens, nil
}

func EncodeHandler(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	lines, _ := cmd.Flags().GetBool("lines")
	texts, err := inputTexts(cmd, args, lines)
	if err != nil {
		return err
	}

	batch, err := s.svc.EncodeBatch(cmd.Context(), texts, s.encoding, specialPolicy(cmd))
	if err != nil {
		return err
	}
	for _, tokens := range batch {
		fmt.Fprintln(cmd.OutOrStdout(), formatTokens(tokens))
	}
	return nil
}

func DecodeHandler(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}

	fields := args
	if len(fields) == 0 {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return err
		}
		fields = []string{string(data)}
	}
	tokens, err := parseTokens(fields)
	if err != nil {
		return err
	}

	text, err := s.svc.Decode(cmd.Context(), tokens, s.encoding)
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), text)
	return nil
}

func CountHandler(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	lines, _ := cmd.Flags().GetBool("lines")
	texts, err := inputTexts(cmd, args, lines)
	if err != nil {
		return err
	}

	counts, err := s.svc.CountBatch(cmd.Context(), texts, s.encoding)
	if err != nil {
		return err
	}
	for _, n := range counts {
		fmt.Fprintln(cmd.OutOrStdout(), n)
	}
	return nil
}

func VerifyHandler(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	lines, _ := cmd.Flags().GetBool("lines")
	texts, err := inputTexts(cmd, args, lines)
	if err != nil {
		return err
	}

	checker := crosscheck.New(s.svc, s.cache)
	mismatches := 0
	for i, text := range texts {
		report, err := checker.Check(cmd.Context(), text, s.encoding)
		if err != nil {
			return err
		}
		if !report.Match() {
			mismatches++
			slog.Warn("tokenization mismatch", "input", i, "tokens", formatTokens(report.Tokens), "reference", formatTokens(report.Reference))
		}
		fmt.Fprintln(cmd.OutOrStdout(), report)
	}

	if mismatches > 0 {
		return fmt.Errorf("%d of %d inputs: %w", mismatches, len(texts), errMismatch)
	}
	return nil
}

func EnvHandler(cmd *cobra.Command, _ []string) error {
	vars := envconfig.AsMap()
	for _, name := range slices.Sorted(maps.Keys(vars)) {
		v := vars[name]
		fmt.Fprintf(cmd.OutOrStdout(), "%s=%v\t# %s\n", v.Name, v.Value, v.Description)
	}
	return nil
}

func appendEnvDocs(cmd *cobra.Command, names ...string) {
	vars := envconfig.AsMap()
	var sb strings.Builder
	sb.WriteString("\nEnvironment Variables:\n")
	for _, name := range names {
		v := vars[name]
		fmt.Fprintf(&sb, "      %-20s %s\n", v.Name, v.Description)
	}
	cmd.SetUsageTemplate(cmd.UsageTemplate() + sb.String())
}

func NewCLI() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "tikbpe",
		Short: "tiktoken-compatible BPE tokenizer",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Disable usage printing on errors
			cmd.SilenceUsage = true
			slog.SetDefault(logutil.NewLogger(os.Stderr, logutil.Level(envconfig.Debug, envconfig.Trace)))
		},
	}

	rootCmd.PersistentFlags().StringP("encoding", "e", envconfig.Encoding, "Encoding name ("+encodingNames()+")")
	rootCmd.PersistentFlags().StringP("model", "m", "", "Pick the encoding of a model name instead of --encoding")
	rootCmd.PersistentFlags().String("vocab-dir", envconfig.VocabDir, "Directory holding <encoding>.tiktoken files")
	rootCmd.PersistentFlags().Bool("verify-checksum", false, "Reject vocabulary files whose SHA-256 differs from the published one")

	cobra.EnableCommandSorting = false

	encodeCmd := &cobra.Command{
		Use:   "encode [TEXT...]",
		Short: "Encode text to token IDs",
		Long:  "Encode text from the arguments or stdin and print space separated token IDs",
		RunE:  EncodeHandler,
	}
	encodeCmd.Flags().StringSlice("allow-special", nil, "Special tokens to emit as IDs (\"all\" for every one)")
	encodeCmd.Flags().StringSlice("disallow-special", []string{"all"}, "Special tokens that fail encoding (\"all\" for every one not allowed)")
	encodeCmd.Flags().Bool("lines", false, "Encode each line separately")

	decodeCmd := &cobra.Command{
		Use:   "decode [TOKEN...]",
		Short: "Decode token IDs to text",
		RunE:  DecodeHandler,
	}

	countCmd := &cobra.Command{
		Use:   "count [TEXT...]",
		Short: "Count tokens, treating special tokens as plain text",
		RunE:  CountHandler,
	}
	countCmd.Flags().Bool("lines", false, "Count each line separately")

	verifyCmd := &cobra.Command{
		Use:   "verify [TEXT...]",
		Short: "Compare tokenization with tiktoken-go",
		RunE:  VerifyHandler,
	}
	verifyCmd.Flags().Bool("lines", false, "Verify each line separately")

	envCmd := &cobra.Command{
		Use:   "env",
		Short: "Show environment configuration",
		Args:  cobra.NoArgs,
		RunE:  EnvHandler,
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Show version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "tikbpe %s\n", version)
		},
	}

	for _, cmd := range []*cobra.Command{encodeCmd, decodeCmd, countCmd, verifyCmd} {
		appendEnvDocs(cmd, "TIKBPE_VOCAB_DIR", "TIKBPE_ENCODING", "TIKBPE_NUM_PARALLEL", "TIKBPE_DEBUG")
	}

	rootCmd.AddCommand(
		encodeCmd,
		decodeCmd,
		countCmd,
		verifyCmd,
		envCmd,
		versionCmd,
	)

	return rootCmd
}

func encodingNames() string {
	names := make([]string, 0, 4)
	for _, enc := range tokenizer.Encodings() {
		names = append(names, string(enc))
	}
	return strings.Join(names, ", ")
}
