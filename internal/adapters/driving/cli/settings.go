package cli

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

var settingsFormat string

var (
	scopeChunkSize     int
	scopeChunkOverlap  int
	scopeStrategy      string
	scopeMinSimilarity float64
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and configure chunking, retrieval, extraction, embedding and storage.

Use subcommands to change individual keys, configure the embedding provider
or set per-scope overrides.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Set a single setting",
	Long: `Set a single setting by its dotted key. The change is rejected if the
resulting settings contradict each other.

Secret keys prompt for the value when it is omitted.

Keys:
` + settingKeysHelp(),
	Args: cobra.RangeArgs(1, 2),
	RunE: runSettingsSet,
}

var settingsEmbeddingCmd = &cobra.Command{
	Use:   "embedding",
	Short: "Configure embedding provider",
	Long:  `Configure the embedding provider used for chunk and query vectors.`,
	RunE:  runSettingsEmbedding,
}

var settingsScopeCmd = &cobra.Command{
	Use:   "scope [scope]",
	Short: "Set per-scope overrides",
	Long: `Override chunking or the relevance floor for one scope.
Unset flags inherit the global settings.`,
	Args: cobra.ExactArgs(1),
	RunE: runSettingsScope,
}

func init() {
	settingsCmd.PersistentFlags().StringVarP(&settingsFormat, "format", "f", "text", "output format: text, json, yaml or toml")

	settingsScopeCmd.Flags().IntVar(&scopeChunkSize, "chunk-size", 0, "maximum chunk length in characters")
	settingsScopeCmd.Flags().IntVar(&scopeChunkOverlap, "chunk-overlap", 0, "carried context between chunks")
	settingsScopeCmd.Flags().StringVar(&scopeStrategy, "strategy", "", "chunk strategy")
	settingsScopeCmd.Flags().Float64Var(&scopeMinSimilarity, "min-similarity", 0, "relevance floor")

	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsEmbeddingCmd)
	settingsCmd.AddCommand(settingsScopeCmd)
	rootCmd.AddCommand(settingsCmd)
}

// settingsView is the serialised form of the settings. Secrets are masked.
type settingsView struct {
	Ingest struct {
		ChunkSize        int    `json:"chunk_size" yaml:"chunk_size" toml:"chunk_size"`
		ChunkOverlap     int    `json:"chunk_overlap" yaml:"chunk_overlap" toml:"chunk_overlap"`
		Strategy         string `json:"strategy" yaml:"strategy" toml:"strategy"`
		BatchSize        int    `json:"batch_size" yaml:"batch_size" toml:"batch_size"`
		IndexDiagnostics bool   `json:"index_diagnostics" yaml:"index_diagnostics" toml:"index_diagnostics"`
	} `json:"ingest" yaml:"ingest" toml:"ingest"`
	Retrieval struct {
		MinSimilarity    float64 `json:"min_similarity" yaml:"min_similarity" toml:"min_similarity"`
		MaxContextChunks int     `json:"max_context_chunks" yaml:"max_context_chunks" toml:"max_context_chunks"`
		DefaultLimit     int     `json:"default_limit" yaml:"default_limit" toml:"default_limit"`
	} `json:"retrieval" yaml:"retrieval" toml:"retrieval"`
	Extraction struct {
		Methods           []string `json:"methods" yaml:"methods" toml:"methods"`
		AttemptTimeout    string   `json:"attempt_timeout" yaml:"attempt_timeout" toml:"attempt_timeout"`
		HostedURL         string   `json:"hosted_url" yaml:"hosted_url" toml:"hosted_url"`
		HostedAPIKey      string   `json:"hosted_api_key,omitempty" yaml:"hosted_api_key,omitempty" toml:"hosted_api_key,omitempty"`
		LocalURL          string   `json:"local_url" yaml:"local_url" toml:"local_url"`
		PartitionStrategy string   `json:"partition_strategy" yaml:"partition_strategy" toml:"partition_strategy"`
		PdftotextPath     string   `json:"pdftotext_path" yaml:"pdftotext_path" toml:"pdftotext_path"`
	} `json:"extraction" yaml:"extraction" toml:"extraction"`
	Embedding struct {
		Provider        string `json:"provider" yaml:"provider" toml:"provider"`
		Model           string `json:"model" yaml:"model" toml:"model"`
		BaseURL         string `json:"base_url,omitempty" yaml:"base_url,omitempty" toml:"base_url,omitempty"`
		APIKey          string `json:"api_key,omitempty" yaml:"api_key,omitempty" toml:"api_key,omitempty"`
		FallbackToLocal bool   `json:"fallback_to_local" yaml:"fallback_to_local" toml:"fallback_to_local"`
	} `json:"embedding" yaml:"embedding" toml:"embedding"`
	Storage struct {
		DataDir      string `json:"data_dir,omitempty" yaml:"data_dir,omitempty" toml:"data_dir,omitempty"`
		Registry     string `json:"registry" yaml:"registry" toml:"registry"`
		Vector       string `json:"vector" yaml:"vector" toml:"vector"`
		RedisURL     string `json:"redis_url,omitempty" yaml:"redis_url,omitempty" toml:"redis_url,omitempty"`
		QdrantURL    string `json:"qdrant_url,omitempty" yaml:"qdrant_url,omitempty" toml:"qdrant_url,omitempty"`
		QdrantAPIKey string `json:"qdrant_api_key,omitempty" yaml:"qdrant_api_key,omitempty" toml:"qdrant_api_key,omitempty"`
		Collection   string `json:"collection" yaml:"collection" toml:"collection"`
	} `json:"storage" yaml:"storage" toml:"storage"`
	Scopes map[string]scopeView `json:"scopes,omitempty" yaml:"scopes,omitempty" toml:"scopes,omitempty"`
}

type scopeView struct {
	ChunkSize     int     `json:"chunk_size,omitempty" yaml:"chunk_size,omitempty" toml:"chunk_size,omitempty"`
	ChunkOverlap  int     `json:"chunk_overlap,omitempty" yaml:"chunk_overlap,omitempty" toml:"chunk_overlap,omitempty"`
	Strategy      string  `json:"strategy,omitempty" yaml:"strategy,omitempty" toml:"strategy,omitempty"`
	MinSimilarity float64 `json:"min_similarity,omitempty" yaml:"min_similarity,omitempty" toml:"min_similarity,omitempty"`
}

func newSettingsView(s *domain.AppSettings) settingsView {
	var v settingsView
	v.Ingest.ChunkSize = s.Ingest.ChunkSize
	v.Ingest.ChunkOverlap = s.Ingest.ChunkOverlap
	v.Ingest.Strategy = s.Ingest.Strategy.String()
	v.Ingest.BatchSize = s.Ingest.BatchSize
	v.Ingest.IndexDiagnostics = s.Ingest.IndexDiagnostics

	v.Retrieval.MinSimilarity = s.Retrieval.MinSimilarity
	v.Retrieval.MaxContextChunks = s.Retrieval.MaxContextChunks
	v.Retrieval.DefaultLimit = s.Retrieval.DefaultLimit

	for _, m := range s.Extraction.Methods {
		v.Extraction.Methods = append(v.Extraction.Methods, m.String())
	}
	v.Extraction.AttemptTimeout = s.Extraction.AttemptTimeout.String()
	v.Extraction.HostedURL = s.Extraction.HostedURL
	v.Extraction.HostedAPIKey = maskSecret(s.Extraction.HostedAPIKey)
	v.Extraction.LocalURL = s.Extraction.LocalURL
	v.Extraction.PartitionStrategy = s.Extraction.PartitionStrategy
	v.Extraction.PdftotextPath = s.Extraction.PdftotextPath

	v.Embedding.Provider = s.Embedding.Provider.String()
	v.Embedding.Model = s.Embedding.Model
	v.Embedding.BaseURL = s.Embedding.BaseURL
	v.Embedding.APIKey = maskSecret(s.Embedding.APIKey)
	v.Embedding.FallbackToLocal = s.Embedding.FallbackToLocal

	v.Storage.DataDir = s.Storage.DataDir
	v.Storage.Registry = string(s.Storage.Registry)
	v.Storage.Vector = string(s.Storage.Vector)
	v.Storage.RedisURL = s.Storage.RedisURL
	v.Storage.QdrantURL = s.Storage.QdrantURL
	v.Storage.QdrantAPIKey = maskSecret(s.Storage.QdrantAPIKey)
	v.Storage.Collection = s.Storage.Collection

	if len(s.ScopeOverrides) > 0 {
		v.Scopes = make(map[string]scopeView, len(s.ScopeOverrides))
		for name, o := range s.ScopeOverrides {
			v.Scopes[name] = scopeView{
				ChunkSize:     o.ChunkSize,
				ChunkOverlap:  o.ChunkOverlap,
				Strategy:      o.Strategy.String(),
				MinSimilarity: o.MinSimilarity,
			}
		}
	}
	return v
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	switch settingsFormat {
	case "json":
		data, err := json.MarshalIndent(newSettingsView(settings), "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal settings: %w", err)
		}
		cmd.Println(string(data))
		return nil
	case "yaml":
		data, err := yaml.Marshal(newSettingsView(settings))
		if err != nil {
			return fmt.Errorf("failed to marshal settings: %w", err)
		}
		cmd.Print(string(data))
		return nil
	case "toml":
		data, err := toml.Marshal(newSettingsView(settings))
		if err != nil {
			return fmt.Errorf("failed to marshal settings: %w", err)
		}
		cmd.Print(string(data))
		return nil
	case "text", "":
	default:
		return fmt.Errorf("unknown format %q", settingsFormat)
	}

	r := newRenderer(cmd)
	cmd.Println(r.Title("Current Settings"))
	cmd.Println("================")
	cmd.Println()

	cmd.Println("[Ingest]")
	cmd.Printf("  Chunk size: %d\n", settings.Ingest.ChunkSize)
	cmd.Printf("  Chunk overlap: %d\n", settings.Ingest.ChunkOverlap)
	cmd.Printf("  Strategy: %s\n", settings.Ingest.Strategy)
	cmd.Printf("  Batch size: %d\n", settings.Ingest.BatchSize)
	cmd.Printf("  Index diagnostics: %t\n", settings.Ingest.IndexDiagnostics)
	cmd.Println()

	cmd.Println("[Retrieval]")
	cmd.Printf("  Min similarity: %.2f\n", settings.Retrieval.MinSimilarity)
	cmd.Printf("  Max context chunks: %d\n", settings.Retrieval.MaxContextChunks)
	cmd.Printf("  Default limit: %d\n", settings.Retrieval.DefaultLimit)
	cmd.Println()

	cmd.Println("[Extraction]")
	methods := make([]string, 0, len(settings.Extraction.Methods))
	for _, m := range settings.Extraction.Methods {
		methods = append(methods, m.String())
	}
	cmd.Printf("  Methods: %s\n", strings.Join(methods, ", "))
	cmd.Printf("  Attempt timeout: %s\n", settings.Extraction.AttemptTimeout)
	if settings.Extraction.HostedAPIKey != "" {
		cmd.Printf("  Hosted API key: %s\n", maskAPIKey(settings.Extraction.HostedAPIKey))
	} else {
		cmd.Printf("  Hosted API key: (not set, hosted method skipped)\n")
	}
	cmd.Printf("  Local URL: %s\n", settings.Extraction.LocalURL)
	cmd.Println()

	cmd.Println("[Embedding]")
	cmd.Printf("  Provider: %s\n", settings.Embedding.Provider.Description())
	cmd.Printf("  Model: %s\n", settings.Embedding.Model)
	if settings.Embedding.BaseURL != "" {
		cmd.Printf("  Base URL: %s\n", settings.Embedding.BaseURL)
	}
	if settings.Embedding.Provider.RequiresAPIKey() {
		if settings.Embedding.APIKey != "" {
			cmd.Printf("  API Key: %s\n", maskAPIKey(settings.Embedding.APIKey))
		} else {
			cmd.Printf("  API Key: (not set)\n")
		}
	}
	cmd.Printf("  Fallback to local: %t\n", settings.Embedding.FallbackToLocal)
	cmd.Println()

	cmd.Println("[Storage]")
	cmd.Printf("  Registry: %s\n", settings.Storage.Registry)
	cmd.Printf("  Vector: %s\n", settings.Storage.Vector)
	cmd.Printf("  Collection: %s\n", settings.Storage.Collection)
	cmd.Println()

	if len(settings.ScopeOverrides) > 0 {
		cmd.Println("[Scopes]")
		names := make([]string, 0, len(settings.ScopeOverrides))
		for name := range settings.ScopeOverrides {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			o := settings.ScopeOverrides[name]
			cmd.Printf("  %s: size=%d overlap=%d strategy=%s min_similarity=%.2f\n",
				name, o.ChunkSize, o.ChunkOverlap, o.Strategy, o.MinSimilarity)
		}
		cmd.Println()
	}

	// Validation
	if err := settingsService.Validate(); err != nil {
		cmd.Printf("%s %v\n", r.Warning("Warning:"), err)
		cmd.Println("Run 'sercha-rag settings set' to fix configuration issues.")
	} else {
		cmd.Println("Configuration is valid.")
	}

	return nil
}

// settingSetter applies a string value to one field.
type settingSetter struct {
	secret bool
	apply  func(s *domain.AppSettings, value string) error
}

var settingSetters = map[string]settingSetter{
	"ingest.chunk_size":    {apply: intSetter(func(s *domain.AppSettings, v int) { s.Ingest.ChunkSize = v })},
	"ingest.chunk_overlap": {apply: intSetter(func(s *domain.AppSettings, v int) { s.Ingest.ChunkOverlap = v })},
	"ingest.batch_size":    {apply: intSetter(func(s *domain.AppSettings, v int) { s.Ingest.BatchSize = v })},
	"ingest.strategy": {apply: func(s *domain.AppSettings, v string) error {
		s.Ingest.Strategy = domain.ChunkStrategy(v)
		return nil
	}},
	"ingest.index_diagnostics": {apply: boolSetter(func(s *domain.AppSettings, v bool) { s.Ingest.IndexDiagnostics = v })},

	"retrieval.min_similarity":     {apply: floatSetter(func(s *domain.AppSettings, v float64) { s.Retrieval.MinSimilarity = v })},
	"retrieval.max_context_chunks": {apply: intSetter(func(s *domain.AppSettings, v int) { s.Retrieval.MaxContextChunks = v })},
	"retrieval.default_limit":      {apply: intSetter(func(s *domain.AppSettings, v int) { s.Retrieval.DefaultLimit = v })},

	"extraction.methods": {apply: func(s *domain.AppSettings, v string) error {
		var methods []domain.ExtractionMethod
		for _, m := range strings.Split(v, ",") {
			if m = strings.TrimSpace(m); m != "" {
				methods = append(methods, domain.ExtractionMethod(m))
			}
		}
		s.Extraction.Methods = methods
		return nil
	}},
	"extraction.attempt_timeout": {apply: func(s *domain.AppSettings, v string) error {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", v, domain.ErrInvalidInput)
		}
		s.Extraction.AttemptTimeout = d
		return nil
	}},
	"extraction.hosted_url":         {apply: stringSetter(func(s *domain.AppSettings, v string) { s.Extraction.HostedURL = v })},
	"extraction.hosted_api_key":     {secret: true, apply: stringSetter(func(s *domain.AppSettings, v string) { s.Extraction.HostedAPIKey = v })},
	"extraction.local_url":          {apply: stringSetter(func(s *domain.AppSettings, v string) { s.Extraction.LocalURL = v })},
	"extraction.partition_strategy": {apply: stringSetter(func(s *domain.AppSettings, v string) { s.Extraction.PartitionStrategy = v })},
	"extraction.pdftotext_path":     {apply: stringSetter(func(s *domain.AppSettings, v string) { s.Extraction.PdftotextPath = v })},

	"embedding.model":             {apply: stringSetter(func(s *domain.AppSettings, v string) { s.Embedding.Model = v })},
	"embedding.base_url":          {apply: stringSetter(func(s *domain.AppSettings, v string) { s.Embedding.BaseURL = v })},
	"embedding.api_key":           {secret: true, apply: stringSetter(func(s *domain.AppSettings, v string) { s.Embedding.APIKey = v })},
	"embedding.fallback_to_local": {apply: boolSetter(func(s *domain.AppSettings, v bool) { s.Embedding.FallbackToLocal = v })},

	"storage.data_dir":       {apply: stringSetter(func(s *domain.AppSettings, v string) { s.Storage.DataDir = v })},
	"storage.registry":       {apply: stringSetter(func(s *domain.AppSettings, v string) { s.Storage.Registry = domain.RegistryBackend(v) })},
	"storage.vector":         {apply: stringSetter(func(s *domain.AppSettings, v string) { s.Storage.Vector = domain.VectorBackend(v) })},
	"storage.redis_url":      {apply: stringSetter(func(s *domain.AppSettings, v string) { s.Storage.RedisURL = v })},
	"storage.qdrant_url":     {apply: stringSetter(func(s *domain.AppSettings, v string) { s.Storage.QdrantURL = v })},
	"storage.qdrant_api_key": {secret: true, apply: stringSetter(func(s *domain.AppSettings, v string) { s.Storage.QdrantAPIKey = v })},
	"storage.collection":     {apply: stringSetter(func(s *domain.AppSettings, v string) { s.Storage.Collection = v })},
}

func stringSetter(set func(*domain.AppSettings, string)) func(*domain.AppSettings, string) error {
	return func(s *domain.AppSettings, v string) error {
		set(s, v)
		return nil
	}
}

func intSetter(set func(*domain.AppSettings, int)) func(*domain.AppSettings, string) error {
	return func(s *domain.AppSettings, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid integer %q: %w", v, domain.ErrInvalidInput)
		}
		set(s, n)
		return nil
	}
}

func floatSetter(set func(*domain.AppSettings, float64)) func(*domain.AppSettings, string) error {
	return func(s *domain.AppSettings, v string) error {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid number %q: %w", v, domain.ErrInvalidInput)
		}
		set(s, f)
		return nil
	}
}

func boolSetter(set func(*domain.AppSettings, bool)) func(*domain.AppSettings, string) error {
	return func(s *domain.AppSettings, v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid boolean %q: %w", v, domain.ErrInvalidInput)
		}
		set(s, b)
		return nil
	}
}

func settingKeys() []string {
	keys := make([]string, 0, len(settingSetters))
	for k := range settingSetters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func settingKeysHelp() string {
	var b strings.Builder
	for _, k := range settingKeys() {
		b.WriteString("  " + k + "\n")
	}
	return b.String()
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	key := args[0]
	setter, ok := settingSetters[key]
	if !ok {
		return fmt.Errorf("unknown setting %q", key)
	}

	var value string
	switch {
	case len(args) == 2:
		value = args[1]
	case setter.secret:
		cmd.Printf("Enter %s: ", key)
		value = readPassword()
		cmd.Println()
	default:
		return fmt.Errorf("a value is required for %s", key)
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}
	previous := *settings

	if err := setter.apply(settings, value); err != nil {
		return err
	}
	if err := settingsService.Save(settings); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	if err := settingsService.Validate(); err != nil {
		if restoreErr := settingsService.Save(&previous); restoreErr != nil {
			return errors.Join(err, restoreErr)
		}
		return fmt.Errorf("rejected %s: %w", key, err)
	}

	if setter.secret {
		cmd.Printf("%s set to %s\n", key, maskAPIKey(value))
	} else {
		cmd.Printf("%s set to %s\n", key, value)
	}
	return nil
}

func runSettingsScope(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	scope := args[0]
	override := domain.ScopeOverride{
		ChunkSize:     scopeChunkSize,
		ChunkOverlap:  scopeChunkOverlap,
		Strategy:      domain.ChunkStrategy(scopeStrategy),
		MinSimilarity: scopeMinSimilarity,
	}
	if err := settingsService.SetScopeOverride(scope, override); err != nil {
		return fmt.Errorf("failed to set scope override: %w", err)
	}
	if err := settingsService.Validate(); err != nil {
		cmd.Printf("Warning: %v\n", err)
	}

	cmd.Printf("Overrides saved for scope %s.\n", scope)
	return nil
}

func runSettingsEmbedding(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	reader := bufio.NewReader(cmd.InOrStdin())
	return configureEmbeddingProvider(cmd, reader)
}

func configureEmbeddingProvider(cmd *cobra.Command, reader *bufio.Reader) error {
	cmd.Println("Select Embedding Provider")
	providers := domain.AllEmbeddingProviders()
	for i, p := range providers {
		cmd.Printf("  %d. %s\n", i+1, p.Description())
	}
	cmd.Print("\nEnter choice [1]: ")
	input := readLine(reader)
	idx := parseChoice(input, len(providers), 1)
	selectedProvider := providers[idx-1]

	// Get model
	defaults := domain.DefaultEmbeddingModels()
	defaultModel := defaults[selectedProvider]
	cmd.Printf("Enter model name [%s]: ", defaultModel)
	model := readLine(reader)
	if model == "" {
		model = defaultModel
	}

	// Get API key if needed
	var apiKey string
	if selectedProvider.RequiresAPIKey() {
		cmd.Print("Enter API key: ")
		apiKey = readSecret(reader)
		cmd.Println()
		if apiKey == "" {
			return errors.New("API key is required for this provider")
		}
	}

	if err := settingsService.SetEmbeddingProvider(selectedProvider, model, apiKey); err != nil {
		return fmt.Errorf("failed to configure embedding provider: %w", err)
	}

	// Validate the configuration by pinging the service
	cmd.Print("Validating configuration... ")
	if err := settingsService.ValidateEmbeddingConfig(); err != nil {
		cmd.Printf("FAILED: %v\n", err)
		return fmt.Errorf("embedding configuration validation failed: %w", err)
	}
	cmd.Println("OK")

	cmd.Printf("Embedding provider configured: %s (%s)\n", selectedProvider.Description(), model)
	cmd.Println("Existing documents keep their vectors; reprocess them to re-embed with this provider.")
	return nil
}

// Helper functions.

//nolint:errcheck // CLI helper, error ignored for UX
func readLine(reader *bufio.Reader) string {
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func parseChoice(input string, maxVal, defaultVal int) int {
	if input == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(input)
	if err != nil || val < 1 || val > maxVal {
		return defaultVal
	}
	return val
}

// readSecret reads without echo from a terminal and falls back to reader.
func readSecret(reader *bufio.Reader) string {
	if term.IsTerminal(int(os.Stdin.Fd())) {
		if password, err := term.ReadPassword(int(os.Stdin.Fd())); err == nil {
			return string(password)
		}
	}
	return readLine(reader)
}

func readPassword() string {
	return readSecret(bufio.NewReader(os.Stdin))
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

// maskSecret masks a set secret and leaves an empty one empty.
func maskSecret(key string) string {
	if key == "" {
		return ""
	}
	return maskAPIKey(key)
}
