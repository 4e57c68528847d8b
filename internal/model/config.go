package model

import "time"

// Config is the full runtime configuration.
// Hierarchy: CLI flags > TITLETRACE_* env vars > config file > defaults.
type Config struct {
	Catalog     CatalogConfig     `yaml:"catalog" json:"catalog"`
	Classify    ClassifyConfig    `yaml:"classify" json:"classify"`
	Chain       ChainConfig       `yaml:"chain" json:"chain"`
	Collateral  CollateralConfig  `yaml:"collateral" json:"collateral"`
	Cache       CacheConfig       `yaml:"cache" json:"cache"`
	Concurrency ConcurrencyConfig `yaml:"concurrency" json:"concurrency"`
	LLM         LLMConfig         `yaml:"llm" json:"llm"`
	Output      OutputConfig      `yaml:"output" json:"output"`
}

// CatalogConfig locates pattern catalog overrides
type CatalogConfig struct {
	// Path to a YAML catalog overlay. Empty means built-in defaults only.
	Path string `yaml:"path" json:"path"`
}

// ClassifyConfig holds classifier tuning knobs. The thresholds were
// hand-tuned against a small labeled sample and are carried as
// re-tunable defaults, not fixed truths.
type ClassifyConfig struct {
	MinWords        int     `yaml:"min_words" json:"min_words"`             // Below this, all scores short-circuit to zero
	ShortDocWords   int     `yaml:"short_doc_words" json:"short_doc_words"` // Below this, length heuristics apply
	ShortNoteBonus  float64 `yaml:"short_note_bonus" json:"short_note_bonus"`
	ShortDocPenalty float64 `yaml:"short_doc_penalty" json:"short_doc_penalty"`
	SectionBonus    float64 `yaml:"section_bonus" json:"section_bonus"` // Multiplier for well-structured documents
}

// ChainConfig holds chain extraction tuning and the holder registry
type ChainConfig struct {
	// SimilarityThreshold is the minimum normalized edit-distance
	// similarity between a link's from-party and the prior to-party
	// before the link is marked as a gap.
	SimilarityThreshold float64 `yaml:"similarity_threshold" json:"similarity_threshold"`

	// HolderNames are exact entity names (case/punctuation folded)
	// identifying the servicer's own affiliated holders.
	HolderNames []string `yaml:"holder_names" json:"holder_names"`

	// HolderPatterns are regular expressions matched against the
	// terminal party name.
	HolderPatterns []string `yaml:"holder_patterns" json:"holder_patterns"`
}

// CollateralConfig holds aggregation tuning knobs
type CollateralConfig struct {
	NameSimilarityWarn  float64 `yaml:"name_similarity_warn" json:"name_similarity_warn"`   // Below this: warning
	NameSimilarityError float64 `yaml:"name_similarity_error" json:"name_similarity_error"` // Below this: error
	AddressOverlapWarn  float64 `yaml:"address_overlap_warn" json:"address_overlap_warn"`
	AmountTolerance     float64 `yaml:"amount_tolerance" json:"amount_tolerance"` // Fractional, e.g. 0.05
}

// CacheConfig controls review result caching
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" json:"enabled"`
	Dir       string        `yaml:"dir" json:"dir"` // Disk cache directory; empty disables the disk layer
	MemoryTTL time.Duration `yaml:"memory_ttl" json:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" json:"disk_ttl"`
}

// ConcurrencyConfig controls worker fan-out
type ConcurrencyConfig struct {
	ReviewWorkers int `yaml:"review_workers" json:"review_workers"`
}

// LLMConfig configures the optional second-opinion provider
type LLMConfig struct {
	Provider          string  `yaml:"provider" json:"provider"` // openai, ollama, "" (disabled)
	Model             string  `yaml:"model" json:"model"`
	APIKey            string  `yaml:"-" json:"-"` // From env only, never persisted
	BaseURL           string  `yaml:"base_url" json:"base_url"`
	Timeout           int     `yaml:"timeout" json:"timeout"` // Seconds
	MaxTokens         int     `yaml:"max_tokens" json:"max_tokens"`
	MinConfidence     float64 `yaml:"min_confidence" json:"min_confidence"` // Consult only below this heuristic confidence
	RequestsPerSecond float64 `yaml:"requests_per_second" json:"requests_per_second"`

	// Proxy settings for the provider HTTP client
	HTTPProxy  string `yaml:"http_proxy" json:"http_proxy"`
	HTTPSProxy string `yaml:"https_proxy" json:"https_proxy"`
	NoProxy    string `yaml:"no_proxy" json:"no_proxy"`
}

// OutputConfig controls report rendering
type OutputConfig struct {
	Verbose       bool `yaml:"verbose" json:"verbose"`
	IncludeFooter bool `yaml:"include_footer" json:"include_footer"`
}

// DefaultConfig returns the defaults carried forward from the tuned
// production values
func DefaultConfig() *Config {
	return &Config{
		Classify: ClassifyConfig{
			MinWords:        20,
			ShortDocWords:   325,
			ShortNoteBonus:  1.3,
			ShortDocPenalty: 0.6,
			SectionBonus:    1.2,
		},
		Chain: ChainConfig{
			SimilarityThreshold: 0.8,
		},
		Collateral: CollateralConfig{
			NameSimilarityWarn:  0.8,
			NameSimilarityError: 0.6,
			AddressOverlapWarn:  0.5,
			AmountTolerance:     0.05,
		},
		Cache: CacheConfig{
			Enabled:   true,
			MemoryTTL: 30 * time.Minute,
			DiskTTL:   24 * time.Hour,
		},
		Concurrency: ConcurrencyConfig{
			ReviewWorkers: 8,
		},
		LLM: LLMConfig{
			Timeout:           30,
			MaxTokens:         64,
			MinConfidence:     0.5,
			RequestsPerSecond: 2,
		},
		Output: OutputConfig{
			IncludeFooter: true,
		},
	}
}
