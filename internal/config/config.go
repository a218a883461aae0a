// Package config defines pipeline configuration structures and loading.
//
// Conventions:
// - Defaults come from New(); file and env layers override them.
// - Components never read ambient process state; the loaded Config is passed
//   into constructors explicitly.
package config

// ModelRef names one provider/model pair in a generation slot.
type ModelRef struct {
	Provider string `koanf:"provider"`
	Model    string `koanf:"model"`
}

// Slot pairs a primary provider/model with an optional fallback.
type Slot struct {
	Primary  ModelRef  `koanf:"primary"`
	Fallback *ModelRef `koanf:"fallback"`
}

// Generation configures the provider fan-out stage.
type Generation struct {
	Slots []Slot `koanf:"slots"`

	// Concurrency bounds concurrent variant processing. Zero means
	// unbounded; negative means "match the number of variants" (default).
	Concurrency int `koanf:"concurrency"`
}

// Ranking holds score weights, sanity floors and the dedup threshold.
type Ranking struct {
	WBrightness   float64 `koanf:"w_brightness"`
	WEntropy      float64 `koanf:"w_entropy"`
	WAesthetic    float64 `koanf:"w_aesthetic"`
	WLocalQuality float64 `koanf:"w_local_quality"`

	EntropyMin    float64 `koanf:"entropy_min"`
	BrightnessMin float64 `koanf:"brightness_min"`
	BrightnessMax float64 `koanf:"brightness_max"`

	PhashDistanceMin int `koanf:"phash_distance_min"`
}

// LocalQuality configures the local quality gate.
type LocalQuality struct {
	ResizeLong    int     `koanf:"resize_long"`
	MinSide       int     `koanf:"min_side"`
	ARMin         float64 `koanf:"ar_min"`
	ARMax         float64 `koanf:"ar_max"`
	SharpnessMin  float64 `koanf:"sharpness_min"`
	SharpnessGood float64 `koanf:"sharpness_good"`
	ClipMax       float64 `koanf:"clip_max"`
}

// Aesthetic configures the external scoring provider stage.
type Aesthetic struct {
	ScoreMin float64 `koanf:"score_min"`
	ScoreMax float64 `koanf:"score_max"`

	// Concurrency bounds in-flight scoring calls. Zero means unbounded;
	// negative means "match the batch size" (default).
	Concurrency int `koanf:"concurrency"`
}

// Upscale configures the optional winner upscale.
type Upscale struct {
	Enabled bool `koanf:"enabled"`
	Factor  int  `koanf:"factor"`
}

// Variant describes one output size.
type Variant struct {
	Name   string `koanf:"name"`
	Width  int    `koanf:"w"`
	Height int    `koanf:"h"`
}

// Compression configures the upload byte budget.
type Compression struct {
	Enabled  bool `koanf:"enabled"`
	MaxBytes int  `koanf:"max_bytes"`
}

// Selection configures the human-override path.
type Selection struct {
	Enabled            bool `koanf:"enabled"`
	TimeoutSec         int  `koanf:"timeout_sec"`
	TeardownTimeoutSec int  `koanf:"teardown_timeout_sec"`
	BatchSize          int  `koanf:"batch_size"`
}

// History configures the append-only manifest log.
type History struct {
	Path        string `koanf:"path"`
	RecentLimit int    `koanf:"recent_limit"`
}

// Alerts configures the operator webhook.
type Alerts struct {
	WebhookURL string `koanf:"webhook_url"`
}

// Config is the full pipeline configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// MetricsAddr exposes Prometheus metrics during the run when non-empty.
	MetricsAddr string `koanf:"metrics_addr"`

	// OutputDir is the root of the per-run output layout.
	OutputDir string `koanf:"output_dir"`

	// Themes rotate over the day; RotationMinutes is the window size.
	Themes          []string `koanf:"themes"`
	RotationMinutes int      `koanf:"rotation_minutes"`

	// NumPromptVariants is how many prompt variants each run generates.
	NumPromptVariants int `koanf:"num_prompt_variants"`

	Generation   Generation   `koanf:"generation"`
	Ranking      Ranking      `koanf:"ranking"`
	LocalQuality LocalQuality `koanf:"local_quality"`
	Aesthetic    Aesthetic    `koanf:"aesthetic"`
	Upscale      Upscale      `koanf:"upscale"`
	Variants     []Variant    `koanf:"variants"`
	Compression  Compression  `koanf:"compression"`
	Selection    Selection    `koanf:"selection"`
	History      History      `koanf:"history"`
	Alerts       Alerts       `koanf:"alerts"`
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:          "info",
		OutputDir:         "outputs",
		Themes:            []string{"sci-fi", "tech", "mystic", "geometry", "nature", "neo-noir", "watercolor", "cosmic-minimal"},
		RotationMinutes:   180,
		NumPromptVariants: 3,
		Generation: Generation{
			Slots: []Slot{
				{Primary: ModelRef{Provider: "local", Model: "gradient-v1"}},
			},
			Concurrency: -1,
		},
		Ranking: Ranking{
			WBrightness:      0.25,
			WEntropy:         0.25,
			WAesthetic:       0.50,
			WLocalQuality:    0.20,
			EntropyMin:       3.5,
			BrightnessMin:    10,
			BrightnessMax:    245,
			PhashDistanceMin: 6,
		},
		LocalQuality: LocalQuality{
			ResizeLong:    768,
			MinSide:       512,
			ARMin:         0.5,
			ARMax:         2.1,
			SharpnessMin:  100,
			SharpnessGood: 1000,
			ClipMax:       0.10,
		},
		Aesthetic: Aesthetic{
			ScoreMin:    0,
			ScoreMax:    10,
			Concurrency: -1,
		},
		Upscale: Upscale{Enabled: false, Factor: 2},
		Variants: []Variant{
			{Name: "phone_9x16_2k", Width: 1440, Height: 2560},
			{Name: "desktop_16x9_4k", Width: 3840, Height: 2160},
		},
		Compression: Compression{Enabled: true, MaxBytes: 5 * 1024 * 1024},
		Selection: Selection{
			Enabled:            false,
			TimeoutSec:         300,
			TeardownTimeoutSec: 5,
			BatchSize:          9,
		},
		History: History{Path: "manifest/index.json", RecentLimit: 200},
	}
}
