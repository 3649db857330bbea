package viewconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	path := "../../config/views/default.yaml"

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Skip("config file not found")
	}

	cfg, yamlData, err := Load(path)
	require.NoError(t, err)
	assert.NotEmpty(t, yamlData)

	// shipped file must match built-in defaults
	def := Default()
	assert.Equal(t, def, *cfg)

	hash, err := Hash(cfg)
	require.NoError(t, err)
	assert.Len(t, hash, 64)

	defHash, err := Hash(&def)
	require.NoError(t, err)
	assert.Equal(t, defHash, hash)
}

func TestDefault_Valid(t *testing.T) {
	cfg := Default()
	require.NoError(t, Validate(&cfg))

	assert.Equal(t, 0.33, cfg.Aggregation.Fallback.Positive)
	assert.Equal(t, 0.33, cfg.Aggregation.Fallback.Neutral)
	assert.Equal(t, 0.33, cfg.Aggregation.Fallback.Negative)
	assert.Equal(t, 0.5, cfg.Weighting.DefaultSourceWeight)
	assert.Equal(t, 1.0, cfg.Weighting.Credibility["bloomberg.com"])
	assert.Empty(t, Warn(&cfg))
}

func TestParse_UnknownField(t *testing.T) {
	_, err := Parse([]byte("views:\n  max_retrun: 0.05\n"))
	require.Error(t, err)
}

func TestParse_PartialOverride(t *testing.T) {
	data := []byte(`
weighting:
  credibility:
    Bloomberg.COM: 0.9
    " Example.org ": 0.6
views:
  max_return: 0.05
`)
	cfg, err := Parse(data)
	require.NoError(t, err)

	// credibility table is replaced, keys normalized
	assert.Equal(t, map[string]float64{"bloomberg.com": 0.9, "example.org": 0.6}, cfg.Weighting.Credibility)

	// untouched fields keep defaults
	assert.Equal(t, 0.05, cfg.Views.MaxReturn)
	assert.Equal(t, -0.02, cfg.Views.MinReturn)
	assert.Equal(t, 30.0, cfg.Weighting.Recency.WindowDays)
}

func TestParse_NoCredibilityKeepsDefaults(t *testing.T) {
	cfg, err := Parse([]byte("views:\n  max_return: 0.04\n"))
	require.NoError(t, err)
	assert.Equal(t, DefaultCredibility(), cfg.Weighting.Credibility)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		field  string
	}{
		{"credibility zero", func(c *Config) { c.Weighting.Credibility["foo.com"] = 0 }, "weighting.credibility[foo.com]"},
		{"credibility above one", func(c *Config) { c.Weighting.Credibility["foo.com"] = 1.2 }, "weighting.credibility[foo.com]"},
		{"default weight", func(c *Config) { c.Weighting.DefaultSourceWeight = 0 }, "weighting.default_source_weight"},
		{"window", func(c *Config) { c.Weighting.Recency.WindowDays = 0 }, "weighting.recency.window_days"},
		{"floor", func(c *Config) { c.Weighting.Recency.Floor = 1.5 }, "weighting.recency.floor"},
		{"fallback zero", func(c *Config) { c.Aggregation.Fallback.Positive, c.Aggregation.Fallback.Neutral, c.Aggregation.Fallback.Negative = 0, 0, 0 }, "aggregation.fallback"},
		{"tolerance", func(c *Config) { c.Aggregation.SumTolerance = 0 }, "aggregation.sum_tolerance"},
		{"thresholds overlap", func(c *Config) { c.Views.MildPositiveThreshold = 0.6 }, "views.strong_positive_threshold"},
		{"negative ordering", func(c *Config) { c.Views.StrongNegativeThreshold = -0.1 }, "views.strong_negative_threshold"},
		{"mild negative above zero", func(c *Config) { c.Views.MildNegativeThreshold = 0.1 }, "views.mild_negative_threshold"},
		{"returns ordering", func(c *Config) { c.Views.MaxReturn = 0.01 }, "views.max_return"},
		{"min return", func(c *Config) { c.Views.MinReturn = 0 }, "views.min_return"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)

			err := Validate(&cfg)
			require.Error(t, err)

			var ve ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)
		})
	}
}

func TestHash_ChangesWithConfig(t *testing.T) {
	a := Default()
	b := Default()
	b.Weighting.Credibility["newsource.com"] = 0.7

	ha, err := Hash(&a)
	require.NoError(t, err)
	hb, err := Hash(&b)
	require.NoError(t, err)

	assert.NotEqual(t, ha, hb)
}

func TestLoadOrDefault(t *testing.T) {
	cfg, err := LoadOrDefault("")
	require.NoError(t, err)
	assert.Equal(t, Default(), *cfg)

	dir := t.TempDir()
	path := filepath.Join(dir, "views.yaml")
	require.NoError(t, os.WriteFile(path, []byte("views:\n  min_return: -0.05\n"), 0o644))

	cfg, err = LoadOrDefault(path)
	require.NoError(t, err)
	assert.Equal(t, -0.05, cfg.Views.MinReturn)

	_, err = LoadOrDefault(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestWarn_BiasedFallback(t *testing.T) {
	cfg := Default()
	cfg.Aggregation.Fallback.Positive = 0.5

	warns := Warn(&cfg)
	codes := make([]string, 0, len(warns))
	for _, w := range warns {
		codes = append(codes, w.Code)
	}
	assert.Contains(t, codes, "FALLBACK_BIASED")
}

func TestParse_EmptyDocumentUsesDefaults(t *testing.T) {
	for name, doc := range map[string]string{
		"empty":         "",
		"comments only": "# views config\n# nothing set yet\n",
	} {
		t.Run(name, func(t *testing.T) {
			cfg, err := Parse([]byte(doc))
			require.NoError(t, err)
			assert.Equal(t, Default(), *cfg)
		})
	}
}

func TestWarn_LowCredibility(t *testing.T) {
	assert.Empty(t, lowCredibilityWarnings(Default()), "defaults sit at or above the floor")

	cfg := Default()
	cfg.Weighting.Credibility["tiny.example"] = 0.4
	cfg.Weighting.DefaultSourceWeight = 0.3

	warns := lowCredibilityWarnings(cfg)
	require.Len(t, warns, 2)
	assert.Contains(t, warns[0].Message, "tiny.example")
	assert.Contains(t, warns[1].Message, "default_source_weight")
}

func lowCredibilityWarnings(cfg Config) []Warning {
	var out []Warning
	for _, w := range Warn(&cfg) {
		if w.Code == "LOW_CREDIBILITY" {
			out = append(out, w)
		}
	}
	return out
}
