package app

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/curriculum-backend/internal/data/db"
	"github.com/yungbote/curriculum-backend/internal/modules/curriculum/lessongen"
	"github.com/yungbote/curriculum-backend/internal/platform/envutil"
	"github.com/yungbote/curriculum-backend/internal/platform/openai"
	"github.com/yungbote/curriculum-backend/internal/realtime/bus"
	"github.com/yungbote/curriculum-backend/internal/temporalx"
)

const configPathEnv = "CURRICULUM_CONFIG_PATH"

type Config struct {
	HTTPAddr    string
	LogMode     string
	Environment string
	ServiceName string
	Version     string
	CORSOrigins []string

	MetricsEnabled bool
	// RunWorker starts the Temporal worker in this process when Temporal is configured.
	RunWorker bool

	DB       db.Config
	Bus      bus.Config
	Temporal temporalx.Config
	OpenAI   openai.Config

	Generation       lessongen.Config
	BuildConcurrency int
	LessonCacheSize  int
}

// fileConfig is the optional YAML overlay for generation tunables.
type fileConfig struct {
	Generation struct {
		Model          string `yaml:"model"`
		PlannerModel   string `yaml:"plannerModel"`
		RetrievalModel string `yaml:"retrievalModel"`
		ResearchModel  string `yaml:"researchModel"`

		PlannerTimeoutSeconds   int `yaml:"plannerTimeoutSeconds"`
		RetrievalTimeoutSeconds int `yaml:"retrievalTimeoutSeconds"`
		SynthesisTimeoutSeconds int `yaml:"synthesisTimeoutSeconds"`
		ResearchTimeoutSeconds  int `yaml:"researchTimeoutSeconds"`

		PlannerMaxOutputTokens   int `yaml:"plannerMaxOutputTokens"`
		RetrievalMaxOutputTokens int `yaml:"retrievalMaxOutputTokens"`
		SynthesisMaxOutputTokens int `yaml:"synthesisMaxOutputTokens"`
		ResearchMaxOutputTokens  int `yaml:"researchMaxOutputTokens"`

		PlannerTemperature   *float64 `yaml:"plannerTemperature"`
		SynthesisTemperature *float64 `yaml:"synthesisTemperature"`

		RetrievalMaxResults  int      `yaml:"retrievalMaxResults"`
		FileSearchRatio      *float64 `yaml:"fileSearchRatio"`
		WebSearchPromptRatio *float64 `yaml:"webSearchPromptRatio"`
		PreviewChars         int      `yaml:"previewChars"`

		CostInputPer1K  *float64 `yaml:"costInputPer1K"`
		CostOutputPer1K *float64 `yaml:"costOutputPer1K"`
	} `yaml:"generation"`
	Build struct {
		Concurrency     int `yaml:"concurrency"`
		LessonCacheSize int `yaml:"lessonCacheSize"`
	} `yaml:"build"`
}

// LoadConfig layers defaults, the YAML file named by CURRICULUM_CONFIG_PATH,
// then the environment. Env wins.
func LoadConfig() (Config, error) {
	var fc fileConfig
	if path := envutil.String(configPathEnv, ""); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read %s: %w", configPathEnv, err)
		}
		if err := yaml.Unmarshal(raw, &fc); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	cfg := Config{
		HTTPAddr:       ":" + envutil.String("PORT", "8080"),
		LogMode:        envutil.String("LOG_MODE", "development"),
		Environment:    envutil.String("APP_ENV", "development"),
		ServiceName:    envutil.String("OTEL_SERVICE_NAME", "curriculum-backend"),
		Version:        envutil.String("APP_VERSION", "dev"),
		CORSOrigins:    splitList(envutil.String("CORS_ALLOWED_ORIGINS", "")),
		MetricsEnabled: envutil.Bool("METRICS_ENABLED", false),
		RunWorker:      envutil.Bool("TEMPORAL_RUN_WORKER", true),

		DB:       db.LoadConfig(),
		Bus:      bus.LoadConfig(),
		Temporal: temporalx.LoadConfig(),
		OpenAI:   openai.LoadConfig(),
	}
	cfg.Generation = generationConfig(fc)
	cfg.BuildConcurrency = envutil.Int("LESSON_BUILD_CONCURRENCY", orInt(fc.Build.Concurrency, 3))
	cfg.LessonCacheSize = envutil.Int("LESSON_CACHE_SIZE", orInt(fc.Build.LessonCacheSize, 256))
	return cfg, nil
}

func generationConfig(fc fileConfig) lessongen.Config {
	g := fc.Generation
	c := lessongen.DefaultConfig()

	c.Model = envutil.String("LESSON_MODEL", g.Model)
	c.PlannerModel = envutil.String("PLANNER_MODEL", g.PlannerModel)
	c.RetrievalModel = envutil.String("RETRIEVAL_MODEL", g.RetrievalModel)
	c.ResearchModel = envutil.String("RESEARCH_MODEL", g.ResearchModel)

	c.PlannerTimeout = envutil.Seconds("PLANNER_TIMEOUT_SECONDS", orSeconds(g.PlannerTimeoutSeconds, c.PlannerTimeout))
	c.RetrievalTimeout = envutil.Seconds("RETRIEVAL_TIMEOUT_SECONDS", orSeconds(g.RetrievalTimeoutSeconds, c.RetrievalTimeout))
	c.SynthesisTimeout = envutil.Seconds("SYNTHESIS_TIMEOUT_SECONDS", orSeconds(g.SynthesisTimeoutSeconds, c.SynthesisTimeout))
	c.ResearchTimeout = envutil.Seconds("RESEARCH_TIMEOUT_SECONDS", orSeconds(g.ResearchTimeoutSeconds, c.ResearchTimeout))

	c.PlannerMaxOutputTokens = envutil.Int("PLANNER_MAX_OUTPUT_TOKENS", orInt(g.PlannerMaxOutputTokens, c.PlannerMaxOutputTokens))
	c.RetrievalMaxOutputTokens = envutil.Int("RETRIEVAL_MAX_OUTPUT_TOKENS", orInt(g.RetrievalMaxOutputTokens, c.RetrievalMaxOutputTokens))
	c.SynthesisMaxOutputTokens = envutil.Int("SYNTHESIS_MAX_OUTPUT_TOKENS", orInt(g.SynthesisMaxOutputTokens, c.SynthesisMaxOutputTokens))
	c.ResearchMaxOutputTokens = envutil.Int("RESEARCH_MAX_OUTPUT_TOKENS", orInt(g.ResearchMaxOutputTokens, c.ResearchMaxOutputTokens))

	c.PlannerTemperature = optFloat("PLANNER_TEMPERATURE", g.PlannerTemperature)
	c.SynthesisTemperature = optFloat("SYNTHESIS_TEMPERATURE", g.SynthesisTemperature)

	c.RetrievalMaxResults = envutil.Int("RETRIEVAL_MAX_RESULTS", orInt(g.RetrievalMaxResults, c.RetrievalMaxResults))
	c.FileSearchRatio = envutil.Float("RETRIEVAL_FILE_SEARCH_RATIO", orFloat(g.FileSearchRatio, c.FileSearchRatio))
	c.WebSearchPromptRatio = envutil.Float("WEB_SEARCH_PROMPT_RATIO", orFloat(g.WebSearchPromptRatio, c.WebSearchPromptRatio))
	c.PreviewChars = envutil.Int("PLANNER_PREVIEW_CHARS", orInt(g.PreviewChars, c.PreviewChars))

	c.CostRates.InputPer1K = envutil.Float("LLM_COST_INPUT_PER_1K", orFloat(g.CostInputPer1K, c.CostRates.InputPer1K))
	c.CostRates.OutputPer1K = envutil.Float("LLM_COST_OUTPUT_PER_1K", orFloat(g.CostOutputPer1K, c.CostRates.OutputPer1K))
	return c
}

func orInt(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}

func orSeconds(v int, def time.Duration) time.Duration {
	if v > 0 {
		return time.Duration(v) * time.Second
	}
	return def
}

func orFloat(v *float64, def float64) float64 {
	if v != nil {
		return *v
	}
	return def
}

// optFloat leaves the value unset unless the env or the file provides one.
func optFloat(name string, file *float64) *float64 {
	if strings.TrimSpace(os.Getenv(name)) == "" {
		return file
	}
	f := envutil.Float(name, 0)
	return &f
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
