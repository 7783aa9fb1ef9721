package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/samber/lo"
	"github.com/spf13/cast"

	"texiv-detect/internal/domain/entity"
)

type Config struct {
	TelegramToken string
	HTTPAddr      string
	Debug         bool

	ModelPath        string
	VideoPath        string
	ORTLibraryPath   string
	InferenceBackend string
	InferenceThreads int

	ConfidenceThreshold float32
	IoUThreshold        float32
	Categories          []string

	FrameDirFPS    float64
	StopTimeout    time.Duration
	NotifyInterval time.Duration
}

// Processing параметры цикла обработки
func (c *Config) Processing() entity.ProcessingConfig {
	return entity.ProcessingConfig{
		CategoryFilter:      entity.NewCategoryFilter(c.Categories...),
		ConfidenceThreshold: c.ConfidenceThreshold,
		IoUThreshold:        c.IoUThreshold,
	}
}

func Load() (*Config, error) {
	// Загружаем .env файл (игнорируем ошибку если файла нет)
	_ = godotenv.Load()

	cfg := &Config{
		TelegramToken:    os.Getenv("TELEGRAM_TOKEN"),
		HTTPAddr:         lo.CoalesceOrEmpty(os.Getenv("HTTP_ADDR"), "127.0.0.1:8080"),
		ModelPath:        os.Getenv("MODEL_PATH"),
		VideoPath:        os.Getenv("VIDEO_PATH"),
		ORTLibraryPath:   os.Getenv("ORT_LIBRARY_PATH"),
		InferenceBackend: strings.ToLower(lo.CoalesceOrEmpty(os.Getenv("INFERENCE_BACKEND"), entity.BackendONNX)),
		Categories:       splitList(lo.CoalesceOrEmpty(os.Getenv("CATEGORY_FILTER"), strings.Join(entity.DefaultCategories, ","))),
	}

	var err error
	if cfg.Debug, err = envBool("DEBUG", false); err != nil {
		return nil, err
	}
	if cfg.InferenceThreads, err = envInt("INFERENCE_THREADS", 0); err != nil {
		return nil, err
	}

	conf, err := envFloat("CONFIDENCE_THRESHOLD", float64(entity.DefaultConfidenceThreshold))
	if err != nil {
		return nil, err
	}
	iou, err := envFloat("IOU_THRESHOLD", float64(entity.DefaultIoUThreshold))
	if err != nil {
		return nil, err
	}
	cfg.ConfidenceThreshold = float32(conf)
	cfg.IoUThreshold = float32(iou)

	if cfg.FrameDirFPS, err = envFloat("FRAME_DIR_FPS", 0); err != nil {
		return nil, err
	}
	if cfg.StopTimeout, err = envDuration("STOP_TIMEOUT", time.Second); err != nil {
		return nil, err
	}
	if cfg.NotifyInterval, err = envDuration("NOTIFY_INTERVAL", 10*time.Second); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if !lo.Contains([]string{entity.BackendONNX, entity.BackendOpenCV}, c.InferenceBackend) {
		return fmt.Errorf("INFERENCE_BACKEND: unknown backend %q", c.InferenceBackend)
	}
	if c.ConfidenceThreshold < 0 || c.ConfidenceThreshold > 1 {
		return fmt.Errorf("CONFIDENCE_THRESHOLD: %v is out of [0, 1]", c.ConfidenceThreshold)
	}
	if c.IoUThreshold < 0 || c.IoUThreshold > 1 {
		return fmt.Errorf("IOU_THRESHOLD: %v is out of [0, 1]", c.IoUThreshold)
	}
	if c.FrameDirFPS < 0 {
		return fmt.Errorf("FRAME_DIR_FPS: must not be negative")
	}
	if c.StopTimeout <= 0 {
		return fmt.Errorf("STOP_TIMEOUT: must be positive")
	}
	if c.NotifyInterval <= 0 {
		return fmt.Errorf("NOTIFY_INTERVAL: must be positive")
	}
	if c.InferenceThreads < 0 {
		return fmt.Errorf("INFERENCE_THREADS: must not be negative")
	}
	return nil
}

func splitList(raw string) []string {
	items := lo.Map(strings.Split(raw, ","), func(item string, _ int) string {
		return strings.ToLower(strings.TrimSpace(item))
	})
	return lo.Uniq(lo.Compact(items))
}

func envFloat(key string, def float64) (float64, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	v, err := cast.ToFloat64E(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return v, nil
}

func envInt(key string, def int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	v, err := cast.ToIntE(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return v, nil
}

func envBool(key string, def bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	v, err := cast.ToBoolE(raw)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return v, nil
}

// envDuration читает длительность с единицей измерения ("500ms", "1s").
// Число без единицы отклоняется.
func envDuration(key string, def time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	if _, err := cast.ToFloat64E(raw); err == nil {
		return 0, fmt.Errorf("%s: %q has no unit, use e.g. %q", key, raw, raw+"s")
	}
	v, err := cast.ToDurationE(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return v, nil
}
