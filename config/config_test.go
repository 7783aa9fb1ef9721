package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"texiv-detect/internal/domain/entity"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"TELEGRAM_TOKEN", "HTTP_ADDR", "DEBUG", "MODEL_PATH", "VIDEO_PATH",
		"ORT_LIBRARY_PATH", "INFERENCE_BACKEND", "INFERENCE_THREADS",
		"CONFIDENCE_THRESHOLD", "IOU_THRESHOLD", "CATEGORY_FILTER",
		"FRAME_DIR_FPS", "STOP_TIMEOUT", "NOTIFY_INTERVAL",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "127.0.0.1:8080", cfg.HTTPAddr)
	require.Equal(t, entity.BackendONNX, cfg.InferenceBackend)
	require.InDelta(t, 0.25, cfg.ConfidenceThreshold, 1e-6)
	require.InDelta(t, 0.45, cfg.IoUThreshold, 1e-6)
	require.Equal(t, []string{"person", "backpack", "umbrella", "handbag", "tie", "suitcase"}, cfg.Categories)
	require.Equal(t, time.Second, cfg.StopTimeout)
	require.Equal(t, 10*time.Second, cfg.NotifyInterval)
	require.False(t, cfg.Debug)

	proc := cfg.Processing()
	require.True(t, proc.CategoryFilter.Contains("handbag"))
	require.False(t, proc.CategoryFilter.Contains("car"))
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("INFERENCE_BACKEND", "OpenCV")
	t.Setenv("CONFIDENCE_THRESHOLD", "0.5")
	t.Setenv("IOU_THRESHOLD", "0.3")
	t.Setenv("CATEGORY_FILTER", " Person , car,,person ")
	t.Setenv("FRAME_DIR_FPS", "12.5")
	t.Setenv("STOP_TIMEOUT", "250ms")
	t.Setenv("NOTIFY_INTERVAL", "1m")
	t.Setenv("DEBUG", "true")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, ":9090", cfg.HTTPAddr)
	require.Equal(t, entity.BackendOpenCV, cfg.InferenceBackend)
	require.InDelta(t, 0.5, cfg.ConfidenceThreshold, 1e-6)
	require.InDelta(t, 0.3, cfg.IoUThreshold, 1e-6)
	require.Equal(t, []string{"person", "car"}, cfg.Categories)
	require.InDelta(t, 12.5, cfg.FrameDirFPS, 1e-9)
	require.Equal(t, 250*time.Millisecond, cfg.StopTimeout)
	require.Equal(t, time.Minute, cfg.NotifyInterval)
	require.True(t, cfg.Debug)
}

func TestLoad_DurationRequiresUnit(t *testing.T) {
	clearEnv(t)
	t.Setenv("STOP_TIMEOUT", "1")

	_, err := Load()
	require.Error(t, err)
	require.Contains(t, err.Error(), "STOP_TIMEOUT")
	require.Contains(t, err.Error(), "no unit")
}

func TestLoad_InvalidValues(t *testing.T) {
	cases := map[string]string{
		"CONFIDENCE_THRESHOLD": "high",
		"IOU_THRESHOLD":        "1.5",
		"STOP_TIMEOUT":         "soon",
		"INFERENCE_BACKEND":    "tensorrt",
		"DEBUG":                "maybe",
		"FRAME_DIR_FPS":        "-1",
		"NOTIFY_INTERVAL":      "0",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(key, value)

			_, err := Load()
			require.Error(t, err)
			require.Contains(t, err.Error(), key)
		})
	}
}
