package entity

import "time"

// Status состояние приложения для слоя представления
type Status struct {
	Message         string       `json:"message"`
	State           SessionState `json:"state"`
	ModelLoaded     bool         `json:"model_loaded"`
	ModelPath       string       `json:"model_path,omitempty"`
	VideoPath       string       `json:"video_path,omitempty"`
	FramesProcessed int64        `json:"frames_processed"`
	Errors          int64        `json:"errors"`
	LastError       string       `json:"last_error,omitempty"`
	UpdatedAt       time.Time    `json:"updated_at"`
}
