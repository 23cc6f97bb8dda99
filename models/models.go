package models

import (
	"time"
)

// DetectionRequest is the JSON body accepted by the detect endpoint and the
// detectVoice socket event. Audio carries the encoded bytes as base64.
type DetectionRequest struct {
	Audio    string `json:"audio_base64"`
	Language string `json:"language"`
}

// URLDetectionRequest asks the server to download the audio itself.
type URLDetectionRequest struct {
	AudioURL string `json:"audio_url"`
	Language string `json:"language"`
}

// DetectionResponse is the wire form of a completed detection. Explanation
// is only present when the explanation layer is enabled.
type DetectionResponse struct {
	Status      string                 `json:"status"`
	Result      string                 `json:"result"`
	Confidence  float64                `json:"confidence"`
	Language    string                 `json:"language"`
	Timestamp   string                 `json:"timestamp"`
	Explanation string                 `json:"explanation,omitempty"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}

// CheckReport describes one battery check for diagnostic consumers. Check
// outcomes never appear on the wire, only the battery's shape does.
type CheckReport struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Weight      float64 `json:"weight"`
}

// BatteryReport describes the active battery for the batteryInfo socket
// event and the info endpoint.
type BatteryReport struct {
	Profile    string        `json:"profile"`
	CheckCount int           `json:"check_count"`
	Checks     []CheckReport `json:"checks,omitempty"`
}

// HealthResponse is returned by the health endpoint.
type HealthResponse struct {
	Status    string `json:"status"`
	Service   string `json:"service"`
	Version   string `json:"version"`
	FFmpeg    bool   `json:"ffmpeg_available"`
	Timestamp string `json:"timestamp"`
}

// APIInfoResponse describes the service for the info endpoint.
type APIInfoResponse struct {
	Name               string   `json:"name"`
	Version            string   `json:"version"`
	BatteryProfile     string   `json:"battery_profile"`
	SupportedLanguages []string `json:"supported_languages"`
	InputFormats       []string `json:"input_formats"`
	SupportedFormats   []string `json:"supported_formats"`
	MaxDurationSeconds float64  `json:"max_duration_seconds"`
	Endpoints          []string `json:"endpoints"`
}

// APIKey is a stored credential for the authenticated endpoints.
type APIKey struct {
	ID         int64      `json:"id"`
	Key        string     `json:"key"`
	Owner      string     `json:"owner"`
	CreatedAt  time.Time  `json:"created_at"`
	Revoked    bool       `json:"revoked"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
}
