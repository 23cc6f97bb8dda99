package main

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"voice-detection/models"

	"github.com/joho/godotenv"
)

// Exercise the HTTP detect endpoint the way a frontend would: encode local
// audio files and post them with an API key.
func main() {
	_ = godotenv.Load()

	dir := flag.String("dir", "calibration_data", "Directory containing audio samples to submit (ignored if -file is set)")
	file := flag.String("file", "", "Single audio file to submit (overrides -dir)")
	endpoint := flag.String("url", "http://localhost:5000/api/v1/detect", "Detection endpoint")
	apiKey := flag.String("key", os.Getenv("MOCK_CLIENT_API_KEY"), "API key for the X-API-Key header")
	language := flag.String("language", "english", "Language sent with each request")
	delay := flag.Duration("delay", time.Second, "Delay between submissions when using -dir")
	flag.Parse()

	if *apiKey == "" {
		log.Fatal("An API key is required (-key flag or MOCK_CLIENT_API_KEY)")
	}

	files, err := resolveFiles(*file, *dir)
	if err != nil {
		log.Fatalf("failed to resolve files: %v", err)
	}
	if len(files) == 0 {
		log.Fatalf("no audio files found (file=%s dir=%s)", *file, *dir)
	}

	fmt.Printf("Submitting %d sample(s) to %s\n\n", len(files), *endpoint)
	for idx, path := range files {
		if err := submitSample(path, *endpoint, *apiKey, *language); err != nil {
			log.Printf("submission failed for %s: %v\n", path, err)
		}

		if idx < len(files)-1 && *delay > 0 {
			time.Sleep(*delay)
		}
	}
}

func resolveFiles(single, dir string) ([]string, error) {
	if single != "" {
		return []string{single}, nil
	}

	var files []string
	err := filepath.WalkDir(dir, func(path string, entry os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".wav", ".mp3", ".ogg", ".flac", ".m4a", ".webm":
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

func submitSample(path, endpoint, apiKey, language string) error {
	fmt.Printf("→ %s\n", filepath.Base(path))

	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read audio: %w", err)
	}

	request := models.DetectionRequest{
		Audio:    base64.StdEncoding.EncodeToString(raw),
		Language: language,
	}

	payload, err := json.Marshal(request)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", apiKey)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("post detection request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 300 {
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, string(body))
	}

	var result models.DetectionResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return fmt.Errorf("decode detection response: %w", err)
	}

	fmt.Printf("   result=%s confidence=%.2f%% language=%s\n",
		result.Result, result.Confidence*100, result.Language)
	if result.Explanation != "" {
		fmt.Printf("   explanation: %s\n", result.Explanation)
	}
	return nil
}
