package main

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"voice-detection/config"
	"voice-detection/db"
	"voice-detection/detect"
	"voice-detection/explain"
	"voice-detection/metrics"
	"voice-detection/models"
	"voice-detection/utils"
	"voice-detection/voice"
	"voice-detection/wav"

	socketio "github.com/googollee/go-socket.io"
	"github.com/googollee/go-socket.io/engineio"
	"github.com/googollee/go-socket.io/engineio/transport"
	"github.com/googollee/go-socket.io/engineio/transport/polling"
	"github.com/googollee/go-socket.io/engineio/transport/websocket"
	"github.com/mdobak/go-xerrors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type apiError struct {
	Message string `json:"message"`
}

const serviceName = "ai-voice-detection"

// supportedFormats lists the containers the decode path accepts, directly or
// through ffmpeg conversion.
var supportedFormats = []string{"wav", "mp3", "ogg", "flac", "m4a", "webm"}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	if w.Header().Get("Access-Control-Allow-Origin") == "" {
		w.Header().Set("Access-Control-Allow-Origin", "*")
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("failed to encode JSON response: %v", err)
	}
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, apiError{Message: message})
}

// detectionResponse maps a finished detection onto the wire contract.
func detectionResponse(result *detect.Result) models.DetectionResponse {
	return models.DetectionResponse{
		Status:      "success",
		Result:      string(result.Label),
		Confidence:  result.Confidence,
		Language:    string(result.Language),
		Timestamp:   detect.FormatTimestamp(result.Timestamp),
		Explanation: result.Explanation,
		Metadata:    result.Metadata,
	}
}

// writeDetectionError maps pipeline failures onto HTTP statuses: bad input
// is the caller's fault, everything else is ours.
func writeDetectionError(ctx context.Context, w http.ResponseWriter, logger *slog.Logger, err error) {
	if voice.IsClientFault(err) {
		logger.WarnContext(ctx, "rejected detection request", slog.Any("error", err))
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	err = xerrors.New(err)
	logger.ErrorContext(ctx, "detection failed", slog.Any("error", err))
	writeJSONError(w, http.StatusInternalServerError, "internal error during analysis")
}

// authorizeRequest checks the X-API-Key header, then the Authorization
// header with an optional Bearer prefix.
func authorizeRequest(store db.KeyStore, r *http.Request) (bool, error) {
	apiKey := strings.TrimSpace(r.Header.Get("X-API-Key"))
	if apiKey == "" {
		apiKey = strings.TrimSpace(strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer "))
	}
	if apiKey == "" {
		return false, nil
	}
	return store.ValidateKey(apiKey)
}

func newDetectHandler(service *detect.Service, store db.KeyStore) http.HandlerFunc {
	logger := utils.GetLogger()
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-API-Key")
		w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Credentials", "true")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		if r.Method != http.MethodPost {
			writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}

		authorized, err := authorizeRequest(store, r)
		if err != nil {
			err := xerrors.New(err)
			logger.ErrorContext(ctx, "api key lookup failed", slog.Any("error", err))
			writeJSONError(w, http.StatusInternalServerError, "unable to verify api key")
			return
		}
		if !authorized {
			writeJSONError(w, http.StatusUnauthorized, "Invalid or missing API key")
			return
		}

		var req models.DetectionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.ErrorContext(ctx, "failed to parse request body", slog.Any("error", err))
			writeJSONError(w, http.StatusBadRequest, "invalid request payload")
			return
		}

		if req.Audio == "" {
			writeJSONError(w, http.StatusBadRequest, "no audio data received")
			return
		}

		language, err := voice.ParseLanguage(req.Language)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, err.Error())
			return
		}

		log.Printf("[HTTP] Detection request: language=%s, payload=%d bytes\n", language, len(req.Audio))

		result, err := service.DetectBase64(ctx, req.Audio, language)
		if err != nil {
			writeDetectionError(ctx, w, logger, err)
			return
		}

		writeJSON(w, http.StatusOK, detectionResponse(result))
	}
}

func newDetectURLHandler(service *detect.Service, store db.KeyStore) http.HandlerFunc {
	logger := utils.GetLogger()
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-API-Key")
		w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Credentials", "true")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		if r.Method != http.MethodPost {
			writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}

		authorized, err := authorizeRequest(store, r)
		if err != nil {
			err := xerrors.New(err)
			logger.ErrorContext(ctx, "api key lookup failed", slog.Any("error", err))
			writeJSONError(w, http.StatusInternalServerError, "unable to verify api key")
			return
		}
		if !authorized {
			writeJSONError(w, http.StatusUnauthorized, "Invalid or missing API key")
			return
		}

		var req models.URLDetectionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.ErrorContext(ctx, "failed to parse request body", slog.Any("error", err))
			writeJSONError(w, http.StatusBadRequest, "invalid request payload")
			return
		}

		if req.AudioURL == "" {
			writeJSONError(w, http.StatusBadRequest, "no audio url received")
			return
		}

		language, err := voice.ParseLanguage(req.Language)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, err.Error())
			return
		}

		log.Printf("[HTTP] URL detection request: language=%s, url=%s\n", language, req.AudioURL)

		result, err := service.DetectFromURL(ctx, req.AudioURL, language)
		if err != nil {
			writeDetectionError(ctx, w, logger, err)
			return
		}

		writeJSON(w, http.StatusOK, detectionResponse(result))
	}
}

func newHealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		if r.Method != http.MethodGet {
			writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}

		writeJSON(w, http.StatusOK, models.HealthResponse{
			Status:    "healthy",
			Service:   serviceName,
			Version:   detect.ModelVersion,
			FFmpeg:    wav.CheckFFmpegAvailable() == nil,
			Timestamp: detect.FormatTimestamp(time.Now()),
		})
	}
}

func newInfoHandler(service *detect.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		if r.Method != http.MethodGet {
			writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}

		languages := voice.SupportedLanguages()
		languageTags := make([]string, len(languages))
		for i, lang := range languages {
			languageTags[i] = string(lang)
		}

		writeJSON(w, http.StatusOK, models.APIInfoResponse{
			Name:               "AI Voice Detection API",
			Version:            detect.ModelVersion,
			BatteryProfile:     string(service.Profile()),
			SupportedLanguages: languageTags,
			InputFormats:       []string{"base64", "url"},
			SupportedFormats:   supportedFormats,
			MaxDurationSeconds: service.MaxDuration().Seconds(),
			Endpoints: []string{
				"/api/v1/detect",
				"/api/v1/detect-url",
				"/api/v1/health",
				"/api/v1/info",
				"/metrics",
			},
		})
	}
}

// withMetrics wraps a handler to count requests by method, endpoint and
// status code.
func withMetrics(m *metrics.Metrics, endpoint string, handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ww := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		handler(ww, r)
		m.HTTPRequests.WithLabelValues(r.Method, endpoint, fmt.Sprintf("%d", ww.statusCode)).Inc()
	}
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func serve(cfg *config.Config) {
	var allowOriginFunc = func(r *http.Request) bool {
		return true
	}

	var store db.KeyStore
	var err error
	switch cfg.KeyStore.Type {
	case "mongo":
		store, err = db.NewMongoKeyStore(cfg.KeyStore.MongoURI, cfg.KeyStore.MongoDB)
	default:
		store, err = db.NewSQLiteKeyStore(cfg.KeyStore.SQLitePath)
	}
	if err != nil {
		log.Fatalf("failed to open key store: %v", err)
	}
	defer store.Close()

	if err := db.SeedFromEnv(store); err != nil {
		log.Printf("Failed to seed api keys: %v\n", err)
	}

	m := metrics.NewDefault()

	var explainer detect.Explainer
	if cfg.Explain.Enabled {
		ex, exErr := explain.NewExplainer(
			context.Background(),
			os.Getenv("GEMINI_API_KEY"),
			cfg.Explain.Model,
			time.Duration(cfg.Explain.TimeoutSeconds)*time.Second,
		)
		if exErr != nil {
			log.Printf("Explanation layer disabled: %v\n", exErr)
		} else {
			defer ex.Close()
			explainer = ex
			log.Printf("Explanation layer enabled (model %s)\n", cfg.Explain.Model)
		}
	}

	extractor := voice.DefaultExtractorConfig()
	extractor.MFCCCount = cfg.Detection.MFCCCount

	service, err := detect.NewService(detect.Options{
		Profile:   voice.BatteryProfile(cfg.Detection.BatteryProfile),
		Extractor: extractor,
		Decode: voice.DecodeOptions{
			MaxDuration:      time.Duration(cfg.Detection.MaxDurationSeconds * float64(time.Second)),
			TargetSampleRate: cfg.Detection.TargetSampleRate,
			TempDir:          cfg.Detection.TempDir,
		},
		MaxConcurrent: cfg.Detection.MaxConcurrent,
		Metrics:       m,
		Explainer:     explainer,
	})
	if err != nil {
		log.Fatalf("failed to build detection service: %v", err)
	}

	log.Printf("Battery profile: %s (%d checks), max concurrent detections: %d\n",
		service.Profile(), len(service.Battery()), cfg.Detection.MaxConcurrent)

	controller := newSocketController(service)

	server := socketio.NewServer(&engineio.Options{
		PingTimeout:  60 * time.Second,
		PingInterval: 25 * time.Second,
		Transports: []transport.Transport{
			&websocket.Transport{
				CheckOrigin: allowOriginFunc,
			},
			&polling.Transport{
				CheckOrigin: allowOriginFunc,
			},
		},
	})

	server.OnConnect("/", func(socket socketio.Conn) error {
		socket.SetContext("")
		connURL := socket.URL()
		log.Printf("CONNECTED: %s, transport: %s, remote addr: %s\n", socket.ID(), connURL.String(), socket.RemoteAddr())
		controller.emitBatteryInfo(socket)
		return nil
	})

	server.OnEvent("/", "requestBatteryInfo", func(socket socketio.Conn) {
		log.Printf("requestBatteryInfo received from %s\n", socket.ID())
		controller.handleRequestBatteryInfo(socket)
	})

	server.OnEvent("/", "detectVoice", func(socket socketio.Conn, msg string) {
		log.Printf("=== detectVoice event received from %s, data length: %d ===\n", socket.ID(), len(msg))
		// Run handler in goroutine to prevent blocking, with panic recovery
		go func() {
			defer func() {
				if r := recover(); r != nil {
					log.Printf("panic in handleDetectVoice for socket %s: %v\n", socket.ID(), r)
					socket.Emit("detectionError", map[string]string{"message": "internal server error during processing"})
				}
			}()
			controller.handleDetectVoice(socket, msg)
		}()
	})

	server.OnError("/", func(s socketio.Conn, e error) {
		log.Println("meet error:", e)
	})

	server.OnDisconnect("/", func(s socketio.Conn, reason string) {
		log.Printf("Socket disconnected - ID: %s, Reason: %s\n", s.ID(), reason)
	})

	go func() {
		if err := server.Serve(); err != nil {
			log.Fatalf("socketio listen error: %s\n", err)
		}
	}()
	defer server.Close()

	serveHTTPS := strings.ToLower(cfg.Server.Protocol) == "https"

	mux := http.NewServeMux()
	mux.Handle("/socket.io/", server)
	mux.HandleFunc("/api/v1/detect", withMetrics(m, "/api/v1/detect", newDetectHandler(service, store)))
	mux.HandleFunc("/api/v1/detect-url", withMetrics(m, "/api/v1/detect-url", newDetectURLHandler(service, store)))
	mux.HandleFunc("/api/v1/health", withMetrics(m, "/api/v1/health", newHealthHandler()))
	mux.HandleFunc("/api/v1/info", withMetrics(m, "/api/v1/info", newInfoHandler(service)))
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/", http.FileServer(http.Dir("static")))

	serveHTTP(server, serveHTTPS, cfg, mux)
}

func serveHTTP(socketServer *socketio.Server, serveHTTPS bool, cfg *config.Config, handler http.Handler) {
	if handler == nil {
		handler = socketServer
	}
	port := cfg.Server.Port
	if serveHTTPS {
		httpsAddr := ":" + port
		httpsServer := &http.Server{
			Addr: httpsAddr,
			TLSConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
			Handler: handler,
		}

		cert_key := cfg.Server.CertKey
		cert_file := cfg.Server.CertFile
		if cert_key == "" || cert_file == "" {
			log.Fatal("Missing cert")
		}

		log.Printf("Starting HTTPS server on %s\n", httpsAddr)
		if err := httpsServer.ListenAndServeTLS(cert_file, cert_key); err != nil {
			log.Fatalf("HTTPS server ListenAndServeTLS: %v", err)
		}
	}

	log.Printf("Starting HTTP server on port %v", port)
	if err := http.ListenAndServe(":"+port, handler); err != nil {
		log.Fatalf("HTTP server ListenAndServe: %v", err)
	}
}
