package main

import (
	"context"
	"encoding/json"
	"log"
	"log/slog"
	"time"

	"voice-detection/detect"
	"voice-detection/models"
	"voice-detection/utils"
	"voice-detection/voice"

	socketio "github.com/googollee/go-socket.io"
	"github.com/mdobak/go-xerrors"
)

type socketController struct {
	service *detect.Service
}

func newSocketController(service *detect.Service) *socketController {
	return &socketController{service: service}
}

func (c *socketController) batteryReport() models.BatteryReport {
	checks := c.service.Battery()
	reports := make([]models.CheckReport, len(checks))
	for i, check := range checks {
		reports[i] = models.CheckReport{
			Name:        check.Name,
			Description: check.Description,
			Weight:      check.Weight,
		}
	}
	return models.BatteryReport{
		Profile:    string(c.service.Profile()),
		CheckCount: len(checks),
		Checks:     reports,
	}
}

func (c *socketController) emitBatteryInfo(socket socketio.Conn) {
	socket.Emit("batteryInfo", c.batteryReport())
}

func (c *socketController) handleRequestBatteryInfo(socket socketio.Conn) {
	c.emitBatteryInfo(socket)
}

func (c *socketController) handleDetectVoice(socket socketio.Conn, payload string) {
	logger := utils.GetLogger()
	ctx := context.Background()
	requestID := utils.GenerateUniqueID()

	log.Printf("[handleDetectVoice] Starting for socket %s, data length: %d\n", socket.ID(), len(payload))
	logger.InfoContext(ctx, "handleDetectVoice called",
		slog.String("requestID", requestID),
		slog.String("socketID", socket.ID()),
		slog.Int("dataLength", len(payload)),
	)

	if payload == "" {
		logger.ErrorContext(ctx, "no data received in detectVoice event")
		socket.Emit("detectionError", map[string]string{"message": "no audio data received"})
		return
	}

	var req models.DetectionRequest
	if err := json.Unmarshal([]byte(payload), &req); err != nil {
		err := xerrors.New(err)
		logger.ErrorContext(ctx, "failed to parse detection payload", slog.Any("error", err))
		socket.Emit("detectionError", map[string]string{"message": "invalid audio payload"})
		return
	}

	if req.Audio == "" {
		logger.ErrorContext(ctx, "no audio data in detection payload")
		socket.Emit("detectionError", map[string]string{"message": "no audio data received"})
		return
	}

	language, err := voice.ParseLanguage(req.Language)
	if err != nil {
		socket.Emit("detectionError", map[string]string{"message": err.Error()})
		return
	}

	logger.InfoContext(ctx, "received detection request",
		slog.String("requestID", requestID),
		slog.String("socketID", socket.ID()),
		slog.String("language", string(language)),
		slog.Int("payloadBytes", len(req.Audio)),
	)

	started := time.Now()

	result, err := c.service.DetectBase64(ctx, req.Audio, language)
	if err != nil {
		if voice.IsClientFault(err) {
			logger.WarnContext(ctx, "rejected detection request", slog.Any("error", err))
			socket.Emit("detectionError", map[string]string{"message": err.Error()})
			return
		}
		err := xerrors.New(err)
		log.Printf("[handleDetectVoice] Detection error for socket %s: %v\n", socket.ID(), err)
		logger.ErrorContext(ctx, "detection failed", slog.Any("error", err))
		socket.Emit("detectionError", map[string]string{"message": "internal error during analysis"})
		return
	}

	log.Printf("[handleDetectVoice] Detection complete for socket %s: result=%s, confidence=%.4f\n",
		socket.ID(), result.Label, result.Confidence)
	logger.InfoContext(ctx, "detection complete",
		slog.String("requestID", requestID),
		slog.String("socketID", socket.ID()),
		slog.String("result", string(result.Label)),
		slog.Float64("confidence", result.Confidence),
		slog.String("language", string(result.Language)),
		slog.Float64("latency_ms", time.Since(started).Seconds()*1000),
	)

	socket.Emit("detectionResult", detectionResponse(result))
	log.Printf("[handleDetectVoice] Emitted detection result for socket %s\n", socket.ID())
}
