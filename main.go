package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"

	"voice-detection/config"
	"voice-detection/utils"
	"voice-detection/wav"

	"github.com/joho/godotenv"
	"github.com/mdobak/go-xerrors"
)

func main() {
	err := utils.CreateFolder("tmp")
	if err != nil {
		logger := utils.GetLogger()
		err := xerrors.New(err)
		ctx := context.Background()
		logger.ErrorContext(ctx, "Failed create tmp dir.", slog.Any("error", err))
	}

	if len(os.Args) < 2 {
		fmt.Println("Expected 'serve' subcommand")
		os.Exit(1)
	}
	_ = godotenv.Load()

	switch os.Args[1] {
	case "serve":
		// Check for FFmpeg availability before starting server
		if err := wav.CheckFFmpegAvailable(); err != nil {
			log.Printf("WARNING: %v\n", err)
			log.Println("The server will start but only plain WAV input will decode until FFmpeg is installed.")
		} else {
			log.Println("FFmpeg is available")
		}

		serveCmd := flag.NewFlagSet("serve", flag.ExitOnError)
		configPath := serveCmd.String("config", os.Getenv("CONFIG_PATH"), "Path to a YAML config file")
		protocol := serveCmd.String("proto", "", "Protocol to use (http or https), overrides config")
		port := serveCmd.String("p", "", "Port to use, overrides config")
		serveCmd.Parse(os.Args[2:])

		cfg, err := config.Load(*configPath)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
		if *protocol != "" {
			cfg.Server.Protocol = *protocol
		}
		if *port != "" {
			cfg.Server.Port = *port
		}
		if *protocol != "" || *port != "" {
			if err := cfg.Validate(); err != nil {
				log.Fatalf("invalid configuration: %v", err)
			}
		}

		utils.SetLogLevel(cfg.Logging.Level)

		serve(cfg)
	default:
		fmt.Println("Expected 'serve' subcommand")
		os.Exit(1)
	}
}
