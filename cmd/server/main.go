// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Command server is the HTTP entry point for the pronunciation feedback
// backend. It exposes the video upload endpoint, a text-to-speech synthesis
// endpoint, and a health probe, wiring the request handlers to the service
// graph built in setup.go.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/jaycherian/go-pronun-backend/internal/core/model"
	"github.com/jaycherian/go-pronun-backend/internal/core/services"
	"github.com/jaycherian/go-pronun-backend/internal/speech"
	"github.com/jaycherian/go-pronun-backend/internal/telemetry"
)

const shutdownGracePeriod = 5 * time.Second

func main() {
	telemetry.SetupLogging()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := GetConfig()

	otelShutdown, err := telemetry.SetupOpenTelemetry(ctx, cfg.Application.Name)
	if err != nil {
		slog.Error("failed to set up telemetry", "error", err)
		return
	}
	defer func() {
		if err := otelShutdown(context.Background()); err != nil {
			slog.Warn("telemetry shutdown reported errors", "error", err)
		}
	}()

	state, err := InitState(cfg)
	if err != nil {
		slog.Error("failed to initialize service state", "error", err)
		return
	}

	router := gin.Default()
	router.Use(otelgin.Middleware(cfg.Application.Name))
	router.Use(cors.Default())

	router.GET("/healthz", handleHealth)
	router.POST("/upload-video-with-script/", handleUpload(state))
	router.POST("/api/v1/speech", handleSpeech(state))

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Application.Port),
		Handler: router,
	}

	go func() {
		slog.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server terminated unexpectedly", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("shutdown signal received, draining connections")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGracePeriod)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("graceful shutdown failed", "error", err)
	}
}

// handleHealth reports process liveness for load balancers and probes.
func handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// handleUpload accepts a multipart form with a required "video" file and an
// optional "script" part. The script part may be a file upload; a non-empty
// inline string is rejected because scripts must arrive as files, while an
// empty string is treated the same as an absent part.
func handleUpload(state *StateManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		videoHeader, err := c.FormFile("video")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing video file"})
			return
		}
		videoFile, err := videoHeader.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "could not read video file"})
			return
		}
		defer func() { _ = videoFile.Close() }()

		in := services.UploadInput{
			VideoFilename: videoHeader.Filename,
			Video:         videoFile,
		}

		if scriptHeader, err := c.FormFile("script"); err == nil {
			scriptFile, err := scriptHeader.Open()
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "could not read script file"})
				return
			}
			defer func() { _ = scriptFile.Close() }()
			in.ScriptFilename = scriptHeader.Filename
			in.Script = scriptFile
		} else if inline := c.PostForm("script"); strings.TrimSpace(inline) != "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "script must be uploaded as a file, not inline text"})
			return
		}

		receipt, err := state.Upload.Process(c.Request.Context(), in)
		if err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, services.ErrBadInput) {
				status = http.StatusBadRequest
			}
			slog.ErrorContext(c.Request.Context(), "upload failed", "error", err)
			c.JSON(status, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, receipt)
	}
}

// handleSpeech synthesizes speech for the posted text and returns the path
// of the generated MP3. Synthesis failures carry their error category and
// retry guidance so callers can decide whether to try again.
func handleSpeech(state *StateManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req model.SynthesisRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		if strings.TrimSpace(req.Text) == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "text must not be empty"})
			return
		}

		result, err := state.Synthesizer.Synthesize(c.Request.Context(), &req)
		if err != nil {
			var synthErr *speech.SynthesisError
			if errors.As(err, &synthErr) {
				c.JSON(synthErr.HTTPStatus(), gin.H{
					"error":    synthErr.Message,
					"category": string(synthErr.Category),
					"retry":    string(synthErr.Retry()),
				})
				return
			}
			slog.ErrorContext(c.Request.Context(), "synthesis failed", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "speech synthesis failed"})
			return
		}
		c.JSON(http.StatusOK, result)
	}
}
