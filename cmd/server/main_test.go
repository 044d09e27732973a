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

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaycherian/go-pronun-backend/internal/core/services"
	"github.com/jaycherian/go-pronun-backend/internal/platform"
	test "github.com/jaycherian/go-pronun-backend/internal/testutil"
)

// stubEngine satisfies the audio engine contract without exec'ing ffmpeg.
type stubEngine struct{}

func (stubEngine) ExtractAudio(_ context.Context, _, outputPath string) error {
	return os.WriteFile(outputPath, []byte("extracted"), 0o640)
}

func (stubEngine) ConcatAudio(_ context.Context, _ []string, outputPath string) error {
	return os.WriteFile(outputPath, []byte("combined"), 0o640)
}

// newUploadRouter builds a router with only the upload route registered,
// backed by per-test storage directories.
func newUploadRouter(t *testing.T) (*gin.Engine, platform.Storage) {
	gin.SetMode(gin.TestMode)
	storage := platform.Storage{
		VideoDir:  t.TempDir(),
		AudioDir:  t.TempDir(),
		ScriptDir: t.TempDir(),
		TTSDir:    t.TempDir(),
	}
	state := &StateManager{Upload: services.NewUploadService(storage, stubEngine{})}

	router := gin.New()
	router.POST("/upload-video-with-script/", handleUpload(state))
	return router, storage
}

// multipartBody assembles a multipart form through the given builder and
// returns the encoded body with its content type.
func multipartBody(t *testing.T, build func(w *multipart.Writer)) (*bytes.Buffer, string) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	build(writer)
	require.NoError(t, writer.Close())
	return &buf, writer.FormDataContentType()
}

// postUpload sends the body to the upload route and returns the response.
func postUpload(router *gin.Engine, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/upload-video-with-script/", body)
	req.Header.Set("Content-Type", contentType)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	return recorder
}

// TestUploadHandlerRejectsInlineScript asserts that a non-empty plain string
// in the script field, rather than a file upload, fails with a client error
// before anything is stored.
func TestUploadHandlerRejectsInlineScript(t *testing.T) {
	router, storage := newUploadRouter(t)

	body, contentType := multipartBody(t, func(w *multipart.Writer) {
		part, err := w.CreateFormFile("video", "clip.mp4")
		require.NoError(t, err)
		_, err = part.Write(test.GetTestVideoBytes())
		require.NoError(t, err)
		require.NoError(t, w.WriteField("script", "read this text aloud"))
	})

	recorder := postUpload(router, body, contentType)

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "script must be uploaded as a file")

	entries, err := os.ReadDir(storage.VideoDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

// TestUploadHandlerTreatsEmptyScriptFieldAsAbsent asserts the normalization
// rule: an empty-string script field means "no script provided" and the
// upload still succeeds.
func TestUploadHandlerTreatsEmptyScriptFieldAsAbsent(t *testing.T) {
	router, storage := newUploadRouter(t)

	body, contentType := multipartBody(t, func(w *multipart.Writer) {
		part, err := w.CreateFormFile("video", "clip.mp4")
		require.NoError(t, err)
		_, err = part.Write(test.GetTestVideoBytes())
		require.NoError(t, err)
		require.NoError(t, w.WriteField("script", ""))
	})

	recorder := postUpload(router, body, contentType)

	require.Equal(t, http.StatusOK, recorder.Code)

	var receipt map[string]string
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &receipt))
	assert.NotEmpty(t, receipt["video_id"])
	assert.Contains(t, receipt["message"], receipt["video_id"])

	// Nothing landed in the script directory.
	entries, err := os.ReadDir(storage.ScriptDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

// TestUploadHandlerAcceptsScriptFile asserts that a script sent as a proper
// file upload is persisted under the video's id.
func TestUploadHandlerAcceptsScriptFile(t *testing.T) {
	router, storage := newUploadRouter(t)

	body, contentType := multipartBody(t, func(w *multipart.Writer) {
		video, err := w.CreateFormFile("video", "clip.mp4")
		require.NoError(t, err)
		_, err = video.Write(test.GetTestVideoBytes())
		require.NoError(t, err)

		script, err := w.CreateFormFile("script", "practice.txt")
		require.NoError(t, err)
		_, err = script.Write([]byte(test.GetTestScriptText()))
		require.NoError(t, err)
	})

	recorder := postUpload(router, body, contentType)

	require.Equal(t, http.StatusOK, recorder.Code)

	var receipt map[string]string
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &receipt))
	script, err := os.ReadFile(storage.ScriptDir + "/" + receipt["video_id"] + ".txt")
	require.NoError(t, err)
	assert.Equal(t, test.GetTestScriptText(), string(script))
}

// TestUploadHandlerMissingVideo asserts that a form without the required
// video file fails with a client error.
func TestUploadHandlerMissingVideo(t *testing.T) {
	router, _ := newUploadRouter(t)

	body, contentType := multipartBody(t, func(w *multipart.Writer) {
		require.NoError(t, w.WriteField("script", ""))
	})

	recorder := postUpload(router, body, contentType)

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "missing video file")
}
