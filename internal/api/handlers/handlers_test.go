package handlers

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"sportsmatch/internal/apperr"
	"sportsmatch/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func imageApp() *fiber.App {
	app := fiber.New(fiber.Config{BodyLimit: 2 * maxImageSize})
	app.Post("/upload", func(c *fiber.Ctx) error {
		img, err := formImage(c)
		if err != nil {
			return fail(c, err)
		}
		size := 0
		if img != nil {
			size = len(img.Data)
		}
		return respond(c, fiber.StatusOK, size)
	})
	return app
}

func multipartBody(t *testing.T, field, filename string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.WriteField("nickname", "keeper"))
	if field != "" {
		part, err := w.CreateFormFile(field, filename)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func TestFormImage(t *testing.T) {
	png := []byte("\x89PNG fake")

	tests := []struct {
		name        string
		body        func(t *testing.T) (*bytes.Buffer, string)
		wantStatus  int
		wantSize    int
		wantErrCode string
	}{
		{
			name: "json body has no image",
			body: func(t *testing.T) (*bytes.Buffer, string) {
				return bytes.NewBufferString(`{"nickname":"keeper"}`), fiber.MIMEApplicationJSON
			},
			wantStatus: http.StatusOK,
		},
		{
			name: "multipart without image",
			body: func(t *testing.T) (*bytes.Buffer, string) {
				return multipartBody(t, "", "", nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name: "png image",
			body: func(t *testing.T) (*bytes.Buffer, string) {
				return multipartBody(t, "image", "me.png", png)
			},
			wantStatus: http.StatusOK,
			wantSize:   len(png),
		},
		{
			name: "unsupported extension",
			body: func(t *testing.T) (*bytes.Buffer, string) {
				return multipartBody(t, "image", "me.gif", png)
			},
			wantStatus:  http.StatusBadRequest,
			wantErrCode: apperr.ErrInvalidRequest.Code,
		},
		{
			name: "multipart without boundary",
			body: func(t *testing.T) (*bytes.Buffer, string) {
				return bytes.NewBufferString("garbage"), fiber.MIMEMultipartForm
			},
			wantStatus:  http.StatusBadRequest,
			wantErrCode: apperr.ErrInvalidRequest.Code,
		},
	}

	app := imageApp()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, contentType := tt.body(t)
			req := httptest.NewRequest(http.MethodPost, "/upload", body)
			req.Header.Set(fiber.HeaderContentType, contentType)

			resp, err := app.Test(req, -1)
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, tt.wantStatus, resp.StatusCode)

			var env models.Envelope
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
			if tt.wantErrCode != "" {
				assert.False(t, env.Success)
				assert.Equal(t, tt.wantErrCode, env.Code)
				return
			}
			assert.True(t, env.Success)
			assert.EqualValues(t, tt.wantSize, env.Result)
		})
	}
}

func TestFormImage_RejectsOversizedImage(t *testing.T) {
	body, contentType := multipartBody(t, "image", "big.jpg", []byte(strings.Repeat("x", maxImageSize+1)))
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set(fiber.HeaderContentType, contentType)

	resp, err := imageApp().Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
