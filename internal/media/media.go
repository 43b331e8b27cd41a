// Package media delegates image storage to an external host. The messaging
// and post flows hand it a base64 data URI and get back a durable URL.
package media

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Uploader resolves client-supplied image payloads to hosted URLs.
type Uploader interface {
	Upload(ctx context.Context, data string) (string, error)
	Destroy(ctx context.Context, assetURL string) error
}

// HTTPUploader posts images to a Cloudinary-style unsigned upload endpoint.
type HTTPUploader struct {
	uploadURL string
	preset    string
	client    *http.Client
}

// NewHTTPUploader creates an uploader for the given endpoint and preset.
func NewHTTPUploader(uploadURL, preset string) *HTTPUploader {
	return &HTTPUploader{
		uploadURL: uploadURL,
		preset:    preset,
		client:    &http.Client{Timeout: 30 * time.Second},
	}
}

type uploadResponse struct {
	SecureURL string `json:"secure_url"`
	Error     struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Upload sends the data URI to the image host and returns the hosted URL.
func (u *HTTPUploader) Upload(ctx context.Context, data string) (string, error) {
	form := url.Values{}
	form.Set("file", data)
	form.Set("upload_preset", u.preset)
	form.Set("public_id", uuid.NewString())

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.uploadURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := u.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var body uploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		if body.Error.Message != "" {
			return "", fmt.Errorf("media upload failed: %s", body.Error.Message)
		}
		return "", fmt.Errorf("media upload failed: status %d", resp.StatusCode)
	}
	if body.SecureURL == "" {
		return "", fmt.Errorf("media upload failed: empty URL in response")
	}
	return body.SecureURL, nil
}

// Destroy deletes a previously uploaded asset, addressed by the public id
// embedded in its URL. Best effort; callers typically log and continue.
func (u *HTTPUploader) Destroy(ctx context.Context, assetURL string) error {
	publicID := publicIDFromURL(assetURL)
	if publicID == "" {
		return fmt.Errorf("media destroy: cannot derive public id from %q", assetURL)
	}

	form := url.Values{}
	form.Set("public_id", publicID)

	destroyURL := strings.TrimSuffix(u.uploadURL, "/upload") + "/destroy"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, destroyURL, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := u.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("media destroy failed: status %d", resp.StatusCode)
	}
	return nil
}

// publicIDFromURL extracts the asset id from a hosted URL: the last path
// segment without its extension.
func publicIDFromURL(assetURL string) string {
	segments := strings.Split(assetURL, "/")
	last := segments[len(segments)-1]
	if last == "" {
		return ""
	}
	if dot := strings.LastIndex(last, "."); dot > 0 {
		last = last[:dot]
	}
	return last
}
