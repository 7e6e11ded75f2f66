package services

import (
	"bytes"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samvad/campus/backend/internal/config"
	"github.com/samvad/campus/backend/pkg/logger"
	"github.com/samvad/campus/backend/pkg/response"
)

// BlobStore uploads images to the Cloudinary CDN. When the CDN is not
// configured it stores files on local disk instead, so photo features keep
// working in development.
type BlobStore struct {
	cfg    config.BlobStoreConfig
	client *http.Client
}

// StoredBlob is the handle to an uploaded image. PublicID is what Delete
// needs later; for local files it is the path relative to the upload dir.
type StoredBlob struct {
	URL      string
	PublicID string
}

func NewBlobStore(cfg config.BlobStoreConfig) *BlobStore {
	return &BlobStore{
		cfg:    cfg,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

// Upload stores the image and returns its public URL and deletion handle.
func (b *BlobStore) Upload(filename string, data io.Reader) (*StoredBlob, error) {
	if !b.cfg.Enabled {
		return b.uploadLocal(filename, data)
	}
	return b.uploadCloudinary(data)
}

// Delete removes a previously uploaded image. Failures only log; a stale
// blob is not worth failing the caller's mutation over.
func (b *BlobStore) Delete(publicID string) {
	if publicID == "" {
		return
	}

	var err error
	if b.cfg.Enabled {
		err = b.destroyCloudinary(publicID)
	} else {
		err = os.Remove(filepath.Join(b.cfg.UploadDir, filepath.Clean(publicID)))
	}
	if err != nil {
		logger.Warn().Err(err).Str("public_id", publicID).Msg("blob deletion failed")
	}
}

func (b *BlobStore) uploadLocal(filename string, data io.Reader) (*StoredBlob, error) {
	if err := os.MkdirAll(b.cfg.UploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}

	ext := filepath.Ext(filename)
	name := uuid.NewString() + ext
	path := filepath.Join(b.cfg.UploadDir, name)

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create upload file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, data); err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("write upload file: %w", err)
	}

	return &StoredBlob{
		URL:      "/uploads/" + name,
		PublicID: name,
	}, nil
}

type cloudinaryUploadResponse struct {
	SecureURL string `json:"secure_url"`
	PublicID  string `json:"public_id"`
	Error     struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (b *BlobStore) uploadCloudinary(data io.Reader) (*StoredBlob, error) {
	params := map[string]string{
		"timestamp": fmt.Sprintf("%d", time.Now().Unix()),
		"folder":    b.cfg.Folder,
	}
	params["signature"] = b.sign(params)
	params["api_key"] = b.cfg.APIKey

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for k, v := range params {
		if err := writer.WriteField(k, v); err != nil {
			return nil, fmt.Errorf("build upload form: %w", err)
		}
	}
	part, err := writer.CreateFormFile("file", "image")
	if err != nil {
		return nil, fmt.Errorf("build upload form: %w", err)
	}
	if _, err := io.Copy(part, data); err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	writer.Close()

	endpoint := fmt.Sprintf("%s/v1_1/%s/image/upload", b.cfg.BaseURL, b.cfg.CloudName)
	resp, err := b.client.Post(endpoint, writer.FormDataContentType(), &body)
	if err != nil {
		logger.Error().Err(err).Msg("image upload request failed")
		return nil, response.NewServiceUnavailable("image storage is unavailable")
	}
	defer resp.Body.Close()

	var result cloudinaryUploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, response.NewServiceUnavailable("image storage returned an invalid response")
	}
	if resp.StatusCode != http.StatusOK {
		logger.Error().Int("status", resp.StatusCode).Str("message", result.Error.Message).
			Msg("image upload rejected")
		return nil, response.NewServiceUnavailable("image storage rejected the upload")
	}

	return &StoredBlob{URL: result.SecureURL, PublicID: result.PublicID}, nil
}

func (b *BlobStore) destroyCloudinary(publicID string) error {
	params := map[string]string{
		"public_id": publicID,
		"timestamp": fmt.Sprintf("%d", time.Now().Unix()),
	}
	signature := b.sign(params)

	form := url.Values{}
	for k, v := range params {
		form.Set(k, v)
	}
	form.Set("signature", signature)
	form.Set("api_key", b.cfg.APIKey)

	endpoint := fmt.Sprintf("%s/v1_1/%s/image/destroy", b.cfg.BaseURL, b.cfg.CloudName)
	resp, err := b.client.PostForm(endpoint, form)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("destroy returned %d: %s", resp.StatusCode, raw)
	}
	return nil
}

// sign produces the Cloudinary request signature: parameters sorted by key,
// joined as k=v with &, then the API secret appended, all SHA-1 hashed.
func (b *BlobStore) sign(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+params[k])
	}

	payload := strings.Join(pairs, "&") + b.cfg.APISecret
	sum := sha1.Sum([]byte(payload))
	return hex.EncodeToString(sum[:])
}
