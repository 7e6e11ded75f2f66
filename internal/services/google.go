package services

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/samvad/campus/backend/internal/config"
	"github.com/samvad/campus/backend/pkg/response"
)

// GoogleService verifies Google OAuth access tokens by calling the userinfo
// endpoint, mirroring the browser-side implicit flow the frontend uses.
type GoogleService struct {
	cfg    *config.GoogleConfig
	client *http.Client
}

func NewGoogleService(cfg *config.GoogleConfig) *GoogleService {
	return &GoogleService{
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// GoogleProfile is the subset of the userinfo response we rely on.
type GoogleProfile struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// VerifyAccessToken resolves an access token to the owning Google profile.
// An invalid token yields Unauthorized; transport failures bubble up so the
// caller can map them to ServiceUnavailable.
func (s *GoogleService) VerifyAccessToken(token string) (*GoogleProfile, error) {
	if !s.cfg.Enabled {
		return nil, response.NewBadRequest("google login is not enabled")
	}

	url := fmt.Sprintf("%s?access_token=%s", s.cfg.UserinfoURL, token)
	resp, err := s.client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("google userinfo request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, response.NewUnauthorized("invalid Google token")
	}

	var profile GoogleProfile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, fmt.Errorf("decode google userinfo: %w", err)
	}
	if profile.Email == "" {
		return nil, response.NewBadRequest("could not retrieve email from Google")
	}

	return &profile, nil
}
