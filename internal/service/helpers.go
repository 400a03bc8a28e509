package service

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/maheshrc27/socialflow/internal/models"
	"github.com/maheshrc27/socialflow/internal/transfer"
)

const googleUserInfoURL = "https://www.googleapis.com/oauth2/v1/userinfo"

func GetUserInfo(client *http.Client, userInfoURL string) (*transfer.GoogleUserInfo, error) {
	response, err := client.Get(userInfoURL)
	if err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("error fetching user info: %w", err)
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		slog.Info("Unexpected response status")
		return nil, fmt.Errorf("unexpected response status: %d", response.StatusCode)
	}

	var userInfo transfer.GoogleUserInfo
	if err := json.NewDecoder(response.Body).Decode(&userInfo); err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("error decoding user info: %w", err)
	}

	return &userInfo, nil
}

// inferMediaType picks a media type when the request left it empty.
func inferMediaType(mediaURLs []string) string {
	switch len(mediaURLs) {
	case 0:
		return models.MediaTypeText
	case 1:
		if isVideoURL(mediaURLs[0]) {
			return models.MediaTypeVideo
		}
		return models.MediaTypeImage
	default:
		return models.MediaTypeCarousel
	}
}

func isVideoURL(mediaURL string) bool {
	if u, err := url.Parse(mediaURL); err == nil {
		mediaURL = u.Path
	}
	switch strings.ToLower(path.Ext(mediaURL)) {
	case ".mp4", ".mov", ".m4v":
		return true
	}
	return false
}

func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
