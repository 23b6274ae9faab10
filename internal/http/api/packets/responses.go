package packets

import (
	"github.com/Nixie-Tech-LLC/pocketbuddy/internal/model"
	"github.com/Nixie-Tech-LLC/pocketbuddy/internal/video"
)

type StreakResponse struct {
	Streak int `json:"streak"`
}

// PublishResponse carries VideoID for follow-up GET /videos/:videoId calls.
type PublishResponse struct {
	Exercise model.Exercise `json:"exercise"`
	Video    video.Video    `json:"video"`
	VideoID  string         `json:"videoId"`
}

type PingResponse struct {
	Status string `json:"status"`
	Store  string `json:"store"`
}
