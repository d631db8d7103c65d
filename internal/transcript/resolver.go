package transcript

import (
	"context"
	"net/http"

	"github.com/kkdai/youtube/v2"
)

const automaticCaptionKind = "asr"

// CaptionTrack is one caption track published for a video.
type CaptionTrack struct {
	BaseURL      string
	LanguageCode string
	Automatic    bool
}

type CaptionResolver interface {
	Tracks(ctx context.Context, videoID string) ([]CaptionTrack, error)
}

type YouTubeResolver struct {
	client *youtube.Client
}

func NewYouTubeResolver(httpClient *http.Client) *YouTubeResolver {
	return &YouTubeResolver{client: &youtube.Client{HTTPClient: httpClient}}
}

func (r *YouTubeResolver) Tracks(ctx context.Context, videoID string) ([]CaptionTrack, error) {
	video, err := r.client.GetVideoContext(ctx, videoID)
	if err != nil {
		return nil, err
	}

	tracks := make([]CaptionTrack, 0, len(video.CaptionTracks))
	for _, ct := range video.CaptionTracks {
		tracks = append(tracks, CaptionTrack{
			BaseURL:      ct.BaseURL,
			LanguageCode: ct.LanguageCode,
			Automatic:    ct.Kind == automaticCaptionKind,
		})
	}
	return tracks, nil
}

// SelectTrack prefers the automatic captions in lang and falls back to the uploaded ones.
func SelectTrack(tracks []CaptionTrack, lang string) (CaptionTrack, bool) {
	var manual *CaptionTrack
	for i := range tracks {
		if tracks[i].LanguageCode != lang || tracks[i].BaseURL == "" {
			continue
		}
		if tracks[i].Automatic {
			return tracks[i], true
		}
		if manual == nil {
			manual = &tracks[i]
		}
	}
	if manual != nil {
		return *manual, true
	}
	return CaptionTrack{}, false
}
