package transcript

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultLanguage   = "en"
	DefaultChunkWords = 500

	maxTranscriptSize = 10 << 20
)

var (
	ErrTranscriptNotFound = errors.New("no transcript available")
	ErrTranscriptDownload = errors.New("transcript download failed")
	ErrEmptyTranscript    = errors.New("transcript is empty")
)

// YouTubeTransformer fetches the caption track of a video and splits its text into
// chunks of a fixed number of words.
type YouTubeTransformer struct {
	resolver   CaptionResolver
	archiver   Archiver
	httpClient *http.Client
	language   string
	chunkWords int
}

type Option func(*YouTubeTransformer)

func WithLanguage(lang string) Option {
	return func(t *YouTubeTransformer) {
		if lang != "" {
			t.language = lang
		}
	}
}

func WithChunkWords(n int) Option {
	return func(t *YouTubeTransformer) {
		if n > 0 {
			t.chunkWords = n
		}
	}
}

// WithHTTPClient replaces the client built from the transform timeout.
func WithHTTPClient(c *http.Client) Option {
	return func(t *YouTubeTransformer) {
		if c != nil {
			t.httpClient = c
		}
	}
}

func WithResolver(r CaptionResolver) Option {
	return func(t *YouTubeTransformer) {
		t.resolver = r
	}
}

// WithArchiver stores every downloaded caption document. Archive failures are logged
// and do not fail the transform.
func WithArchiver(a Archiver) Option {
	return func(t *YouTubeTransformer) {
		t.archiver = a
	}
}

func NewYouTubeTransformer(timeout time.Duration, opts ...Option) *YouTubeTransformer {
	httpClient := &http.Client{Timeout: timeout}
	t := &YouTubeTransformer{
		httpClient: httpClient,
		language:   DefaultLanguage,
		chunkWords: DefaultChunkWords,
	}
	for _, o := range opts {
		o(t)
	}
	if t.resolver == nil {
		t.resolver = NewYouTubeResolver(t.httpClient)
	}
	return t
}

func (t *YouTubeTransformer) Transform(ctx context.Context, videoID string) ([]string, error) {
	tracks, err := t.resolver.Tracks(ctx, videoID)
	if err != nil {
		return nil, fmt.Errorf("%w for %s: %w", ErrTranscriptNotFound, videoID, err)
	}

	track, ok := SelectTrack(tracks, t.language)
	if !ok {
		return nil, fmt.Errorf("%w for %s in %q", ErrTranscriptNotFound, videoID, t.language)
	}

	body, err := t.download(ctx, track.BaseURL)
	if err != nil {
		return nil, err
	}

	if t.archiver != nil {
		if err := t.archiver.Archive(ctx, videoID, body); err != nil {
			zap.S().Named("transcript").Warnw("failed to archive transcript", "video_id", videoID, "error", err)
		}
	}

	text, err := ParseTranscript(body)
	if err != nil {
		return nil, err
	}

	chunks := Chunk(text, t.chunkWords)
	zap.S().Named("transcript").Debugw("transcript fetched", "video_id", videoID, "automatic", track.Automatic, "chunks", len(chunks))

	return chunks, nil
}

func (t *YouTubeTransformer) download(ctx context.Context, baseURL string) ([]byte, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid track url: %w", ErrTranscriptDownload, err)
	}
	q := u.Query()
	q.Set("fmt", "srv1")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTranscriptDownload, err)
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTranscriptDownload, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: unexpected status %d", ErrTranscriptDownload, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxTranscriptSize))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTranscriptDownload, err)
	}
	return body, nil
}
