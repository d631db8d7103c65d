package transcript_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"time"

	"github.com/kubev2v/transcript-drainer/internal/transcript"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

const srv1Document = `<?xml version="1.0" encoding="utf-8" ?>
<transcript>
  <text start="0.0" dur="1.5">[Music]</text>
  <text start="1.5" dur="2.0">  hello there  </text>
  <text start="3.5" dur="1.0"></text>
  <text start="4.5" dur="2.0">it&amp;#39;s a test</text>
  <text start="6.5" dur="2.0">of the captions</text>
</transcript>`

type fakeResolver struct {
	tracks []transcript.CaptionTrack
	err    error
}

func (f *fakeResolver) Tracks(ctx context.Context, videoID string) ([]transcript.CaptionTrack, error) {
	return f.tracks, f.err
}

var _ = Describe("transcript", func() {
	Context("parse", func() {
		It("joins the segments and drops music markers", func() {
			text, err := transcript.ParseTranscript([]byte(srv1Document))
			Expect(err).To(BeNil())
			Expect(text).To(Equal("hello there it's a test of the captions"))
		})

		It("fails on a document without text", func() {
			_, err := transcript.ParseTranscript([]byte(`<transcript><text>[Music]</text></transcript>`))
			Expect(err).To(MatchError(transcript.ErrEmptyTranscript))
		})

		It("fails on malformed xml", func() {
			_, err := transcript.ParseTranscript([]byte(`<transcript><text>oops</transcript>`))
			Expect(err).To(MatchError(transcript.ErrEmptyTranscript))
		})
	})

	Context("chunk", func() {
		It("groups words", func() {
			Expect(transcript.Chunk("a b c d e", 2)).To(Equal([]string{"a b", "c d", "e"}))
			Expect(transcript.Chunk("a  b\nc", 3)).To(Equal([]string{"a b c"}))
			Expect(transcript.Chunk("   ", 3)).To(BeEmpty())
		})
	})

	Context("select track", func() {
		It("prefers automatic captions in the requested language", func() {
			tracks := []transcript.CaptionTrack{
				{BaseURL: "http://manual-en", LanguageCode: "en"},
				{BaseURL: "http://asr-fr", LanguageCode: "fr", Automatic: true},
				{BaseURL: "http://asr-en", LanguageCode: "en", Automatic: true},
			}
			track, ok := transcript.SelectTrack(tracks, "en")
			Expect(ok).To(BeTrue())
			Expect(track.BaseURL).To(Equal("http://asr-en"))
		})

		It("falls back to uploaded captions", func() {
			tracks := []transcript.CaptionTrack{
				{BaseURL: "http://manual-en", LanguageCode: "en"},
			}
			track, ok := transcript.SelectTrack(tracks, "en")
			Expect(ok).To(BeTrue())
			Expect(track.BaseURL).To(Equal("http://manual-en"))

			_, ok = transcript.SelectTrack(tracks, "de")
			Expect(ok).To(BeFalse())
		})
	})

	Context("transform", func() {
		var srv *httptest.Server

		BeforeEach(func() {
			srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Query().Get("fmt") != "srv1" {
					w.WriteHeader(http.StatusBadRequest)
					return
				}
				switch r.URL.Path {
				case "/ok":
					_, _ = w.Write([]byte(srv1Document))
				case "/slow":
					time.Sleep(500 * time.Millisecond)
					_, _ = w.Write([]byte(srv1Document))
				default:
					w.WriteHeader(http.StatusNotFound)
				}
			}))
			DeferCleanup(srv.Close)
		})

		newTransformer := func(path string, opts ...transcript.Option) *transcript.YouTubeTransformer {
			resolver := &fakeResolver{tracks: []transcript.CaptionTrack{
				{BaseURL: srv.URL + path + "?lang=en", LanguageCode: "en", Automatic: true},
			}}
			return transcript.NewYouTubeTransformer(time.Second, append(opts, transcript.WithResolver(resolver))...)
		}

		It("fetches and chunks the transcript", func() {
			t := newTransformer("/ok", transcript.WithChunkWords(4))
			chunks, err := t.Transform(context.TODO(), "video")
			Expect(err).To(BeNil())
			Expect(chunks).To(Equal([]string{"hello there it's a", "test of the captions"}))
		})

		It("reports a failed download", func() {
			t := newTransformer("/missing")
			_, err := t.Transform(context.TODO(), "video")
			Expect(err).To(MatchError(transcript.ErrTranscriptDownload))
		})

		It("honours the context deadline", func() {
			t := newTransformer("/slow")
			ctx, cancel := context.WithTimeout(context.TODO(), 50*time.Millisecond)
			defer cancel()
			_, err := t.Transform(ctx, "video")
			Expect(err).To(MatchError(transcript.ErrTranscriptDownload))
		})

		It("downloads through the given http client", func() {
			rt := &countingTransport{next: http.DefaultTransport}
			t := newTransformer("/ok", transcript.WithHTTPClient(&http.Client{Transport: rt}), transcript.WithHTTPClient(nil))
			chunks, err := t.Transform(context.TODO(), "video")
			Expect(err).To(BeNil())
			Expect(chunks).To(HaveLen(1))
			Expect(rt.calls.Load()).To(BeNumerically("==", 1))
		})

		It("gives up on a download slower than the client timeout", func() {
			t := newTransformer("/slow", transcript.WithHTTPClient(&http.Client{Timeout: 50 * time.Millisecond}))
			_, err := t.Transform(context.TODO(), "video")
			Expect(err).To(MatchError(transcript.ErrTranscriptDownload))
		})

		It("reports a video without captions in the language", func() {
			resolver := &fakeResolver{tracks: []transcript.CaptionTrack{
				{BaseURL: srv.URL + "/ok", LanguageCode: "es"},
			}}
			t := transcript.NewYouTubeTransformer(time.Second, transcript.WithResolver(resolver))
			_, err := t.Transform(context.TODO(), "video")
			Expect(err).To(MatchError(transcript.ErrTranscriptNotFound))
		})

		It("reports a resolver error", func() {
			resolver := &fakeResolver{err: errors.New("video unavailable")}
			t := transcript.NewYouTubeTransformer(time.Second, transcript.WithResolver(resolver))
			_, err := t.Transform(context.TODO(), "video")
			Expect(err).To(MatchError(transcript.ErrTranscriptNotFound))
			Expect(strings.Contains(err.Error(), "video unavailable")).To(BeTrue())
		})
	})
})

type countingTransport struct {
	calls atomic.Int32
	next  http.RoundTripper
}

func (c *countingTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	c.calls.Add(1)
	return c.next.RoundTrip(r)
}
