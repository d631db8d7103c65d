package apiserver_test

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"time"

	apiserver "github.com/kubev2v/transcript-drainer/internal/api_server"
	"github.com/kubev2v/transcript-drainer/internal/store/model"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type staticStats struct{}

func (staticStats) Statistics(_ context.Context) (model.QueueStats, error) {
	return model.NewQueueStats([]model.StatusCount{{Status: model.WorkItemStatusFailed, Count: 4}}), nil
}

var _ = Describe("metrics server", func() {
	It("serves the metrics and health endpoints", func() {
		srv := apiserver.NewMetricServer("127.0.0.1:0", nil, staticStats{})

		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(ContainSubstring(`transcripts_queue_items{status="failed"} 4`))

		rec = httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
		Expect(rec.Code).To(Equal(http.StatusOK))
	})

	It("stops when the context is cancelled", func() {
		listener, err := net.Listen("tcp", "127.0.0.1:0")
		Expect(err).To(BeNil())

		srv := apiserver.NewMetricServer(listener.Addr().String(), listener, staticStats{})
		ctx, cancel := context.WithCancel(context.TODO())

		done := make(chan error, 1)
		go func() {
			done <- srv.Run(ctx)
		}()

		Eventually(func() int {
			resp, err := http.Get("http://" + listener.Addr().String() + "/health")
			if err != nil {
				return 0
			}
			defer resp.Body.Close()
			_, _ = io.Copy(io.Discard, resp.Body)
			return resp.StatusCode
		}).WithTimeout(2 * time.Second).Should(Equal(http.StatusOK))

		cancel()
		Eventually(done).WithTimeout(gracefulTimeout).Should(Receive(BeNil()))
	})
})

const gracefulTimeout = 6 * time.Second
