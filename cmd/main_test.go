package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/okian/cardrank/internal/config"
	"github.com/okian/cardrank/internal/domain/types"
	"github.com/okian/cardrank/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

const upstreamBody = `{"data": {"commander": {"entries": {"edges": [
  {"node": {"standing": 1, "tournament": {"size": 10}, "maindeck": [{"name": "Sol Ring", "imageUrls": ["https://img.example/sol.jpg"]}, {"name": "Mystic Remora"}]}},
  {"node": {"standing": 5, "tournament": {"size": 10}, "maindeck": [{"name": "Sol Ring"}]}}
]}}}}`

func upstream() *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(upstreamBody))
	}))
}

func setEnv(vars map[string]string) func() {
	for k, v := range vars {
		_ = os.Setenv(k, v)
	}
	return func() {
		for k := range vars {
			_ = os.Unsetenv(k)
		}
	}
}

func TestMainApplicationIntegration(t *testing.T) {
	convey.Convey("Given the application wired against a fake upstream", t, func() {
		up := upstream()
		defer up.Close()

		defer setEnv(map[string]string{
			"CARDRANK_SOURCE_ENDPOINT":   up.URL,
			"CARDRANK_SOURCE_RATE_LIMIT": "1000",
			"CARDRANK_WORKER_COUNT":      "2",
			"CARDRANK_QUEUE_SIZE":        "10",
		})()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		cfg, err := config.Load(ctx)
		convey.So(err, convey.ShouldBeNil)
		convey.So(cfg.SourceEndpoint, convey.ShouldEqual, up.URL)

		svc := newService(cfg, logger.Nop())
		convey.So(svc.Start(ctx), convey.ShouldBeNil)
		defer svc.Stop()

		srv := httptest.NewServer(newMux(ctx, cfg, svc))
		defer srv.Close()

		convey.Convey("When requesting scores", func() {
			resp, err := http.Get(srv.URL + "/scores?commander=Kinnan,+Bonder+Prodigy")
			convey.So(err, convey.ShouldBeNil)
			defer resp.Body.Close()

			convey.Convey("Then the ranked cards come back", func() {
				convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusOK)
				var body types.Analysis
				convey.So(json.NewDecoder(resp.Body).Decode(&body), convey.ShouldBeNil)
				convey.So(body.MinEventSize, convey.ShouldEqual, 60)
				convey.So(body.TimePeriod, convey.ShouldEqual, "ONE_YEAR")
				convey.So(body.Cards, convey.ShouldHaveLength, 2)
				convey.So(body.Cards[0].Name, convey.ShouldEqual, "Sol Ring")
				convey.So(body.Cards[0].Score, convey.ShouldAlmostEqual, 1.4, 1e-9)
				convey.So(body.Cards[1].Name, convey.ShouldEqual, "Mystic Remora")
			})
		})

		convey.Convey("When exporting", func() {
			resp, err := http.Get(srv.URL + "/export?commander=Kinnan,+Bonder+Prodigy&n=1")
			convey.So(err, convey.ShouldBeNil)
			defer resp.Body.Close()

			buf := new(bytes.Buffer)
			_, _ = buf.ReadFrom(resp.Body)
			convey.So(buf.String(), convey.ShouldEqual, "1 Sol Ring\n\n1 Kinnan, Bonder Prodigy")
		})

		convey.Convey("When submitting a job", func() {
			resp, err := http.Post(srv.URL+"/analyses", "application/json",
				strings.NewReader(`{"commander": "Kinnan, Bonder Prodigy"}`))
			convey.So(err, convey.ShouldBeNil)
			convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusAccepted)
			location := resp.Header.Get("Location")
			_ = resp.Body.Close()

			convey.Convey("Then polling eventually returns the result", func() {
				var job types.Job
				deadline := time.Now().Add(2 * time.Second)
				for time.Now().Before(deadline) {
					r, err := http.Get(srv.URL + location)
					convey.So(err, convey.ShouldBeNil)
					_ = json.NewDecoder(r.Body).Decode(&job)
					_ = r.Body.Close()
					if job.Status == "succeeded" {
						break
					}
					time.Sleep(10 * time.Millisecond)
				}
				convey.So(job.Status, convey.ShouldEqual, "succeeded")
				convey.So(job.Result, convey.ShouldNotBeNil)
				convey.So(job.Result.Cards[0].Name, convey.ShouldEqual, "Sol Ring")
			})
		})

		convey.Convey("When fetching the OpenAPI document", func() {
			resp, err := http.Get(srv.URL + "/openapi.yaml")
			convey.So(err, convey.ShouldBeNil)
			_ = resp.Body.Close()
			convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusOK)
		})

		convey.Convey("When opening the landing page", func() {
			resp, err := http.Get(srv.URL + "/")
			convey.So(err, convey.ShouldBeNil)
			_ = resp.Body.Close()
			convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusOK)
		})
	})
}

func TestMainApplicationComponents(t *testing.T) {
	convey.Convey("Given main application components", t, func() {
		convey.Convey("When the metrics updaters run until their context ends", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
			defer cancel()

			convey.So(func() { startSystemMetricsUpdater(ctx) }, convey.ShouldNotPanic)
		})

		convey.Convey("When updating metrics directly", func() {
			cfg := config.New()
			svc := newService(cfg, logger.Nop())

			convey.So(func() { updateSystemMetrics() }, convey.ShouldNotPanic)
			convey.So(func() { updateServiceMetrics(svc) }, convey.ShouldNotPanic)
		})
	})
}

func TestMainApplicationErrorHandling(t *testing.T) {
	convey.Convey("Given an invalid configuration", t, func() {
		defer setEnv(map[string]string{"CARDRANK_DEFAULT_TIME_PERIOD": "LAST_WEEK"})()

		convey.Convey("Then configuration loading fails", func() {
			cfg, err := config.Load(context.Background())
			convey.So(err, convey.ShouldNotBeNil)
			convey.So(cfg, convey.ShouldBeNil)
		})
	})
}
