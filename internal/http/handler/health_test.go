package handler_test

import (
	"net/http"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/Falcon-J/saathi/core/config"
)

var _ = Describe("HealthHandler", func() {
	It("reports the in-memory backend as degraded", func() {
		app := newTestApp(config.RateLimitConfig{})
		DeferCleanup(app.realtime.Close)

		w := app.do(http.MethodGet, "/health", nil, nil)

		Expect(w.Code).To(Equal(http.StatusOK))
		resp := decode(w)
		Expect(resp).To(HaveKeyWithValue("status", "degraded"))
		Expect(resp["kv"]).To(HaveKeyWithValue("type", "memory"))
		Expect(resp["kv"]).To(HaveKeyWithValue("connected", false))
	})

	It("exposes prometheus metrics", func() {
		app := newTestApp(config.RateLimitConfig{})
		DeferCleanup(app.realtime.Close)

		w := app.do(http.MethodGet, "/metrics", nil, nil)

		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Body.String()).To(ContainSubstring("saathi_realtime_active_connections"))
	})
})
