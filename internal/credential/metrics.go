// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package credential

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/holomush/pgcreds/pkg/errutil"
)

// outcomeOK labels a successful resolution.
const outcomeOK = "ok"

// resolutionsTotal counts Resolve calls by outcome: "ok" or the error code.
var resolutionsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "pgcreds_resolutions_total",
		Help: "Total number of credential resolutions by outcome",
	},
	[]string{"outcome"},
)

// RegisterMetrics registers the resolution metrics with reg.
func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(resolutionsTotal)
}

func recordOutcome(err error) {
	if err == nil {
		resolutionsTotal.WithLabelValues(outcomeOK).Inc()
		return
	}
	code := errutil.Code(err)
	if code == "" {
		code = "unknown"
	}
	resolutionsTotal.WithLabelValues(code).Inc()
}
