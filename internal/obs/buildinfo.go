package obs

import "github.com/prometheus/client_golang/prometheus"

var buildInfo = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "service_build_info",
		Help: "Build metadata; value is always 1.",
	},
	[]string{"version"},
)

// SetBuildInfo registers and stamps the build info gauge.
func SetBuildInfo(version string) {
	prometheus.MustRegister(buildInfo)
	buildInfo.WithLabelValues(version).Set(1)
}
