package metrics

import (
	"strconv"
	"time"

	"github.com/alfredjeanlab/litgraph/internal/model"
)

// RecordHTTPRequest counts one finished request.
func (r *Registry) RecordHTTPRequest(method, route string, status int, d time.Duration) {
	r.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	r.HTTPRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// RecordGraphQuery counts a graph query and the size of its answer. Queries
// selecting no mode are counted as "none".
func (r *Registry) RecordGraphQuery(mode string, nodes int) {
	if mode == "" {
		mode = "none"
	}
	r.GraphQueriesTotal.WithLabelValues(mode).Inc()
	r.GraphNodes.WithLabelValues(mode).Observe(float64(nodes))
}

// SetCatalogStats publishes the completeness tiers of the catalogue.
func (r *Registry) SetCatalogStats(st model.CatalogStats) {
	r.CatalogArticles.WithLabelValues("high").Set(float64(st.HighQualityCount))
	r.CatalogArticles.WithLabelValues("medium").Set(float64(st.MediumQualityCount))
	r.CatalogArticles.WithLabelValues("low").Set(float64(st.LowQualityCount))
}

// SetSessions publishes the explorer session roster counts.
func (r *Registry) SetSessions(active, idle int) {
	r.ExplorerSessions.WithLabelValues("active").Set(float64(active))
	r.ExplorerSessions.WithLabelValues("idle").Set(float64(idle))
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// RecordReload counts a catalogue reload.
func (r *Registry) RecordReload(err error) {
	r.CatalogReloads.WithLabelValues(status(err)).Inc()
}

// RecordSync counts an export run to one destination.
func (r *Registry) RecordSync(destination string, err error) {
	r.SyncRunsTotal.WithLabelValues(destination, status(err)).Inc()
}

// RecordGRPC counts one finished RPC by its status code name.
func (r *Registry) RecordGRPC(method, code string) {
	r.GRPCRequestsTotal.WithLabelValues(method, code).Inc()
}
