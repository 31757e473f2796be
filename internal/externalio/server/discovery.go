package server

import (
	"context"
	"ddpsink/internal/global"
	"ddpsink/internal/metrics"
	"net/http"
)

// Lists metric series (name, namespace, type, unit) without values so clients can build data queries
func handleDiscovery(baseCtx context.Context, discover Discoverer, serverResponder http.ResponseWriter, clientRequest *http.Request) {
	reqType, err := metrics.ParseType(clientRequest.FormValue("type"))
	if err != nil {
		serverResponder.WriteHeader(http.StatusBadRequest)
		return
	}

	series := discover(
		clientRequest.FormValue("name"),
		clientRequest.FormValue("description"),
		requestNamespace(clientRequest.URL.Path, global.DiscoveryPath),
		clientRequest.FormValue("unit"),
		reqType,
	)
	respondResults(baseCtx, serverResponder, metrics.ConvertAll(series))
}

// Writes results, or an error object when the search came back empty
func respondResults(ctx context.Context, serverResponder http.ResponseWriter, results []metrics.JMetric) {
	if len(results) == 0 {
		jResp(ctx, serverResponder, Jerror{Msg: "Search returned no results"})
		return
	}
	jResp(ctx, serverResponder, results)
}
