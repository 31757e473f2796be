package server

import (
	"context"
	"ddpsink/internal/global"
	"ddpsink/internal/metrics"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Parses starttime/endtime query parameters shared by data and aggregation requests
func parseWindow(clientRequest *http.Request, now time.Time) (start, end time.Time, err error) {
	rawStartTime := clientRequest.FormValue("starttime")
	if rawStartTime == "" {
		// Default start is last minute
		start = now.Add(-1 * time.Minute)
	} else if rawStartTime[0] == '-' || rawStartTime[0] == '+' {
		dur, parseErr := time.ParseDuration(rawStartTime)
		if parseErr != nil {
			// Default start is last minute
			start = now.Add(-1 * time.Minute)
		} else if dur > 0 {
			err = fmt.Errorf("relative start time %q is in the future", rawStartTime)
			return
		} else {
			start = now.Add(dur)
		}
	} else {
		start, err = time.Parse(time.RFC3339Nano, rawStartTime)
		if err != nil {
			err = fmt.Errorf("invalid start time: %w", err)
			return
		}
	}

	rawEndTime := clientRequest.FormValue("endtime")
	if rawEndTime == "now" || rawEndTime == "" {
		end = now // Default end is now
	} else {
		end, err = time.Parse(time.RFC3339Nano, rawEndTime)
		if err != nil {
			err = fmt.Errorf("invalid end time: %w", err)
			return
		}
	}
	return
}

// Splits the URL path after the route prefix into namespace components
func requestNamespace(urlPath, routePrefix string) (namespace []string) {
	rawNamespace := strings.Trim(strings.TrimPrefix(urlPath, routePrefix), "/")
	if rawNamespace == "" {
		return
	}
	namespace = strings.Split(rawNamespace, "/")
	return
}

// Handles metric search requests based on time for data
func handleData(baseCtx context.Context, search DataSearcher, serverResponder http.ResponseWriter, clientRequest *http.Request) {
	reqNamespace := requestNamespace(clientRequest.URL.Path, global.DataPath)
	reqName := clientRequest.FormValue("name")

	reqStartTime, reqEndTime, err := parseWindow(clientRequest, time.Now())
	if err != nil {
		serverResponder.WriteHeader(http.StatusBadRequest)
		return
	}

	// Query internal metric registry
	respondResults(baseCtx, serverResponder, metrics.ConvertAll(search(reqName, reqNamespace, reqStartTime, reqEndTime)))
}
