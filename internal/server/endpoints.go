package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/jaxxstorm/rollovermon/internal/model"
	"github.com/jaxxstorm/rollovermon/internal/monitor"
	"github.com/jaxxstorm/rollovermon/internal/output"
	"github.com/jaxxstorm/rollovermon/internal/trustchain"
	"go.uber.org/zap"
)

const (
	contentTypeHeader = "content-type"
	jsonContentType   = "application/json"
	csvContentType    = "text/csv"
)

type endpoints struct {
	analyzer Analyzer
	logger   *zap.Logger
}

func registerEndpoints(router chi.Router, e *endpoints) {
	router.Get(PathVisibility, e.apiVisibility)
	router.Get(PathTrustChain, e.apiTrustChain)
	router.Get(PathDenylist, e.apiDenylist)
}

// badRequest marks errors caused by the request parameters.
type badRequest struct{ err error }

func (b badRequest) Error() string { return b.err.Error() }
func (b badRequest) Unwrap() error { return b.err }

// apiVisibility serves key visibility per window.
// Query: goal=pubdelay|propdelay, record=dnskey|rrsig|ds, start, stop,
// details, format=json|csv|series.
func (e *endpoints) apiVisibility(rw http.ResponseWriter, req *http.Request) {
	q := req.URL.Query()
	request, err := parseRequest(req)
	if err != nil {
		e.writeError(rw, err)
		return
	}
	request.Goal, err = model.ParseGoal(q.Get("goal"))
	if err != nil {
		e.writeError(rw, badRequest{err})
		return
	}
	if request.Goal == model.GoalTrustChain {
		e.writeError(rw, badRequest{fmt.Errorf("use %s for the trust chain", PathTrustChain)})
		return
	}
	request.QueryType = strings.ToLower(q.Get("record"))
	switch request.QueryType {
	case "dnskey", "rrsig", "ds":
	default:
		e.writeError(rw, badRequest{fmt.Errorf("record must be one of dnskey, rrsig, ds: %q", q.Get("record"))})
		return
	}

	analysis, err := e.analyzer.Visibility(request)
	if err != nil {
		e.writeError(rw, err)
		return
	}
	e.writeReport(rw, q.Get("format"), analysis)
}

// apiTrustChain serves trust chain states per window.
// Query: start, stop, mode=window|pair, details, format=json|csv|series.
func (e *endpoints) apiTrustChain(rw http.ResponseWriter, req *http.Request) {
	q := req.URL.Query()
	request, err := parseRequest(req)
	if err != nil {
		e.writeError(rw, err)
		return
	}
	request.Goal = model.GoalTrustChain
	if mode := q.Get("mode"); mode != "" {
		request.Mode, err = trustchain.ParseMode(mode)
		if err != nil {
			e.writeError(rw, badRequest{err})
			return
		}
	}

	analysis, err := e.analyzer.TrustChain(request)
	if err != nil {
		e.writeError(rw, err)
		return
	}
	e.writeReport(rw, q.Get("format"), analysis)
}

func (e *endpoints) apiDenylist(rw http.ResponseWriter, _ *http.Request) {
	list, err := e.analyzer.Denylist()
	if err != nil {
		e.writeError(rw, err)
		return
	}
	body, err := output.RenderList(list)
	if err != nil {
		e.writeError(rw, err)
		return
	}
	rw.Header().Set(contentTypeHeader, jsonContentType)
	e.write(rw, body)
}

func parseRequest(req *http.Request) (monitor.Request, error) {
	q := req.URL.Query()
	from, err := monitor.ParseTime(q.Get("start"))
	if err != nil {
		return monitor.Request{}, badRequest{err}
	}
	to, err := monitor.ParseTime(q.Get("stop"))
	if err != nil {
		return monitor.Request{}, badRequest{err}
	}
	if !from.IsZero() && !to.IsZero() && !from.Before(to) {
		return monitor.Request{}, badRequest{errors.New("start must be before stop")}
	}
	details := true
	if v := q.Get("details"); v != "" {
		details, err = strconv.ParseBool(v)
		if err != nil {
			return monitor.Request{}, badRequest{fmt.Errorf("details must be a boolean: %q", v)}
		}
	}
	return monitor.Request{From: from, To: to, Details: details}, nil
}

func (e *endpoints) writeReport(rw http.ResponseWriter, format string, analysis monitor.Analysis) {
	var (
		body        string
		err         error
		contentType = jsonContentType
	)
	switch format {
	case "", "json":
		body, err = output.RenderJSON(analysis.Report)
	case "series":
		body, err = output.RenderSeriesJSON(analysis.Report)
	case "csv":
		body, err = output.RenderCSV(analysis.Report)
		contentType = csvContentType
	default:
		e.writeError(rw, badRequest{fmt.Errorf("format must be one of json, csv, series: %q", format)})
		return
	}
	if err != nil {
		e.writeError(rw, err)
		return
	}
	rw.Header().Set(contentTypeHeader, contentType)
	e.write(rw, body)
}

func (e *endpoints) writeError(rw http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	var (
		insufficient *model.InsufficientDataError
		invalid      *model.ConfigurationError
		bad          badRequest
	)
	switch {
	case errors.As(err, &insufficient):
		status = http.StatusUnprocessableEntity
	case errors.As(err, &bad), errors.As(err, &invalid):
		status = http.StatusBadRequest
	default:
		e.logger.Error("request failed", zap.Error(err))
	}

	body, _ := json.Marshal(map[string]string{"error": err.Error()})
	rw.Header().Set(contentTypeHeader, jsonContentType)
	rw.WriteHeader(status)
	e.write(rw, string(body))
}

func (e *endpoints) write(rw http.ResponseWriter, body string) {
	if _, err := rw.Write([]byte(body)); err != nil {
		e.logger.Warn("can't write response", zap.Error(err))
	}
}
