package rest

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"

	"github.com/evergreen-ci/gimlet"
	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
	"github.com/pkg/errors"
	tracerouter "github.com/tracetools/trace-router"
	"github.com/tracetools/trace-router/allure"
)

////////////////////////////////////////////////////////////////////////
//
// GET /

type ServiceInfoResponse struct {
	Service   string            `json:"service"`
	Version   string            `json:"version"`
	Usage     string            `json:"usage"`
	Example   string            `json:"example"`
	Endpoints map[string]string `json:"endpoints"`
}

// serviceInfo processes the GET request for the service metadata and
// usage text.
func (s *Service) serviceInfo(w http.ResponseWriter, r *http.Request) {
	base := fmt.Sprintf("http://%s:%d", s.Conf.RouterHost, s.Conf.RouterPort)

	gimlet.WriteJSON(w, &ServiceInfoResponse{
		Service: "Playwright Trace Viewer Router",
		Version: tracerouter.BuildVersion,
		Usage:   base + "/{project_id}/{suite_name}/{test_name}",
		Example: base + "/2511040101/TestSuitePaginationScansList/test_scans_list_artifact_pagination",
		Endpoints: map[string]string{
			"health":             "/health",
			"route_to_trace":     "/{project_id}/{suite_name}/{test_name}",
			"get_attachment_url": "/api/attachment-url/{project_id}/{suite_name}/{test_name}",
		},
	})
}

////////////////////////////////////////////////////////////////////////
//
// GET /health

type HealthResponse struct {
	Status string `json:"status"`
}

func (s *Service) healthCheck(w http.ResponseWriter, r *http.Request) {
	gimlet.WriteJSON(w, &HealthResponse{Status: "ok"})
}

////////////////////////////////////////////////////////////////////////
//
// Lookup parsing shared by the redirect and attachment-url routes.

type lookupRequest struct {
	project string
	suite   string
	test    string
}

func parseLookupVars(r *http.Request) (lookupRequest, error) {
	vars := gimlet.GetVars(r)
	req := lookupRequest{
		project: strings.TrimSpace(vars["project_id"]),
		suite:   strings.TrimSpace(vars["suite_name"]),
		test:    strings.TrimSpace(vars["test_name"]),
	}

	catcher := grip.NewBasicCatcher()
	if req.project == "" {
		catcher.Add(errors.New("project_id must not be empty"))
	}
	if req.suite == "" {
		catcher.Add(errors.New("suite_name must not be empty"))
	}
	if req.test == "" {
		catcher.Add(errors.New("test_name must not be empty"))
	}

	return req, catcher.Resolve()
}

func (req lookupRequest) triple() string {
	return fmt.Sprintf("%s/%s/%s", req.project, req.suite, req.test)
}

// upstreamErrorResponder maps a failed lookup to the HTTP response the
// caller sees: 404 for the two not-found legs, 504 for an upstream
// timeout, 502 for an unreachable upstream, and 500 for anything else,
// which covers unparseable upstream payloads.
func upstreamErrorResponder(err error, req lookupRequest) gimlet.Responder {
	cause := errors.Cause(err)

	switch cause {
	case allure.ErrTestNotFound:
		return gimlet.MakeJSONErrorResponder(gimlet.ErrorResponse{
			StatusCode: http.StatusNotFound,
			Message:    fmt.Sprintf("no test found for '%s'", req.triple()),
		})
	case allure.ErrNoTraceAttachment:
		return gimlet.MakeJSONErrorResponder(gimlet.ErrorResponse{
			StatusCode: http.StatusNotFound,
			Message:    fmt.Sprintf("test '%s' found, but it has no trace attachment", req.triple()),
		})
	}

	grip.Error(message.WrapError(err, message.Fields{
		"message": "allure lookup failed",
		"project": req.project,
		"suite":   req.suite,
		"test":    req.test,
	}))

	if netErr, ok := cause.(net.Error); ok && netErr.Timeout() {
		return gimlet.MakeJSONErrorResponder(gimlet.ErrorResponse{
			StatusCode: http.StatusGatewayTimeout,
			Message:    fmt.Sprintf("timed out querying the allure server for '%s'", req.triple()),
		})
	}
	if _, ok := cause.(*url.Error); ok {
		return gimlet.MakeJSONErrorResponder(gimlet.ErrorResponse{
			StatusCode: http.StatusBadGateway,
			Message:    fmt.Sprintf("allure server unreachable while resolving '%s'", req.triple()),
		})
	}

	return gimlet.MakeJSONInternalErrorResponder(err)
}

////////////////////////////////////////////////////////////////////////
//
// GET /{project_id}/{suite_name}/{test_name}

// routeToTrace resolves the requested test's trace archive and
// redirects the client to the trace viewer.
func (s *Service) routeToTrace(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, err := parseLookupVars(r)
	if err != nil {
		gimlet.WriteResponse(w, gimlet.MakeJSONErrorResponder(gimlet.ErrorResponse{
			StatusCode: http.StatusBadRequest,
			Message:    err.Error(),
		}))
		return
	}

	traceURL, err := s.Finder.FindTraceURL(ctx, req.project, req.suite, req.test)
	if err != nil {
		gimlet.WriteResponse(w, upstreamErrorResponder(err, req))
		return
	}

	target := s.Conf.RedirectTarget(traceURL)
	grip.Info(message.Fields{
		"message": "redirecting to trace viewer",
		"project": req.project,
		"suite":   req.suite,
		"test":    req.test,
		"target":  target,
	})

	http.Redirect(w, r, target, http.StatusTemporaryRedirect)
}

///////////////////////////////////////////////////////////////////////////////
//
// GET /api/attachment-url/{project_id}/{suite_name}/{test_name}

type AttachmentURLResponse struct {
	ProjectID      string `json:"project_id"`
	SuiteName      string `json:"suite_name"`
	TestName       string `json:"test_name"`
	AttachmentURL  string `json:"attachment_url"`
	TraceViewerURL string `json:"trace_viewer_url"`
}

type attachmentURLHandler struct {
	conf   *tracerouter.Config
	finder TraceFinder
	req    lookupRequest
}

func makeGetAttachmentURL(conf *tracerouter.Config, finder TraceFinder) gimlet.RouteHandler {
	return &attachmentURLHandler{
		conf:   conf,
		finder: finder,
	}
}

// Factory returns a pointer to a new attachmentURLHandler.
func (h *attachmentURLHandler) Factory() gimlet.RouteHandler {
	return &attachmentURLHandler{
		conf:   h.conf,
		finder: h.finder,
	}
}

// Parse fetches the lookup triple from the request path.
func (h *attachmentURLHandler) Parse(_ context.Context, r *http.Request) error {
	var err error
	h.req, err = parseLookupVars(r)
	return err
}

// Run resolves the trace attachment and returns its URL without
// redirecting.
func (h *attachmentURLHandler) Run(ctx context.Context) gimlet.Responder {
	traceURL, err := h.finder.FindTraceURL(ctx, h.req.project, h.req.suite, h.req.test)
	if err != nil {
		return upstreamErrorResponder(err, h.req)
	}

	return gimlet.NewJSONResponse(&AttachmentURLResponse{
		ProjectID:      h.req.project,
		SuiteName:      h.req.suite,
		TestName:       h.req.test,
		AttachmentURL:  traceURL,
		TraceViewerURL: h.conf.RedirectTarget(traceURL),
	})
}
