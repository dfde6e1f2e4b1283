package rest

import (
	"context"
	"net/http"

	"github.com/evergreen-ci/gimlet"
	"github.com/pkg/errors"
	"github.com/rs/cors"
	tracerouter "github.com/tracetools/trace-router"
)

// TraceFinder is the slice of the allure client the service consumes:
// one lookup that resolves a (project, suite, test) triple to the
// absolute URL of its trace archive.
type TraceFinder interface {
	FindTraceURL(ctx context.Context, project, suite, test string) (string, error)
}

// Service is the trace router's HTTP application.
type Service struct {
	Conf   *tracerouter.Config
	Finder TraceFinder

	// internal settings
	app *gimlet.APIApp
}

// Validate checks the service's dependencies and assembles the
// underlying application, including its routes and middleware.
func (s *Service) Validate() error {
	if s.Conf == nil {
		return errors.New("must specify a configuration")
	}
	if s.Finder == nil {
		return errors.New("must specify a trace finder")
	}

	if s.app == nil {
		s.app = gimlet.NewApp()
		// the routing surface is unversioned, lookups hang directly
		// off the root
		s.app.NoVersions = true
	}

	if err := s.app.SetPort(s.Conf.RouterPort); err != nil {
		return errors.WithStack(err)
	}
	if s.Conf.RouterHost != "" {
		if err := s.app.SetHost(s.Conf.RouterHost); err != nil {
			return errors.WithStack(err)
		}
	}

	s.addMiddleware()
	s.addRoutes()

	return nil
}

// Start runs the service until the context is canceled or serving
// fails.
func (s *Service) Start(ctx context.Context) error {
	if s.app == nil || s.Conf == nil {
		return errors.New("application is not valid")
	}

	if err := s.app.Resolve(); err != nil {
		return errors.Wrap(err, "resolving routes")
	}

	return s.app.Run(ctx)
}

// Handler resolves the application and returns its http.Handler.
func (s *Service) Handler() (http.Handler, error) {
	if s.app == nil {
		return nil, errors.New("application is not valid")
	}

	return s.app.Handler()
}

func (s *Service) addMiddleware() {
	s.app.AddMiddleware(gimlet.MakeRecoveryLogger())
	s.app.AddMiddleware(gimlet.NewAppLogger())
	s.app.AddMiddleware(cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet},
	}))
}

func (s *Service) addRoutes() {
	s.app.AddRoute("/").Get().Handler(s.serviceInfo)
	s.app.AddRoute("/health").Get().Handler(s.healthCheck)
	s.app.AddRoute("/api/attachment-url/{project_id}/{suite_name}/{test_name}").Get().RouteHandler(makeGetAttachmentURL(s.Conf, s.Finder))
	s.app.AddRoute("/{project_id}/{suite_name}/{test_name}").Get().Handler(s.routeToTrace)
}
