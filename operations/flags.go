package operations

import (
	"strings"

	tracerouter "github.com/tracetools/trace-router"
	"github.com/urfave/cli"
)

////////////////////////////////////////////////////////////////////////
//
// Flag Name Constants

const (
	allureFlagName     = "allure"
	timeoutFlagName    = "timeout"
	attachmentFlagName = "attachment"

	domainFlagName     = "domain"
	viewerHostFlagName = "viewerHost"
	viewerPortFlagName = "viewerPort"

	serviceHostFlagName = "host"
	servicePortFlagName = "port"
)

////////////////////////////////////////////////////////////////////////
//
// Utility Functions

func joinFlagNames(ids ...string) string { return strings.Join(ids, ", ") }

func mergeFlags(in ...[]cli.Flag) []cli.Flag {
	out := []cli.Flag{}

	for idx := range in {
		out = append(out, in[idx]...)
	}

	return out
}

////////////////////////////////////////////////////////////////////////
//
// Flag Groups

func serviceFlags(flags ...cli.Flag) []cli.Flag {
	return append(flags,
		cli.StringFlag{
			Name:   serviceHostFlagName,
			Usage:  "address for the router to bind to",
			Value:  "0.0.0.0",
			EnvVar: "TRACE_ROUTER_IP",
		},
		cli.IntFlag{
			Name:   joinFlagNames(servicePortFlagName, "p"),
			Usage:  "specify a port to run the service on",
			Value:  tracerouter.DefaultServicePort,
			EnvVar: "TRACE_ROUTER_PORT",
		})
}

func allureFlags(flags ...cli.Flag) []cli.Flag {
	return append(flags,
		cli.StringFlag{
			Name:   allureFlagName,
			Usage:  "base url of the allure report server",
			EnvVar: "ALLURE_SERVER",
		},
		cli.DurationFlag{
			Name:   timeoutFlagName,
			Usage:  "bound on each outbound allure server request",
			Value:  tracerouter.DefaultRequestTimeout,
			EnvVar: "REQUEST_TIMEOUT",
		},
		cli.StringFlag{
			Name:   attachmentFlagName,
			Usage:  "report name of the playwright trace attachment",
			Value:  tracerouter.DefaultTraceAttachmentName,
			EnvVar: "TRACE_ATTACHMENT_NAME",
		})
}

func viewerFlags(flags ...cli.Flag) []cli.Flag {
	return append(flags,
		cli.StringFlag{
			Name:   domainFlagName,
			Usage:  "public routing domain for viewer urls, overrides the local viewer host and port",
			EnvVar: "ROUTING_DOMAIN",
		},
		cli.StringFlag{
			Name:   viewerHostFlagName,
			Usage:  "host the trace viewer is served on",
			Value:  tracerouter.DefaultViewerHost,
			EnvVar: "TRACE_VIEWER_IP",
		},
		cli.IntFlag{
			Name:   viewerPortFlagName,
			Usage:  "port the trace viewer is served on",
			Value:  tracerouter.DefaultViewerPort,
			EnvVar: "TRACE_VIEWER_PORT",
		})
}
