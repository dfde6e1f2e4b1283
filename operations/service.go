package operations

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/mongodb/grip"
	"github.com/pkg/errors"
	tracerouter "github.com/tracetools/trace-router"
	"github.com/tracetools/trace-router/allure"
	"github.com/tracetools/trace-router/rest"
	"github.com/urfave/cli"
)

// Service returns the trace-router service sub-command object, which
// is responsible for starting the resolver service.
func Service() cli.Command {
	return cli.Command{
		Name:   "service",
		Usage:  "run the trace router api service",
		Flags:  mergeFlags(serviceFlags(), allureFlags(), viewerFlags()),
		Before: requireStringFlag(allureFlagName),
		Action: func(c *cli.Context) error {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			conf := &tracerouter.Config{
				AllureServer:   c.String(allureFlagName),
				RoutingDomain:  c.String(domainFlagName),
				ViewerHost:     c.String(viewerHostFlagName),
				ViewerPort:     c.Int(viewerPortFlagName),
				RouterHost:     c.String(serviceHostFlagName),
				RouterPort:     c.Int(servicePortFlagName),
				RequestTimeout: c.Duration(timeoutFlagName),
				AttachmentName: c.String(attachmentFlagName),
			}
			if err := conf.Validate(); err != nil {
				return errors.Wrap(err, "invalid configuration")
			}

			client := allure.NewClient(conf.AllureServer, conf.RequestTimeout, conf.AttachmentName)
			defer client.Close()

			service := &rest.Service{
				Conf:   conf,
				Finder: client,
			}
			if err := service.Validate(); err != nil {
				return errors.Wrap(err, "problem validating service")
			}

			go signalListener(ctx, cancel)

			grip.Noticef("starting trace router service on %s:%d", conf.RouterHost, conf.RouterPort)
			if err := service.Start(ctx); err != nil {
				return errors.Wrap(err, "problem running rest service")
			}
			grip.Info("completed service, terminating.")

			return nil
		},
	}
}

func signalListener(ctx context.Context, trigger context.CancelFunc) {
	defer trigger()

	sigChan := make(chan os.Signal, 2)
	signal.Notify(sigChan, syscall.SIGTERM, os.Interrupt)

	select {
	case <-ctx.Done():
	case <-sigChan:
		grip.Debug("received signal")
	}
}
