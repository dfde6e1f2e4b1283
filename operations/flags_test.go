package operations

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/urfave/cli"
)

func TestServiceFlags(t *testing.T) {
	assert := assert.New(t)

	flags := mergeFlags(serviceFlags(), allureFlags(), viewerFlags())
	flagMap := map[string]cli.Flag{}
	for _, f := range flags {
		// aliased flags report a joined name, index by the first
		name := strings.Split(f.GetName(), ", ")[0]
		flagMap[name] = f
	}

	expected := []string{
		allureFlagName,
		timeoutFlagName,
		attachmentFlagName,
		domainFlagName,
		viewerHostFlagName,
		viewerPortFlagName,
		serviceHostFlagName,
		servicePortFlagName,
	}
	for _, n := range expected {
		_, ok := flagMap[n]
		assert.True(ok, n)
	}
	assert.Len(flags, len(expected))
}

func TestRequireStringFlag(t *testing.T) {
	assert := assert.New(t)

	app := cli.NewApp()
	app.Flags = allureFlags()
	app.Before = requireStringFlag(allureFlagName)
	app.Action = func(c *cli.Context) error { return nil }

	assert.Error(app.Run([]string{"trace-router"}))
	assert.NoError(app.Run([]string{"trace-router", "--allure", "http://allure.test"}))
}
