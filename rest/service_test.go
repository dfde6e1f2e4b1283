package rest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tracerouter "github.com/tracetools/trace-router"
)

func TestServiceValidate(t *testing.T) {
	conf := &tracerouter.Config{AllureServer: "http://allure.test"}
	require.NoError(t, conf.Validate())

	t.Run("RequiresConfiguration", func(t *testing.T) {
		s := &Service{Finder: &mockFinder{}}
		assert.Error(t, s.Validate())
	})
	t.Run("RequiresFinder", func(t *testing.T) {
		s := &Service{Conf: conf}
		assert.Error(t, s.Validate())
	})
	t.Run("AssemblesApp", func(t *testing.T) {
		s := &Service{Conf: conf, Finder: &mockFinder{}}
		require.NoError(t, s.Validate())

		handler, err := s.Handler()
		assert.NoError(t, err)
		assert.NotNil(t, handler)
	})
	t.Run("HandlerRequiresValidation", func(t *testing.T) {
		s := &Service{}
		_, err := s.Handler()
		assert.Error(t, err)
	})
}
