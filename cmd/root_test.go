package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigPath(t *testing.T) {
	t.Cleanup(func() { configFile = "" })

	t.Setenv("CONFIG_FILE", "/etc/edulearn/env.yaml")
	assert.Equal(t, "/etc/edulearn/env.yaml", configPath())

	require.NoError(t, rootCmd.PersistentFlags().Set("config", "/tmp/flag.yaml"))
	assert.Equal(t, "/tmp/flag.yaml", configPath())

	for _, sub := range []string{"serve", "migrate", "seed", "export"} {
		c, _, err := rootCmd.Find([]string{sub})
		require.NoError(t, err)
		assert.NotNil(t, c.InheritedFlags().Lookup("config"), sub)
	}
}
