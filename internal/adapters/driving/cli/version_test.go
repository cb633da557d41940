package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionCmd(t *testing.T) {
	tests := []struct {
		version string
		want    string
	}{
		{version: "dev", want: "archer version dev\n"},
		{version: "v0.4.2", want: "archer version v0.4.2\n"},
	}

	for _, tt := range tests {
		t.Run(tt.version, func(t *testing.T) {
			saved := version
			version = tt.version
			t.Cleanup(func() {
				version = saved
				rootCmd.SetArgs(nil)
			})

			var out bytes.Buffer
			rootCmd.SetOut(&out)
			rootCmd.SetArgs([]string{"version"})

			require.NoError(t, rootCmd.Execute())
			assert.Contains(t, out.String(), tt.want)
		})
	}
}
