package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/jgoulah/bandwidthscraper/internal/chart"
	"github.com/jgoulah/bandwidthscraper/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseGranularity(t *testing.T) {
	for _, tt := range []struct {
		in      string
		want    models.Granularity
		wantErr bool
	}{
		{in: "hourly", want: models.Hourly},
		{in: "daily", want: models.Daily},
		{in: "weekly", wantErr: true},
		{in: "", wantErr: true},
	} {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseGranularity(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRenderCommand(t *testing.T) {
	dir := t.TempDir()
	payload := filepath.Join(dir, "daily.json")
	require.NoError(t, os.WriteFile(payload, []byte(`{"data":[
		{"day":"2024-01-04","o":"1500","i":"120"},
		{"day":"2024-01-05","o":"","i":"180"}
	],"goals":5000}`), 0644))

	out := filepath.Join(dir, "charts")
	var stdout bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetArgs([]string{"render", "daily", payload, "--out", out, "--db", ""})
	t.Cleanup(func() { rootCmd.SetArgs(nil); rootCmd.SetOut(nil) })

	require.NoError(t, rootCmd.ExecuteContext(context.Background()))

	info, err := os.Stat(filepath.Join(out, chart.DailyFile))
	require.NoError(t, err)
	assert.Positive(t, info.Size())
	assert.Contains(t, stdout.String(), "2 samples")
}

func TestInitCommandRefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	t.Cleanup(func() { rootCmd.SetArgs(nil); rootCmd.SetOut(nil) })
	rootCmd.SetOut(&bytes.Buffer{})

	rootCmd.SetArgs([]string{"init", "--config", path})
	require.NoError(t, rootCmd.ExecuteContext(context.Background()))
	_, err := os.Stat(path)
	require.NoError(t, err)

	rootCmd.SetArgs([]string{"init", "--config", path})
	assert.Error(t, rootCmd.ExecuteContext(context.Background()))
}
