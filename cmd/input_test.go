package cmd

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/s0up4200/marquee/api"
	"github.com/s0up4200/marquee/config"
)

func TestPageFlags(t *testing.T) {
	p := pageFlags{page: 3, size: 5}
	got, err := p.pagination()
	require.NoError(t, err)
	assert.Equal(t, api.Pagination{Page: 2, Size: 5}, got, "pages are one-based on the command line")

	_, err = (&pageFlags{page: 0}).pagination()
	assert.Error(t, err)

	_, err = (&pageFlags{page: 1, size: -1}).pagination()
	assert.Error(t, err)

	sort, err := (&pageFlags{sort: []string{"-runtime", "+title"}}).sortKeys()
	require.NoError(t, err)
	assert.Equal(t, api.Sort{{Field: "runtime", Direction: api.Desc}, {Field: "title", Direction: api.Asc}}, sort)
}

func TestPatchFlags(t *testing.T) {
	p := patchFlags{set: []string{"runtime=117", "title=Alien"}, unset: []string{"tagline", " "}}
	ops, err := p.operations()
	require.NoError(t, err)
	require.Len(t, ops, 3)

	assert.Equal(t, api.Replace("runtime", float64(117)), ops[0])
	assert.Equal(t, api.Replace("title", "Alien"), ops[1])
	assert.Equal(t, api.Remove("tagline"), ops[2])

	_, err = (&patchFlags{}).operations()
	assert.Error(t, err)

	ops, err = (&patchFlags{file: "film.json"}).operations()
	require.NoError(t, err, "a merge document is enough on its own")
	assert.Empty(t, ops)

	_, err = (&patchFlags{set: []string{"novalue"}}).operations()
	assert.ErrorIs(t, err, api.ErrInvalid)
}

func TestConfirm(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"y\n", true},
		{"YES\n", true},
		{"n\n", false},
		{"\n", false},
		{"", false},
		{"y", true},
	}

	for _, tt := range tests {
		a := &app{stdin: strings.NewReader(tt.input)}
		var out bytes.Buffer
		assert.Equal(t, tt.want, a.confirm(&out, "Sure?"), "input %q", tt.input)
		assert.Contains(t, out.String(), "Sure? [y/N]: ")
	}
}

func TestReadPasswordFromPipe(t *testing.T) {
	a := &app{stdin: strings.NewReader("s3cret\r\nrest\n")}
	password, err := a.readPassword(t.Context(), &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, "s3cret", password)

	a = &app{stdin: strings.NewReader("")}
	_, err = a.readPassword(t.Context(), &bytes.Buffer{})
	assert.Error(t, err)
}

func TestIsNewer(t *testing.T) {
	newer, err := isNewer("v1.2.0", "1.3.0")
	require.NoError(t, err)
	assert.True(t, newer)

	newer, err = isNewer("1.3.0", "v1.3.0")
	require.NoError(t, err)
	assert.False(t, newer)

	_, err = isNewer("dev", "1.0.0")
	assert.Error(t, err)

	_, err = isNewer("1.0.0", "latest")
	assert.Error(t, err)
}

func TestSetupLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := setupLogger(config.LoggingConfig{Level: "warn", Format: "json"}, &buf)

	logger.Info().Msg("hidden")
	logger.Warn().Msg("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"message":"shown"`)
	assert.Equal(t, zerolog.WarnLevel, logger.GetLevel())

	buf.Reset()
	console := setupLogger(config.LoggingConfig{Level: "debug", Format: "console", Color: true}, &buf)
	console.Debug().Msg("plain")
	assert.Contains(t, buf.String(), "plain")
	assert.NotContains(t, buf.String(), "\x1b[", "a buffer is not a terminal")
}

func TestDescribeError(t *testing.T) {
	unauthorized := &api.APIError{Kind: api.KindUnauthorized, Message: "session expired, log in again"}
	assert.Contains(t, describeError(unauthorized), "run `marquee login` first")

	notFound := &api.APIError{Kind: api.KindNotFound, StatusCode: 404, Method: "GET", Path: "/films/x"}
	assert.Equal(t, "GET /films/x: not found (status 404)", describeError(notFound))

	assert.Equal(t, "boom", describeError(errors.New("boom")))
}
