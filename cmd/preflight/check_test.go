package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/preflight/internal/checker"
	"github.com/jonathan/preflight/internal/config"
	"github.com/jonathan/preflight/internal/content"
	"github.com/jonathan/preflight/internal/types"
)

func jsonSink(t *testing.T, out *bytes.Buffer) checker.ResultSink {
	t.Helper()
	sink, err := eventSink("json", out)
	require.NoError(t, err)
	return sink
}

func readEvents(t *testing.T, out *bytes.Buffer) []types.Event {
	t.Helper()
	var events []types.Event
	scanner := bufio.NewScanner(out)
	for scanner.Scan() {
		var e types.Event
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &e), scanner.Text())
		events = append(events, e)
	}
	return events
}

func TestCheckDocument_Fails(t *testing.T) {
	a := newTestApp(t)
	var out bytes.Buffer

	err := checkDocument(context.Background(), a, 1, "en-US", false, jsonSink(t, &out))
	require.ErrorIs(t, err, errChecksFailed)

	events := readEvents(t, &out)
	require.Len(t, events, 2)
	assert.Equal(t, types.EventFieldResult, events[0].Kind)
	require.NotNil(t, events[0].Result)
	assert.Equal(t, "Title", events[0].Result.Label)
	assert.True(t, events[0].Result.Failed)
	assert.Equal(t, types.EventComplete, events[1].Kind)
	assert.True(t, events[1].Failed)
}

func TestCheckDocument_Passes(t *testing.T) {
	a := newTestApp(t)
	var out bytes.Buffer

	require.NoError(t, checkDocument(context.Background(), a, 2, "default", false, jsonSink(t, &out)))

	events := readEvents(t, &out)
	require.NotEmpty(t, events)
	last := events[len(events)-1]
	assert.Equal(t, types.EventComplete, last.Kind)
	assert.Equal(t, "en-US", last.Culture)
	assert.False(t, last.Failed)
}

func TestCheckDocument_NotFound(t *testing.T) {
	a := newTestApp(t)
	var out bytes.Buffer

	err := checkDocument(context.Background(), a, 99, "en-US", false, jsonSink(t, &out))
	require.ErrorIs(t, err, content.ErrDocumentNotFound)

	events := readEvents(t, &out)
	require.Len(t, events, 1)
	assert.Equal(t, types.EventComplete, events[0].Kind)
}

func TestCheckDocument_MissingSettings(t *testing.T) {
	a := newTestApp(t, func(c *config.Config) {
		off := false
		c.FallbackOnCheck = &off
	})
	var out bytes.Buffer

	err := checkDocument(context.Background(), a, 1, "fr-FR", false, jsonSink(t, &out))
	require.ErrorIs(t, err, errChecksFailed)
	assert.Contains(t, err.Error(), "No settings exist for French")
}

func TestCheckDocument_Fallback(t *testing.T) {
	a := newTestApp(t)
	var out bytes.Buffer

	// the title has no fr-FR value, so it is retracted instead of checked
	err := checkDocument(context.Background(), a, 2, "fr-FR", false, jsonSink(t, &out))
	require.NoError(t, err)

	events := readEvents(t, &out)
	require.Len(t, events, 2)
	assert.Equal(t, types.EventRemove, events[0].Kind)
	assert.Equal(t, "fr-FR", events[1].Culture)
}

func TestRootCommand_InvalidDocumentID(t *testing.T) {
	rootCmd.SetArgs([]string{"check", "abc"})
	t.Cleanup(func() { rootCmd.SetArgs(nil) })

	err := rootCmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid document id")
}

func TestCheckDocument_TextReport(t *testing.T) {
	a := newTestApp(t)
	var out bytes.Buffer
	sink, err := eventSink("text", &out)
	require.NoError(t, err)

	err = checkDocument(context.Background(), a, 1, "en-US", false, sink)
	require.ErrorIs(t, err, errChecksFailed)
	assert.Contains(t, out.String(), "FIELD: Title")
	assert.Contains(t, out.String(), "Banned words")
	assert.Contains(t, out.String(), "RUN COMPLETE")
}

func TestEventSink_UnknownFormat(t *testing.T) {
	_, err := eventSink("xml", &bytes.Buffer{})
	assert.Error(t, err)
}
