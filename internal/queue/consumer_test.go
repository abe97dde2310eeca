package queue

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogLine(t *testing.T) {
	ev := Event{
		ID:            "e-1",
		Type:          TableSeated,
		OccurredAt:    time.Date(2030, 1, 9, 18, 5, 0, 0, time.UTC),
		ReservationID: 4,
		Status:        "seated",
		TableID:       2,
		TableName:     "Bar #1",
	}
	assert.Equal(t,
		"[2030-01-09T18:05:00Z] table.seated | id=e-1 | reservation_id=4 | status=seated | table_id=2 | table=\"Bar #1\"\n",
		ev.LogLine())
}

func TestHandleAppendsLines(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	c := NewConsumer("", dir, slog.New(slog.NewTextHandler(io.Discard, nil)))

	require.NoError(t, c.Handle([]byte(`{"id":"a","type":"reservation.created","occurred_at":"2030-01-07T12:00:00Z","reservation_id":1}`)))
	require.NoError(t, c.Handle([]byte(`{"id":"b","type":"table.cleared","occurred_at":"2030-01-07T13:00:00Z","table_id":3,"table_name":"#3"}`)))

	bs, err := os.ReadFile(filepath.Join(dir, "reservations.log"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(bs)), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "reservation.created | id=a | reservation_id=1")
	assert.Contains(t, lines[1], "table.cleared | id=b | table_id=3")
}

func TestHandleRejectsBadMessages(t *testing.T) {
	c := NewConsumer("", t.TempDir(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	assert.Error(t, c.Handle([]byte(`not json`)))
	assert.Error(t, c.Handle([]byte(`{"id":"x"}`)))
}
