package services

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/pdfqa/internal/core/domain"
)

func TestSessionManager_OpenClose(t *testing.T) {
	m := NewSessionManager(5, time.Minute, nil)

	a := m.Open()
	b := m.Open()
	require.NotNil(t, a)
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, 2, m.Active())

	m.Close(a)
	assert.Equal(t, 1, m.Active())

	m.Close(a)
	m.Close(nil)
	assert.Equal(t, 1, m.Active(), "double close is a no-op")
}

func TestSessionManager_Admit(t *testing.T) {
	m := NewSessionManager(5, time.Minute, nil)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	s := m.Open()
	for i := 0; i < 5; i++ {
		require.NoError(t, m.Admit(s), "message %d", i+1)
		now = now.Add(time.Second)
	}

	assert.ErrorIs(t, m.Admit(s), domain.ErrRateLimited)

	// Window opened at the first message; 61s later it has elapsed.
	now = time.Date(2024, 1, 1, 12, 1, 1, 0, time.UTC)
	assert.NoError(t, m.Admit(s))
}

func TestSessionManager_AdmitLogsRemainingAllowance(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	m := NewSessionManager(2, time.Minute, logger)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	s := m.Open()
	buf.Reset()
	require.NoError(t, m.Admit(s))
	require.NoError(t, m.Admit(s))
	require.ErrorIs(t, m.Admit(s), domain.ErrRateLimited)

	type record struct {
		Msg       string `json:"msg"`
		Remaining int    `json:"remaining"`
	}
	var got []record
	dec := json.NewDecoder(&buf)
	for dec.More() {
		var r record
		require.NoError(t, dec.Decode(&r))
		got = append(got, r)
	}

	assert.Equal(t, []record{
		{Msg: "message admitted", Remaining: 1},
		{Msg: "message admitted", Remaining: 0},
		{Msg: "message rejected", Remaining: 0},
	}, got)
}

func TestSessionManager_SessionsAreIndependent(t *testing.T) {
	m := NewSessionManager(1, time.Minute, nil)

	a := m.Open()
	b := m.Open()

	require.NoError(t, m.Admit(a))
	assert.ErrorIs(t, m.Admit(a), domain.ErrRateLimited)
	assert.NoError(t, m.Admit(b))
}
