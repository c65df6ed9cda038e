package capture_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Spok95/classroom-attendance/internal/capture"
	"github.com/Spok95/classroom-attendance/internal/capture/capturetest"
	"github.com/Spok95/classroom-attendance/internal/clock"
	"github.com/Spok95/classroom-attendance/internal/ledger"
)

var day = time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)

func at(h, m, s int) time.Time {
	return day.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute + time.Duration(s)*time.Second)
}

func newSession(clk clock.Clock, src capture.FrameSource, rec capture.Recognizer, l *ledger.Ledger) *capture.Session {
	return &capture.Session{
		Source:     src,
		Recognizer: rec,
		Ledger:     l,
		Clock:      clk,
		Interval:   time.Second,
	}
}

func TestSessionRecordsOncePerPeriod(t *testing.T) {
	clk := clock.NewFake(at(9, 10, 0))
	src := &capturetest.Source{Limit: 3}
	rec := &capturetest.Recognizer{Script: [][]string{{"alice"}}}
	l := ledger.New()

	res, err := newSession(clk, src, rec, l).Run(context.Background(), "1", at(9, 50, 0))
	require.NoError(t, err)

	assert.Equal(t, capture.OutcomeNoFrame, res.Outcome)
	assert.Equal(t, 3, res.Frames)
	assert.Equal(t, 2, res.Duplicates)
	assert.Equal(t, []string{"alice"}, res.NewRecords)
	assert.NotEmpty(t, res.SessionID)

	snap := l.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, "alice", snap[0].Identity)
	assert.Equal(t, "2026-10-19", snap[0].Date)
	assert.Equal(t, "1", snap[0].PeriodID)
	assert.Equal(t, "09:10:00", snap[0].Time())
}

func TestSessionEndsWhenPeriodElapses(t *testing.T) {
	clk := clock.NewFake(at(9, 49, 57))
	src := &capturetest.Source{}
	rec := &capturetest.Recognizer{}

	res, err := newSession(clk, src, rec, ledger.New()).Run(context.Background(), "1", at(9, 50, 0))
	require.NoError(t, err)

	assert.Equal(t, capture.OutcomeElapsed, res.Outcome)
	// 09:49:57, :58, :59, 09:50:00: конец включительно.
	assert.Equal(t, 4, src.Reads())
	assert.Equal(t, at(9, 50, 1), clk.Now())
}

func TestSessionFractionalSecondAtEndStillInside(t *testing.T) {
	clk := clock.NewFake(at(9, 50, 0).Add(500 * time.Millisecond))
	src := &capturetest.Source{}

	res, err := newSession(clk, src, &capturetest.Recognizer{}, ledger.New()).Run(context.Background(), "1", at(9, 50, 0))
	require.NoError(t, err)
	assert.Equal(t, capture.OutcomeElapsed, res.Outcome)
	assert.Equal(t, 1, src.Reads())
}

func TestSessionStopsCooperatively(t *testing.T) {
	clk := clock.NewFake(at(9, 10, 0))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Остановка приходит посреди второго цикла: кадр всё равно распознаётся и записывается.
	src := &capturetest.Source{OnRead: func(seq int) {
		if seq == 2 {
			cancel()
		}
	}}
	rec := &capturetest.Recognizer{Script: [][]string{{"alice"}, {"bob"}}}
	l := ledger.New()

	res, err := newSession(clk, src, rec, l).Run(ctx, "1", at(9, 50, 0))
	require.NoError(t, err)

	assert.Equal(t, capture.OutcomeStopped, res.Outcome)
	assert.Equal(t, 2, src.Reads())
	assert.Equal(t, []string{"alice", "bob"}, res.NewRecords)
	assert.Equal(t, 2, l.Len())
}

func TestSessionRecognizerErrorIsReturned(t *testing.T) {
	clk := clock.NewFake(at(9, 10, 0))
	boom := errors.New("recognizer down")
	rec := &capturetest.Recognizer{Err: boom}

	_, err := newSession(clk, &capturetest.Source{}, rec, ledger.New()).Run(context.Background(), "1", at(9, 50, 0))
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}

func TestSessionSkipsBlankIdentitiesAndAmbiguity(t *testing.T) {
	clk := clock.NewFake(at(9, 10, 0))
	src := &capturetest.Source{Limit: 3}
	rec := &capturetest.Recognizer{Script: [][]string{{}, {" ", ""}, {" carol "}}}
	l := ledger.New()

	res, err := newSession(clk, src, rec, l).Run(context.Background(), "2", at(9, 50, 0))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Recognized)
	require.Equal(t, 1, l.Len())
	assert.Equal(t, "carol", l.Snapshot()[0].Identity)
}

func TestSessionSkipsUnknownLabel(t *testing.T) {
	clk := clock.NewFake(at(9, 10, 0))
	src := &capturetest.Source{Limit: 2}
	rec := &capturetest.Recognizer{Script: [][]string{{"Unknown", "alice"}, {"unknown"}}}
	l := ledger.New()

	res, err := newSession(clk, src, rec, l).Run(context.Background(), "1", at(9, 50, 0))
	require.NoError(t, err)
	assert.Equal(t, 2, res.Unknown)
	assert.Equal(t, []string{"alice"}, res.NewRecords)
	require.Equal(t, 1, l.Len())
	assert.Equal(t, "alice", l.Snapshot()[0].Identity)

	s := newSession(clk, &capturetest.Source{Limit: 1}, &capturetest.Recognizer{Script: [][]string{{"stranger", "bob"}}}, ledger.New())
	s.UnknownLabel = "stranger"
	res, err = s.Run(context.Background(), "1", at(9, 50, 0))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Unknown)
	assert.Equal(t, []string{"bob"}, res.NewRecords)
}

type failingSource struct{}

func (failingSource) Read(context.Context) (capture.Frame, error) {
	return capture.Frame{}, errors.New("device busy")
}

func (failingSource) Close() error { return nil }

func TestSessionWrapsSourceErrorsAsNoFrame(t *testing.T) {
	clk := clock.NewFake(at(9, 10, 0))
	res, err := newSession(clk, &failingSource{}, &capturetest.Recognizer{}, ledger.New()).Run(context.Background(), "1", at(9, 50, 0))
	require.NoError(t, err)
	assert.Equal(t, capture.OutcomeNoFrame, res.Outcome)
	assert.ErrorIs(t, res.FrameErr, capture.ErrNoFrame)
}
