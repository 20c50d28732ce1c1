package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jdpanel/pkg/model"
)

func TestRunAttempts(t *testing.T) {
	errA := errors.New("a failed")
	errB := errors.New("b failed")
	always := func(error) bool { return true }
	never := func(error) bool { return false }

	tests := []struct {
		name     string
		attempts func(ran *[]string) []attempt
		wantName string
		wantErr  error
		wantRan  []string
	}{
		{
			name: "first success stops",
			attempts: func(ran *[]string) []attempt {
				return []attempt{
					{name: "a", run: track(ran, "a", nil), fallbackOn: always},
					{name: "b", run: track(ran, "b", nil)},
				}
			},
			wantName: "a",
			wantRan:  []string{"a"},
		},
		{
			name: "fallback allowed",
			attempts: func(ran *[]string) []attempt {
				return []attempt{
					{name: "a", run: track(ran, "a", errA), fallbackOn: always},
					{name: "b", run: track(ran, "b", nil)},
				}
			},
			wantName: "b",
			wantRan:  []string{"a", "b"},
		},
		{
			name: "fallback refused",
			attempts: func(ran *[]string) []attempt {
				return []attempt{
					{name: "a", run: track(ran, "a", errA), fallbackOn: never},
					{name: "b", run: track(ran, "b", nil)},
				}
			},
			wantName: "a",
			wantErr:  errA,
			wantRan:  []string{"a"},
		},
		{
			name: "nil fallbackOn is terminal",
			attempts: func(ran *[]string) []attempt {
				return []attempt{
					{name: "a", run: track(ran, "a", errA)},
					{name: "b", run: track(ran, "b", nil)},
				}
			},
			wantName: "a",
			wantErr:  errA,
			wantRan:  []string{"a"},
		},
		{
			name: "last failure wins",
			attempts: func(ran *[]string) []attempt {
				return []attempt{
					{name: "a", run: track(ran, "a", errA), fallbackOn: always},
					{name: "b", run: track(ran, "b", errB), fallbackOn: always},
				}
			},
			wantName: "b",
			wantErr:  errB,
			wantRan:  []string{"a", "b"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ran []string
			var failures int
			name, err := runAttempts(context.Background(), tt.attempts(&ran), func(string, error) { failures++ })

			assert.Equal(t, tt.wantName, name)
			assert.ErrorIs(t, err, tt.wantErr)
			if tt.wantErr == nil {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.wantRan, ran)
			assert.Equal(t, len(tt.wantRan)-boolToInt(tt.wantErr == nil), failures)
		})
	}
}

func track(ran *[]string, name string, err error) func(context.Context) error {
	return func(context.Context) error {
		*ran = append(*ran, name)
		return err
	}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func TestApplyPatch_DoesNotMutateInput(t *testing.T) {
	start := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	in := []model.Booking{
		booking("1", "a", start, model.BookingConfirmed),
		booking("2", "b", start, model.BookingPending),
	}

	out := applyPatch(in, bookingPatch{id: "2", status: model.BookingCanceled})

	assert.Equal(t, model.BookingPending, in[1].Status)
	assert.Equal(t, model.BookingCanceled, out[1].Status)
	assert.Equal(t, "rose", out[1].StatusColor)
	assert.Equal(t, model.BookingConfirmed, out[0].Status)
}

func TestFilterBookings(t *testing.T) {
	b2024 := booking("1", "a", time.Date(2024, 12, 31, 12, 0, 0, 0, time.UTC), model.BookingConfirmed)
	b2024.ClientName = "Carlos Mendes"
	b2025 := booking("2", "b", time.Date(2025, 1, 1, 2, 0, 0, 0, time.UTC), model.BookingConfirmed) // still 2024 locally
	b2025.ClientName = "Ana Lima"
	b2025.ServiceTitle = "Avaliação"
	b2026 := booking("3", "c", time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC), model.BookingConfirmed)
	all := []model.Booking{b2026, b2025, b2024}

	ids := func(bs []model.Booking) []string {
		out := make([]string, 0, len(bs))
		for _, b := range bs {
			out = append(out, b.ID.String())
		}
		return out
	}

	assert.Equal(t, []string{"3", "2", "1"}, ids(filterBookings(all, model.BookingFilter{}, saoPaulo)))
	assert.Equal(t, []string{"1"}, ids(filterBookings(all, model.BookingFilter{Query: "carlos"}, saoPaulo)))
	assert.Equal(t, []string{"2"}, ids(filterBookings(all, model.BookingFilter{Query: "AVALIA"}, saoPaulo)))
	assert.Equal(t, []string{"2", "1"}, ids(filterBookings(all, model.BookingFilter{Year: 2024}, saoPaulo)))
	assert.Empty(t, filterBookings(all, model.BookingFilter{Query: "zzz"}, saoPaulo))

	assert.Equal(t, []int{2026, 2024}, availableYears(all, saoPaulo))
}

func TestInflightGuard(t *testing.T) {
	g := newInflightGuard()

	release, ok := g.acquire("t:cancel:1")
	require.True(t, ok)

	_, ok = g.acquire("t:cancel:1")
	assert.False(t, ok)

	other, ok := g.acquire("t:cancel:2")
	require.True(t, ok)
	other()

	release()
	release2, ok := g.acquire("t:cancel:1")
	assert.True(t, ok)
	release2()
}
