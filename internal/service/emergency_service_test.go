package service

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/morpheusmaps/backend/internal/domain"
	"github.com/morpheusmaps/backend/internal/repository/postgres"
)

func TestEmergencyService_Alert(t *testing.T) {
	svc := NewEmergencyService(postgres.NewMockRepository(), newFakeGeocoder(), testClock(), 0, nopLogger())

	alert, err := svc.Alert(context.Background(), AlertRequest{
		Location:  jaipur,
		AccuracyM: 12,
		Message:   "accident",
		SessionID: "s1",
	})
	require.NoError(t, err)

	assert.Equal(t, "MI Road, Jaipur, Rajasthan, India", alert.Address)
	assert.Equal(t, "https://maps.google.com/?q=26.9124,75.7873", alert.MapsLink)
	assert.Equal(t, domain.ActionEmergencyAlert, alert.Log.Action)
	assert.Equal(t, "s1", alert.Log.SessionID)
	assert.Equal(t, "100", alert.Contacts["police"])
	assert.Equal(t, "1912", alert.Contacts["helpline"])

	assert.True(t, strings.HasPrefix(alert.ShareText, "🚨 EMERGENCY LOCATION 🚨\n\n"))
	assert.Contains(t, alert.ShareText, "Coordinates: 26.912400, 75.787300\n")
	assert.Contains(t, alert.ShareText, "Accuracy: ±12m\n")
	assert.Contains(t, alert.ShareText, "Google Maps: https://maps.google.com/?q=26.9124,75.7873\n")
	assert.True(t, strings.HasSuffix(alert.ShareText, "Sent via Morpheus Maps Emergency System"))
}

func TestEmergencyService_AlertReverseFailure(t *testing.T) {
	g := newFakeGeocoder()
	g.err = errBoom
	svc := NewEmergencyService(postgres.NewMockRepository(), g, testClock(), 0, nopLogger())

	alert, err := svc.Alert(context.Background(), AlertRequest{Location: jaipur})
	require.NoError(t, err)
	assert.Equal(t, AddressLookupFailed, alert.Address)
	assert.NotEmpty(t, alert.Log.SessionID)
}

func TestEmergencyService_LogKeepsLastTen(t *testing.T) {
	svc := NewEmergencyService(postgres.NewMockRepository(), nil, testClock(), 10, nopLogger())
	ctx := context.Background()

	for i := 0; i < 12; i++ {
		_, err := svc.Log(ctx, LogRequest{
			Action: domain.ActionCall,
			Data:   map[string]string{"n": fmt.Sprint(i)},
		})
		require.NoError(t, err)
	}

	logs, err := svc.Logs(ctx)
	require.NoError(t, err)
	require.Len(t, logs, 10)
	assert.Equal(t, "2", logs[0].Data["n"])
	assert.Equal(t, "11", logs[9].Data["n"])
}

func TestEmergencyService_LogValidation(t *testing.T) {
	svc := NewEmergencyService(postgres.NewMockRepository(), nil, testClock(), 0, nopLogger())
	ctx := context.Background()

	_, err := svc.Log(ctx, LogRequest{Action: "dance"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = svc.Log(ctx, LogRequest{Action: domain.ActionLocationShare, Location: &domain.Coordinate{Lng: 181}})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	entry, err := svc.Log(ctx, LogRequest{Action: domain.ActionLocationShare, Location: &ajmer})
	require.NoError(t, err)
	assert.Equal(t, &ajmer, entry.Location)
}

func TestShareText_Format(t *testing.T) {
	text := ShareText(ajmer, testNow, 0)
	assert.Equal(t, "🚨 EMERGENCY LOCATION 🚨\n\n"+
		"Coordinates: 26.449900, 74.639900\n"+
		"Time: 2024-03-01 08:30:00\n"+
		"Accuracy: ±0m\n\n"+
		"Google Maps: https://maps.google.com/?q=26.4499,74.6399\n\n"+
		"Sent via Morpheus Maps Emergency System", text)
}
