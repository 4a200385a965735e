package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/morpheusmaps/backend/internal/clock"
	"github.com/morpheusmaps/backend/internal/domain"
)

const (
	// DefaultEmergencyLogCapacity is the number of retained emergency log entries
	DefaultEmergencyLogCapacity = 10
	// AddressLookupFailed replaces the address when reverse geocoding fails
	AddressLookupFailed = "Address lookup failed"
)

// AlertRequest is an emergency alert sent from a device
type AlertRequest struct {
	Location  domain.Coordinate `json:"location"`
	AccuracyM float64           `json:"accuracy_m,omitempty"`
	Message   string            `json:"message,omitempty"`
	SessionID string            `json:"session_id,omitempty"`
}

// LogRequest records a call or location share
type LogRequest struct {
	Action    string             `json:"action"`
	Location  *domain.Coordinate `json:"location,omitempty"`
	Data      map[string]string  `json:"data,omitempty"`
	SessionID string             `json:"session_id,omitempty"`
}

// EmergencyService logs emergency actions and builds shareable alerts
type EmergencyService struct {
	repo     DataRepository
	geocoder Geocoder
	clock    clock.Clock
	capacity int
	logger   *zap.Logger
}

// NewEmergencyService creates a new emergency service. A non-positive
// capacity uses DefaultEmergencyLogCapacity.
func NewEmergencyService(repo DataRepository, geocoder Geocoder, clk clock.Clock, capacity int, logger *zap.Logger) *EmergencyService {
	if capacity <= 0 {
		capacity = DefaultEmergencyLogCapacity
	}
	return &EmergencyService{
		repo:     repo,
		geocoder: geocoder,
		clock:    clk,
		capacity: capacity,
		logger:   logger,
	}
}

// Alert logs an emergency alert and returns the share text and contacts
func (s *EmergencyService) Alert(ctx context.Context, req AlertRequest) (domain.EmergencyAlert, error) {
	if !req.Location.Valid() {
		return domain.EmergencyAlert{}, fmt.Errorf("%w: coordinate out of range", domain.ErrInvalidInput)
	}

	now := s.clock.Now()
	address := s.reverse(ctx, req.Location)
	link := MapsLink(req.Location)

	loc := req.Location
	entry := domain.EmergencyLog{
		ID:        uuid.NewString(),
		Action:    domain.ActionEmergencyAlert,
		Location:  &loc,
		Message:   req.Message,
		Data:      map[string]string{"address": address},
		SessionID: sessionOrNew(req.SessionID),
		Timestamp: now,
	}
	if err := s.repo.AppendEmergencyLog(ctx, entry, s.capacity); err != nil {
		return domain.EmergencyAlert{}, fmt.Errorf("service: failed to log emergency alert: %w", err)
	}

	s.logger.Warn("Emergency alert",
		zap.String("session", entry.SessionID),
		zap.Float64("lat", loc.Lat),
		zap.Float64("lng", loc.Lng),
	)

	return domain.EmergencyAlert{
		Log:       entry,
		Address:   address,
		ShareText: ShareText(req.Location, now, req.AccuracyM),
		MapsLink:  link,
		Contacts:  domain.EmergencyContacts,
	}, nil
}

// Log records a call or location-share action
func (s *EmergencyService) Log(ctx context.Context, req LogRequest) (domain.EmergencyLog, error) {
	action := strings.TrimSpace(req.Action)
	switch action {
	case domain.ActionCall, domain.ActionLocationShare:
	default:
		return domain.EmergencyLog{}, fmt.Errorf("%w: action must be %q or %q",
			domain.ErrInvalidInput, domain.ActionCall, domain.ActionLocationShare)
	}
	if req.Location != nil && !req.Location.Valid() {
		return domain.EmergencyLog{}, fmt.Errorf("%w: coordinate out of range", domain.ErrInvalidInput)
	}

	entry := domain.EmergencyLog{
		ID:        uuid.NewString(),
		Action:    action,
		Location:  req.Location,
		Data:      req.Data,
		SessionID: sessionOrNew(req.SessionID),
		Timestamp: s.clock.Now(),
	}
	if err := s.repo.AppendEmergencyLog(ctx, entry, s.capacity); err != nil {
		return domain.EmergencyLog{}, fmt.Errorf("service: failed to log emergency action: %w", err)
	}

	s.logger.Info("Emergency action logged", zap.String("action", action), zap.String("session", entry.SessionID))
	return entry, nil
}

// Logs returns the retained entries, oldest first
func (s *EmergencyService) Logs(ctx context.Context) ([]domain.EmergencyLog, error) {
	logs, err := s.repo.ListEmergencyLogs(ctx)
	if err != nil {
		return nil, fmt.Errorf("service: failed to list emergency logs: %w", err)
	}
	return logs, nil
}

func (s *EmergencyService) reverse(ctx context.Context, c domain.Coordinate) string {
	if s.geocoder == nil {
		return AddressLookupFailed
	}
	address, err := s.geocoder.Reverse(ctx, c)
	if err != nil || address == "" {
		s.logger.Warn("Reverse geocoding failed", zap.Error(err))
		return AddressLookupFailed
	}
	return address
}

// MapsLink returns the Google Maps link for a coordinate
func MapsLink(c domain.Coordinate) string {
	return "https://maps.google.com/?q=" +
		strconv.FormatFloat(c.Lat, 'f', -1, 64) + "," +
		strconv.FormatFloat(c.Lng, 'f', -1, 64)
}

// ShareText renders the message shared with emergency contacts
func ShareText(c domain.Coordinate, at time.Time, accuracyM float64) string {
	var b strings.Builder
	b.WriteString("🚨 EMERGENCY LOCATION 🚨\n\n")
	fmt.Fprintf(&b, "Coordinates: %s\n", c.String())
	fmt.Fprintf(&b, "Time: %s\n", at.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "Accuracy: ±%sm\n\n", strconv.FormatFloat(accuracyM, 'f', -1, 64))
	fmt.Fprintf(&b, "Google Maps: %s\n\n", MapsLink(c))
	b.WriteString("Sent via Morpheus Maps Emergency System")
	return b.String()
}

func sessionOrNew(id string) string {
	if id = strings.TrimSpace(id); id != "" {
		return id
	}
	return uuid.NewString()
}
