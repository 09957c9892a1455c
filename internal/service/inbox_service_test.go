package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/regops/dossier-flow-api/internal/models"
	"github.com/regops/dossier-flow-api/pkg/config"
	appErrors "github.com/regops/dossier-flow-api/pkg/errors"
)

type stubInboxReader struct {
	division      []models.InboxEntry
	staff         []models.InboxEntry
	divisionCalls int
}

func (s *stubInboxReader) DivisionInbox(_ context.Context, division, point string) ([]models.InboxEntry, error) {
	s.divisionCalls++
	return s.division, nil
}

func (s *stubInboxReader) StaffInbox(context.Context, string) ([]models.InboxEntry, error) {
	return s.staff, nil
}

func TestDivisionInboxDecoratesWithClocks(t *testing.T) {
	staffID := "u-staff-1"
	reader := &stubInboxReader{division: []models.InboxEntry{
		{
			SegmentID:         1,
			ApplicationID:     7,
			ApplicationNumber: "GMP-2025-0001",
			CompanyName:       "Acme Pharma",
			Division:          "QMS",
			Point:             models.PointTechnicalReview,
			StaffID:           &staffID,
			StartTime:         time.Now().UTC().Add(-2 * time.Hour),
		},
	}}
	sla := NewSLAService(&stubSegmentReader{}, slaCfg, nil)
	svc := NewInboxService(reader, sla, nil, config.InboxConfig{}, nil)

	items, err := svc.DivisionInbox(context.Background(), "qms", models.PointTechnicalReview)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "GMP-2025-0001", items[0].ApplicationNumber)
	assert.Equal(t, 48*time.Hour, items[0].SLA.Budget)
	assert.False(t, items[0].SLA.Breached)
}

func TestDivisionInboxRequiresDivision(t *testing.T) {
	svc := NewInboxService(&stubInboxReader{}, nil, nil, config.InboxConfig{}, nil)
	_, err := svc.DivisionInbox(context.Background(), "  ", "")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestStaffInboxEmptyIsNotAnError(t *testing.T) {
	svc := NewInboxService(&stubInboxReader{}, nil, nil, config.InboxConfig{}, nil)
	items, err := svc.StaffInbox(context.Background(), "u-staff-1")
	require.NoError(t, err)
	assert.Empty(t, items)
}
