package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeDivision(t *testing.T) {
	assert.Equal(t, "QMS", NormalizeDivision(" qms "))
	assert.Equal(t, "INSPECTION", NormalizeDivision("Inspection"))
	assert.Equal(t, "", NormalizeDivision("   "))
}

func TestSummarizePointPicksSlowestStream(t *testing.T) {
	open := []TimelineSegment{
		{Division: "QMS", Point: PointDDDReturn},
		{Division: "INSPECTION", Point: PointDDD},
		{Division: "LABS", Point: PointTechnicalReview},
	}
	assert.Equal(t, PointDDD, SummarizePoint(open))
}

func TestSummarizePointEmptyMeansCompleted(t *testing.T) {
	assert.Equal(t, PointCompleted, SummarizePoint(nil))
}

func TestSummarizePointUnknownPointSortsFirst(t *testing.T) {
	open := []TimelineSegment{
		{Point: PointDirectorFinal},
		{Point: "Legacy Desk"},
	}
	assert.Equal(t, "Legacy Desk", SummarizePoint(open))
}

func TestSegmentDuration(t *testing.T) {
	start := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	end := start.Add(3 * time.Hour)
	closed := TimelineSegment{StartTime: start, EndTime: &end}
	assert.Equal(t, 3*time.Hour, closed.Duration(end.Add(time.Hour)))

	open := TimelineSegment{StartTime: start}
	assert.Equal(t, 5*time.Hour, open.Duration(start.Add(5*time.Hour)))
	assert.True(t, open.Open())
	assert.False(t, closed.Open())
}
