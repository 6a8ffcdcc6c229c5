package styles

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/caseflow/caseflow"
)

func TestTrackStatus(t *testing.T) {
	t.Run("renders every known status", func(t *testing.T) {
		statuses := []caseflow.TrackStatus{
			caseflow.StatusNotApplicable,
			caseflow.StatusDraft,
			caseflow.StatusSent,
			caseflow.StatusApproved,
			caseflow.StatusPartiallyApproved,
			caseflow.StatusRejectedDisagree,
			caseflow.StatusRejectedLate,
			caseflow.StatusUnderNegotiation,
			caseflow.StatusWithdrawn,
		}
		for _, s := range statuses {
			assert.Contains(t, TrackStatus(s), string(s))
		}
	})

	t.Run("unknown statuses still render", func(t *testing.T) {
		assert.Contains(t, TrackStatus("mystery"), "mystery")
	})
}

func TestOverallStatus(t *testing.T) {
	statuses := []caseflow.OverallStatus{
		caseflow.OverallOpen,
		caseflow.OverallAwaitingResponse,
		caseflow.OverallUnderNegotiation,
		caseflow.OverallAgreed,
		caseflow.OverallWithdrawn,
		caseflow.OverallClosed,
	}
	for _, s := range statuses {
		assert.Contains(t, OverallStatus(s), string(s))
	}
}

func TestFormatHelpers(t *testing.T) {
	assert.Contains(t, FormatSuccess("done"), "done")
	assert.Contains(t, FormatSuccess("done"), IconSuccess)

	assert.Contains(t, FormatError("failed"), "failed")
	assert.Contains(t, FormatError("failed"), IconError)

	assert.Contains(t, FormatWarning("careful"), "careful")
	assert.Contains(t, FormatInfo("note"), "note")
}

func TestFormatKeyValue(t *testing.T) {
	out := FormatKeyValue("Case", "case-1")
	assert.Contains(t, out, "Case:")
	assert.Contains(t, out, "case-1")
}

func TestDisableColors(t *testing.T) {
	DisableColors()
	assert.Equal(t, "", string(Primary))
	assert.Equal(t, "", string(Error))
}
