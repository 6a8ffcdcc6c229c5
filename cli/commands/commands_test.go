package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caseflow/caseflow"
	"github.com/caseflow/caseflow/cli/config"
)

func TestParseTrack(t *testing.T) {
	cases := map[string]caseflow.Track{
		"grounds":        caseflow.TrackGrounds,
		"compensation":   caseflow.TrackCompensation,
		"time-extension": caseflow.TrackTimeExtension,
		"time_extension": caseflow.TrackTimeExtension,
		"time":           caseflow.TrackTimeExtension,
	}
	for arg, want := range cases {
		track, err := parseTrack(arg)
		require.NoError(t, err, "arg %q", arg)
		assert.Equal(t, want, track, "arg %q", arg)
	}

	_, err := parseTrack("money")
	assert.Error(t, err)
}

func TestClaimEventType(t *testing.T) {
	assert.Equal(t, caseflow.EventGroundsDrafted, claimEventType(caseflow.TrackGrounds, stageDrafted))
	assert.Equal(t, caseflow.EventGroundsSubmitted, claimEventType(caseflow.TrackGrounds, stageSubmitted))
	assert.Equal(t, caseflow.EventCompensationUpdated, claimEventType(caseflow.TrackCompensation, stageUpdated))
	assert.Equal(t, caseflow.EventTimeExtensionSubmitted, claimEventType(caseflow.TrackTimeExtension, stageSubmitted))
}

func TestTrackEventTypes(t *testing.T) {
	assert.Equal(t, caseflow.EventGroundsResponded, respondEventType(caseflow.TrackGrounds))
	assert.Equal(t, caseflow.EventCompensationResponded, respondEventType(caseflow.TrackCompensation))
	assert.Equal(t, caseflow.EventTimeExtensionResponded, respondEventType(caseflow.TrackTimeExtension))

	assert.Equal(t, caseflow.EventCompensationAccepted, acceptEventType(caseflow.TrackCompensation))
	assert.Equal(t, caseflow.EventTimeExtensionWithdrawn, withdrawEventType(caseflow.TrackTimeExtension))
}

func TestClaimPayload(t *testing.T) {
	t.Run("grounds requires a justification", func(t *testing.T) {
		_, err := claimPayload(caseflow.TrackGrounds, 0, 0, "", "", "")
		require.Error(t, err)

		payload, err := claimPayload(caseflow.TrackGrounds, 0, 0, "", "global", "Unforeseen rock")
		require.NoError(t, err)
		assert.Equal(t, caseflow.GroundsClaimPayload{
			Justification: "Unforeseen rock",
			ClaimMethod:   "global",
		}, payload)
	})

	t.Run("compensation requires a positive amount", func(t *testing.T) {
		_, err := claimPayload(caseflow.TrackCompensation, 0, 0, "NOK", "", "")
		require.Error(t, err)

		payload, err := claimPayload(caseflow.TrackCompensation, 500000, 0, "NOK", "", "")
		require.NoError(t, err)
		assert.Equal(t, caseflow.CompensationClaimPayload{
			Amount:   500000,
			Currency: "NOK",
		}, payload)
	})

	t.Run("time extension requires positive days", func(t *testing.T) {
		_, err := claimPayload(caseflow.TrackTimeExtension, 0, 0, "", "", "")
		require.Error(t, err)

		payload, err := claimPayload(caseflow.TrackTimeExtension, 0, 14, "", "", "")
		require.NoError(t, err)
		assert.Equal(t, caseflow.TimeExtensionClaimPayload{Days: 14}, payload)
	})
}

func TestActorOf(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Actor.Name = "contractor-a"
	cfg.Actor.Role = "claimant"

	actor, role := actorOf(cfg)
	assert.Equal(t, "contractor-a", actor)
	assert.Equal(t, caseflow.RoleClaimant, role)

	cfg.Actor.Role = "owner"
	_, role = actorOf(cfg)
	assert.Equal(t, caseflow.RoleOwner, role)
}

func TestShortID(t *testing.T) {
	t.Run("abbreviates UUIDs", func(t *testing.T) {
		short := shortID("a1b2c3d4-e5f6-7890-abcd-ef1234567890")
		assert.Less(t, len(short), len("a1b2c3d4-e5f6-7890-abcd-ef1234567890"))
		assert.Contains(t, short, "a1b2c3d4")
	})

	t.Run("keeps short IDs intact", func(t *testing.T) {
		assert.Equal(t, "case-1", shortID("case-1"))
	})
}
