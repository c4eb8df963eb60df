package knowledge

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTaste_Normalize(t *testing.T) {
	tests := []struct {
		name string
		in   Taste
		want Taste
	}{
		{"zero value", Taste{}, DefaultTaste()},
		{"valid kept", Taste{FormalityFriendly, LengthShort, DepthDeep}, Taste{FormalityFriendly, LengthShort, DepthDeep}},
		{"invalid replaced", Taste{"casual", LengthDetailed, "expert"}, Taste{FormalityNormal, LengthDetailed, DepthStandard}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.in.Normalize())
		})
	}
}

func TestDetailedSystemPrompt_FollowsTaste(t *testing.T) {
	p := detailedSystemPrompt(Taste{FormalityFriendly, LengthShort, DepthIntro})
	assert.Contains(t, p, formalityGuide[FormalityFriendly])
	assert.Contains(t, p, lengthGuide[LengthShort])
	assert.Contains(t, p, depthGuide[DepthIntro])
}
