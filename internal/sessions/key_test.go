package sessions

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildSessionKey(t *testing.T) {
	assert.Equal(t, "agent:main:discord:general", BuildSessionKey("main", "general"))
	assert.Equal(t, "agent:ops:discord:monitoring", BuildSessionKey("ops", "monitoring"))

	// Deterministic across repeated calls.
	for i := 0; i < 3; i++ {
		assert.Equal(t, "agent:main:discord:general", BuildSessionKey("main", "general"))
	}
}

func TestBuildSessionKey_Direct(t *testing.T) {
	name := DirectChannelName("386246614")
	assert.Equal(t, "direct:386246614", name)
	assert.Equal(t, "agent:main:discord:direct:386246614", BuildSessionKey("main", name))
}

func TestParseSessionKey(t *testing.T) {
	agentID, rest := ParseSessionKey("agent:main:discord:general")
	assert.Equal(t, "main", agentID)
	assert.Equal(t, "discord:general", rest)

	agentID, rest = ParseSessionKey("not-a-key")
	assert.Empty(t, agentID)
	assert.Empty(t, rest)
}
