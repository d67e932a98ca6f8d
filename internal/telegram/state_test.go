package telegram

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateManager(t *testing.T) {
	sm := NewStateManager()
	assert.Nil(t, sm.Get(1))

	sm.Set(1, StateWaitServer, nil)
	st := sm.Get(1)
	require.NotNil(t, st)
	assert.Equal(t, StateWaitServer, st.State)
	assert.NotNil(t, st.Data)

	sm.Set(1, StateWaitTemplate, map[string]interface{}{"field": tplCompleted})
	assert.Equal(t, tplCompleted, sm.Get(1).Data["field"])
	assert.Nil(t, sm.Get(2))

	sm.Clear(1)
	assert.Nil(t, sm.Get(1))
}
