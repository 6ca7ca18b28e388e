package tickfsm_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/librescoot/tickfsm"
)

func BenchmarkTick(b *testing.B) {
	m := tickfsm.New(tickfsm.WithLogger(quietLogger))
	require.NoError(b, m.Register(tickfsm.NewState(tickfsm.WithOnTick(func() {})), stateIdle))
	require.NoError(b, m.Start(stateIdle))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = m.Tick()
	}
}

func BenchmarkExpeditedHandOff(b *testing.B) {
	m := tickfsm.New(tickfsm.WithLogger(quietLogger))
	require.NoError(b, m.Register(tickfsm.NewState(tickfsm.WithOnTick(func() {
		_ = m.SetState(stateActive, tickfsm.WithExpedite())
	})), stateIdle))
	require.NoError(b, m.Register(tickfsm.NewState(tickfsm.WithOnTick(func() {
		_ = m.SetState(stateIdle)
	})), stateActive))
	require.NoError(b, m.Start(stateIdle))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = m.Tick()
	}
}
