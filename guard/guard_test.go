package guard

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_GuardMutateRunsFn(t *testing.T) {
	g := New()
	ran := false
	err := g.Mutate(func() error {
		ran = true
		return nil
	})
	require.NoError(t, err)
	assert.True(t, ran)
}

func Test_GuardBeginPacketReleases(t *testing.T) {
	g := New()
	release, err := g.BeginPacket()
	require.NoError(t, err)
	release()
}

func Test_GuardQuiesceWaitsForInFlightPackets(t *testing.T) {
	g := New()

	release, err := g.BeginPacket()
	require.NoError(t, err)

	quiesced := make(chan struct{})
	go func() {
		_ = g.Quiesce(context.Background(), func() error { return nil })
		close(quiesced)
	}()

	select {
	case <-quiesced:
		t.Fatal("Quiesce returned before the in-flight packet released")
	case <-time.After(50 * time.Millisecond):
	}

	release()

	select {
	case <-quiesced:
	case <-time.After(time.Second):
		t.Fatal("Quiesce did not return after the in-flight packet released")
	}
}

func Test_GuardQuiesceRejectsContextCancel(t *testing.T) {
	g := New()
	release, err := g.BeginPacket()
	require.NoError(t, err)
	defer release()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = g.Quiesce(ctx, func() error { return nil })
	assert.Error(t, err)
}

func Test_GuardBeginPacketBlockedWhileDraining(t *testing.T) {
	g := New()

	release, err := g.BeginPacket()
	require.NoError(t, err)

	started := make(chan struct{})
	go func() {
		close(started)
		_ = g.Quiesce(context.Background(), func() error { return nil })
	}()
	<-started
	time.Sleep(10 * time.Millisecond)

	_, err = g.BeginPacket()
	assert.Error(t, err)

	release()
}
