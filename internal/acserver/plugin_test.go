package acserver

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

type countingPlugin struct {
	NilPlugin

	laps int32
	err  error
}

func (c *countingPlugin) OnLapCompleted(_ CarID, _ Lap) error {
	atomic.AddInt32(&c.laps, 1)

	return c.err
}

func TestMultiPlugin(t *testing.T) {
	errBroken := errors.New("broken plugin")

	t.Run("All plugins receive events", func(t *testing.T) {
		a, b := &countingPlugin{}, &countingPlugin{}

		mp := MultiPlugin(a, b)

		for i := 0; i < 3; i++ {
			if err := mp.OnLapCompleted(1, Lap{LapTime: time.Minute}); err != nil {
				t.Fatal(err)
			}
		}

		if a.laps != 3 || b.laps != 3 {
			t.Errorf("expected 3 laps each, got %d and %d", a.laps, b.laps)
		}
	})

	t.Run("Errors are returned after every plugin has run", func(t *testing.T) {
		broken, working := &countingPlugin{err: errBroken}, &countingPlugin{}

		mp := MultiPlugin(broken, working)

		if err := mp.OnLapCompleted(1, Lap{}); err != errBroken {
			t.Errorf("expected %v, got %v", errBroken, err)
		}

		if working.laps != 1 {
			t.Errorf("expected the working plugin to still receive the lap")
		}
	})

	t.Run("No plugins", func(t *testing.T) {
		if err := MultiPlugin().OnNewSession(SessionInfo{}); err != nil {
			t.Error(err)
		}
	})
}
