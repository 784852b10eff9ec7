package station

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStatusIsOnline(t *testing.T) {
	recent := time.Now().Add(-1 * time.Minute)
	stale := time.Now().Add(-10 * time.Minute)

	cases := []struct {
		name     string
		lastSeen *time.Time
		want     bool
	}{
		{"never seen", nil, false},
		{"seen within window", &recent, true},
		{"seen outside window", &stale, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := &Status{LastSeen: tc.lastSeen}
			assert.Equal(t, tc.want, s.IsOnline())
		})
	}
}
