package avs2dec

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDefaultConfig(t *testing.T) {
	want := Config{
		Threads:      0,
		MaxRefFrames: 4,
		LogLevel:     LogError,
	}
	got := DefaultConfig()
	if !cmp.Equal(got, want) {
		t.Errorf("DefaultConfig() mismatch (-want +got):\n%s", cmp.Diff(want, got))
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"default", DefaultConfig(), false},
		{"zero ref frames", Config{MaxRefFrames: 0}, true},
		{"negative ref frames", Config{MaxRefFrames: -1}, true},
		{"negative threads", Config{MaxRefFrames: 1, Threads: -1}, true},
		{"pipelined", Config{MaxRefFrames: 8, Threads: 4}, false},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			err := test.cfg.validate()
			if (err != nil) != test.wantErr {
				t.Errorf("validate() error = %v, wantErr %v", err, test.wantErr)
			}
		})
	}
}
