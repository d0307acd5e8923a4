package pano

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParseConfig(t *testing.T) {
	data := []byte(`{
		"interpolation": "bicubic",
		"parallel": {"workers": 4, "grain_size": 8},
		"view": {"fov": 75, "yaw": 270, "pitch": 10, "roll": -90, "width": 640, "height": 480}
	}`)

	cfg, view, err := ParseConfig(data)
	if err != nil {
		t.Fatalf("ParseConfig: %v", err)
	}
	want := Config{
		Interpolation: Bicubic,
		Parallel:      ParallelConfig{NumWorkers: 4, GrainSize: 8},
	}
	if cfg != want {
		t.Errorf("config = %+v, want %+v", cfg, want)
	}
	if view == nil {
		t.Fatal("view = nil, want parsed view")
	}
	wantView := View{FOV: 75, Yaw: -90, Pitch: 10, Roll: 270, Width: 640, Height: 480}
	if *view != wantView {
		t.Errorf("view = %+v, want %+v", *view, wantView)
	}
}

func TestParseConfigDefaults(t *testing.T) {
	cfg, view, err := ParseConfig([]byte(`{"parallel": {"workers": 2}}`))
	if err != nil {
		t.Fatalf("ParseConfig: %v", err)
	}
	if view != nil {
		t.Errorf("view = %+v, want nil", *view)
	}
	want := DefaultConfig()
	want.Parallel.NumWorkers = 2
	if cfg != want {
		t.Errorf("config = %+v, want %+v", cfg, want)
	}
}

func TestParseConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"malformed", `{"parallel": `},
		{"unknown interpolation", `{"interpolation": "lanczos"}`},
		{"negative workers", `{"parallel": {"workers": -1}}`},
		{"negative grain", `{"parallel": {"grain_size": -4}}`},
		{"parallel not an object", `{"parallel": 3}`},
		{"fov zero", `{"view": {"fov": 0, "width": 10, "height": 10}}`},
		{"fov straight", `{"view": {"fov": 180, "width": 10, "height": 10}}`},
		{"missing size", `{"view": {"fov": 90}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := ParseConfig([]byte(tt.data))
			if !errors.Is(err, ErrInvalidParameter) {
				t.Errorf("ParseConfig(%s) error = %v, want ErrInvalidParameter", tt.data, err)
			}
		})
	}
}

func TestConfigJSON(t *testing.T) {
	data, err := json.Marshal(DefaultConfig())
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	want := `{"interpolation":"bilinear","parallel":{"workers":0,"grain_size":16}}`
	if string(data) != want {
		t.Errorf("Marshal(DefaultConfig()) = %s, want %s", data, want)
	}
}

func TestParseConfigMarshalRoundTrip(t *testing.T) {
	orig := Config{
		Interpolation: Nearest,
		Parallel:      ParallelConfig{NumWorkers: 3, GrainSize: 7},
	}
	data, err := json.Marshal(orig)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	cfg, view, err := ParseConfig(data)
	if err != nil {
		t.Fatalf("ParseConfig(%s): %v", data, err)
	}
	if view != nil {
		t.Errorf("view = %+v, want nil", *view)
	}
	if cfg != orig {
		t.Errorf("ParseConfig(Marshal(%+v)) = %+v", orig, cfg)
	}
}
