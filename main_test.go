package main

import (
	"errors"
	"testing"

	"golang.org/x/sync/errgroup"
)

func TestFinish(t *testing.T) {
	errScene := errors.New("bad grid")
	errServe := errors.New("listen failed")

	tests := []struct {
		name     string
		sceneErr error
		groupErr error
		want     []error
	}{
		{"clean", nil, nil, nil},
		{"window scene fails", errScene, nil, []error{errScene}},
		{"background fails", nil, errServe, []error{errServe}},
		{"both fail", errScene, errServe, []error{errScene, errServe}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var eg errgroup.Group
			eg.Go(func() error { return tt.groupErr })

			err := finish(&eg, tt.sceneErr)
			if tt.want == nil {
				if err != nil {
					t.Errorf("expected nil, got %v", err)
				}
				return
			}
			for _, w := range tt.want {
				if !errors.Is(err, w) {
					t.Errorf("expected %v in %v", w, err)
				}
			}
		})
	}
}
