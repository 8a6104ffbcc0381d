package detect

import (
	"errors"
	"testing"

	"intraday-lab/internal/domain"
	"intraday-lab/internal/session"
)

func TestConfigValidate(t *testing.T) {
	window := func(start, end domain.TimeOfDay) *session.HoursFilter {
		return &session.HoursFilter{Start: start, End: end}
	}

	tests := []struct {
		name    string
		cfg     Config
		wantErr error
	}{
		{
			name: "swing with threshold",
			cfg:  Config{Kind: domain.DetectorSwing, Threshold: 5},
		},
		{
			name: "threshold at upper bound",
			cfg:  Config{Kind: domain.DetectorReversal, Threshold: 100},
		},
		{
			name:    "zero threshold",
			cfg:     Config{Kind: domain.DetectorSwing},
			wantErr: ErrThresholdOutOfRange,
		},
		{
			name:    "negative threshold",
			cfg:     Config{Kind: domain.DetectorDip, Threshold: -2},
			wantErr: ErrThresholdOutOfRange,
		},
		{
			name:    "threshold over 100",
			cfg:     Config{Kind: domain.DetectorSwing, Threshold: 101},
			wantErr: ErrThresholdOutOfRange,
		},
		{
			name: "anchor ignores threshold",
			cfg:  Config{Kind: domain.DetectorAnchor, AnchorTime: domain.TimeOfDay{Hour: 10}},
		},
		{
			name:    "anchor without anchor time",
			cfg:     Config{Kind: domain.DetectorAnchor},
			wantErr: ErrAnchorTimeRequired,
		},
		{
			name:    "unknown kind",
			cfg:     Config{Kind: "momentum", Threshold: 5},
			wantErr: ErrUnknownDetector,
		},
		{
			name: "valid window",
			cfg: Config{
				Kind:      domain.DetectorSwing,
				Threshold: 5,
				Window:    window(domain.TimeOfDay{Hour: 10}, domain.TimeOfDay{Hour: 14, Minute: 30}),
			},
		},
		{
			name: "inverted window",
			cfg: Config{
				Kind:      domain.DetectorSwing,
				Threshold: 5,
				Window:    window(domain.TimeOfDay{Hour: 14}, domain.TimeOfDay{Hour: 10}),
			},
			wantErr: ErrWindowInverted,
		},
		{
			name: "empty window",
			cfg: Config{
				Kind:      domain.DetectorSwing,
				Threshold: 5,
				Window:    window(domain.TimeOfDay{Hour: 10}, domain.TimeOfDay{Hour: 10}),
			},
			wantErr: ErrWindowInverted,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
