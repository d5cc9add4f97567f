package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefault_IsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default economy invalid: %v", err)
	}
}

func TestLoad_EmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load err: %v", err)
	}
	if cfg.Rival.AggressiveIncrement != 500 {
		t.Fatalf("expected default aggressive increment 500, got %d", cfg.Rival.AggressiveIncrement)
	}
}

func TestLoad_MissingFileIsWrapped(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil || !strings.Contains(err.Error(), "read economy file") {
		t.Fatalf("expected a wrapped read error, got %v", err)
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected fs.ErrNotExist through the wrap, got %v", err)
	}
}

func TestLoad_OverlaysFileOntoDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "economy.yaml")
	body := `
tiers:
  tier1_min_prestige: 200
rival:
  stall_penalty: 25
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write economy file: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load err: %v", err)
	}
	if cfg.Tiers.Tier1MinPrestige != 200 {
		t.Fatalf("expected tier1_min_prestige 200, got %d", cfg.Tiers.Tier1MinPrestige)
	}
	if cfg.Tiers.Tier2MaxPrestige != 50 {
		t.Fatalf("expected untouched tier2_max_prestige 50, got %d", cfg.Tiers.Tier2MaxPrestige)
	}
	if cfg.Rival.StallPenalty != 25 {
		t.Fatalf("expected stall penalty 25, got %d", cfg.Rival.StallPenalty)
	}
	if cfg.Rival.Moods.Desperate.Budget != 1.2 {
		t.Fatalf("expected default desperate budget multiplier, got %v", cfg.Rival.Moods.Desperate.Budget)
	}
}

func TestParse_RejectsUnknownFields(t *testing.T) {
	_, err := Parse([]byte("rival:\n  bogus_field: 1\n"))
	if err == nil {
		t.Fatalf("expected unknown field error")
	}
	if !strings.Contains(err.Error(), "economy.yaml") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestParse_RejectsInvertedThresholds(t *testing.T) {
	_, err := Parse([]byte("tiers:\n  tier2_max_prestige: 300\n  tier1_min_prestige: 100\n"))
	if err == nil {
		t.Fatalf("expected threshold validation error")
	}
}

func TestParse_EmptyDocumentYieldsDefaults(t *testing.T) {
	cfg, err := Parse(nil)
	if err != nil {
		t.Fatalf("Parse err: %v", err)
	}
	if cfg.Attendance.CandidateCount != 8 {
		t.Fatalf("expected candidate count 8, got %d", cfg.Attendance.CandidateCount)
	}
}

func TestTierWeights_Mul(t *testing.T) {
	w := TierWeights{DailyDriver: 10, CultClassic: 10, Icon: 10, Unicorn: 10}
	got := w.Mul(Default().CarDraw.Exotics)
	if got.DailyDriver != 5 || got.Unicorn != 20 {
		t.Fatalf("unexpected product: %+v", got)
	}
	if n := w.Mul(Neutral()); n != w {
		t.Fatalf("neutral multiplier changed weights: %+v", n)
	}
}
