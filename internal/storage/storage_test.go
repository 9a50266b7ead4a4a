package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/hailam/tttplay/internal/nn"
)

func openTest(t *testing.T) *Storage {
	t.Helper()
	s, err := OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testSnapshot(t *testing.T) *nn.Snapshot {
	t.Helper()
	cfg := nn.DefaultConfig()
	cfg.HiddenSizes = []int{4}
	net, err := nn.New(cfg)
	if err != nil {
		t.Fatalf("nn.New: %v", err)
	}
	return net.Snapshot()
}

func sameSnapshot(t *testing.T, want, got *nn.Snapshot) {
	t.Helper()
	if len(got.Layers) != len(want.Layers) {
		t.Fatalf("got %d layers, want %d", len(got.Layers), len(want.Layers))
	}
	for l := range want.Layers {
		for i, row := range want.Layers[l].Weights {
			for j, w := range row {
				if got.Layers[l].Weights[i][j] != w {
					t.Fatalf("layer %d weight (%d,%d) = %v, want %v", l, i, j, got.Layers[l].Weights[i][j], w)
				}
			}
		}
	}
	if got.ValueHead.Biases[0] != want.ValueHead.Biases[0] {
		t.Errorf("value bias = %v, want %v", got.ValueHead.Biases[0], want.ValueHead.Biases[0])
	}
	if got.TrainedExamples != want.TrainedExamples {
		t.Errorf("trained examples = %d, want %d", got.TrainedExamples, want.TrainedExamples)
	}
}

func TestSnapshots(t *testing.T) {
	s := openTest(t)
	snap := testSnapshot(t)
	snap.TrainedExamples = 1234

	t.Run("Missing", func(t *testing.T) {
		_, err := s.LoadSnapshot("nope")
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("LoadSnapshot of a missing name: %v, want ErrNotFound", err)
		}
	})

	t.Run("RoundTrip", func(t *testing.T) {
		if err := s.SaveSnapshot("run/best", snap); err != nil {
			t.Fatalf("SaveSnapshot: %v", err)
		}
		got, err := s.LoadSnapshot("run/best")
		if err != nil {
			t.Fatalf("LoadSnapshot: %v", err)
		}
		sameSnapshot(t, snap, got)

		// A loaded snapshot must restore into a network of the same shape.
		net, err := nn.New(got.Config)
		if err != nil {
			t.Fatalf("nn.New from stored config: %v", err)
		}
		if err := net.LoadSnapshot(got); err != nil {
			t.Errorf("LoadSnapshot into network: %v", err)
		}
	})

	t.Run("ListAndDelete", func(t *testing.T) {
		if err := s.SaveSnapshot("run/latest", snap); err != nil {
			t.Fatalf("SaveSnapshot: %v", err)
		}
		names, err := s.ListSnapshots()
		if err != nil {
			t.Fatalf("ListSnapshots: %v", err)
		}
		if len(names) != 2 || names[0] != "run/best" || names[1] != "run/latest" {
			t.Errorf("ListSnapshots = %v", names)
		}

		if err := s.DeleteSnapshot("run/best"); err != nil {
			t.Fatalf("DeleteSnapshot: %v", err)
		}
		if _, err := s.LoadSnapshot("run/best"); !errors.Is(err, ErrNotFound) {
			t.Errorf("deleted snapshot still loads: %v", err)
		}
		if err := s.DeleteSnapshot("never-saved"); err != nil {
			t.Errorf("DeleteSnapshot of a missing name: %v", err)
		}
	})

	if err := s.SaveSnapshot("", snap); err == nil {
		t.Error("empty snapshot name accepted")
	}
}

func TestHistory(t *testing.T) {
	s := openTest(t)

	for epoch := 1; epoch <= 12; epoch++ {
		e := HistoryEntry{Epoch: epoch, Loss: 1 / float64(epoch), LearningRate: 0.01}
		if err := s.AppendHistory("alpha", e); err != nil {
			t.Fatalf("AppendHistory: %v", err)
		}
	}
	if err := s.AppendHistory("alphabet", HistoryEntry{Epoch: 99}); err != nil {
		t.Fatalf("AppendHistory: %v", err)
	}

	entries, err := s.LoadHistory("alpha")
	if err != nil {
		t.Fatalf("LoadHistory: %v", err)
	}
	if len(entries) != 12 {
		t.Fatalf("got %d entries, want 12", len(entries))
	}
	for i, e := range entries {
		if e.Epoch != i+1 {
			t.Errorf("entry %d has epoch %d", i, e.Epoch)
		}
	}

	if entries, _ := s.LoadHistory("missing"); len(entries) != 0 {
		t.Errorf("missing run has %d entries", len(entries))
	}
	if err := s.AppendHistory("a/b", HistoryEntry{}); err == nil {
		t.Error("run name with a slash accepted")
	}
}

func TestPreferences(t *testing.T) {
	s := openTest(t)

	prefs, err := s.LoadPreferences()
	if err != nil {
		t.Fatalf("LoadPreferences: %v", err)
	}
	if prefs.LastRun != "default" || prefs.Network.OutputSize != 9 {
		t.Errorf("unexpected defaults %+v", prefs)
	}

	prefs.LastRun = "night"
	prefs.Network.HiddenSizes = []int{16}
	if err := s.SavePreferences(prefs); err != nil {
		t.Fatalf("SavePreferences: %v", err)
	}
	got, err := s.LoadPreferences()
	if err != nil {
		t.Fatalf("LoadPreferences: %v", err)
	}
	if got.LastRun != "night" || len(got.Network.HiddenSizes) != 1 || got.Network.HiddenSizes[0] != 16 {
		t.Errorf("preferences not persisted: %+v", got)
	}
}

func TestGameStats(t *testing.T) {
	s := openTest(t)

	results := []GameResult{{Won: true}, {Won: true}, {Draw: true}, {}, {Won: true}}
	for _, r := range results {
		if err := s.RecordGame(r); err != nil {
			t.Fatalf("RecordGame: %v", err)
		}
	}
	stats, err := s.LoadStats()
	if err != nil {
		t.Fatalf("LoadStats: %v", err)
	}
	if stats.GamesPlayed != 5 || stats.Wins != 3 || stats.Draws != 1 || stats.Losses != 1 {
		t.Errorf("unexpected stats %+v", stats)
	}
	if stats.LongestWinStrk != 2 || stats.CurrentStreak != 1 {
		t.Errorf("streaks: longest %d current %d", stats.LongestWinStrk, stats.CurrentStreak)
	}
	if rate := stats.GetWinRate(); rate != 60 {
		t.Errorf("Expected 60%% win rate, got %.2f%%", rate)
	}
	if (&GameStats{}).GetWinRate() != 0 {
		t.Errorf("Expected 0 win rate")
	}
}

func TestSnapshotFile(t *testing.T) {
	snap := testSnapshot(t)
	path := filepath.Join(t.TempDir(), "net.json")

	if err := WriteSnapshotFile(path, snap); err != nil {
		t.Fatalf("WriteSnapshotFile: %v", err)
	}
	got, err := ReadSnapshotFile(path)
	if err != nil {
		t.Fatalf("ReadSnapshotFile: %v", err)
	}
	sameSnapshot(t, snap, got)

	if err := os.WriteFile(path, []byte("{"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadSnapshotFile(path); err == nil {
		t.Error("truncated file decoded")
	}
}

func TestOpenOnDisk(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := s.SaveSnapshot("x", testSnapshot(t)); err != nil {
		t.Fatalf("SaveSnapshot: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	s, err = Open(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()
	if _, err := s.LoadSnapshot("x"); err != nil {
		t.Errorf("snapshot lost across reopen: %v", err)
	}
}

func TestDataPaths(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", t.TempDir())

	dataDir, err := GetDataDir()
	if err != nil {
		t.Fatalf("GetDataDir failed: %v", err)
	}
	if dataDir == "" {
		t.Error("GetDataDir returned empty path")
	}
	if _, err := os.Stat(dataDir); os.IsNotExist(err) {
		t.Errorf("Data directory was not created: %s", dataDir)
	}

	exportDir, err := GetExportDir()
	if err != nil {
		t.Fatalf("GetExportDir failed: %v", err)
	}
	if filepath.Dir(exportDir) != dataDir {
		t.Errorf("export dir %s not under %s", exportDir, dataDir)
	}
	t.Logf("Data directory: %s", dataDir)
}
