package main

import (
	"flag"
	"log"
	"os"
	"runtime/pprof"

	"github.com/hailam/tttplay/internal/console"
	"github.com/hailam/tttplay/internal/engine"
	"github.com/hailam/tttplay/internal/nn"
	"github.com/hailam/tttplay/internal/storage"
)

var (
	dbPath     = flag.String("db", "", "database directory (default: user data dir)")
	snapshot   = flag.String("snapshot", "", "stored snapshot to play (default: <last run>/best)")
	file       = flag.String("file", "", "load the network from a JSON snapshot file instead")
	cpuprofile = flag.String("cpuprofile", "", "write cpu profile to file")
)

func main() {
	flag.Parse()

	profilePath := *cpuprofile
	if profilePath == "" {
		profilePath = os.Getenv("CPUPROFILE")
	}
	if profilePath != "" {
		f, err := os.Create(profilePath)
		if err != nil {
			log.Fatal("could not create CPU profile: ", err)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			log.Fatal("could not start CPU profile: ", err)
		}
		defer pprof.StopCPUProfile()
		log.Printf("CPU profiling enabled, writing to %s", profilePath)
	}

	var store *storage.Storage
	var err error
	if *dbPath != "" {
		store, err = storage.Open(*dbPath)
	} else {
		store, err = storage.NewStorage()
	}
	if err != nil {
		log.Printf("Warning: storage unavailable: %v (games will not be recorded)", err)
		store = nil
	} else {
		defer store.Close()
	}

	net, err := loadNetwork(store)
	if err != nil {
		log.Printf("Warning: %v (playing an untrained network)", err)
		net, err = nn.New(nn.DefaultConfig())
		if err != nil {
			log.Fatal(err)
		}
	}

	c := console.New(net, engine.NewOracle(), os.Stdout)
	if store != nil {
		c.SetStats(store)
	}
	if err := c.Run(os.Stdin); err != nil {
		log.Print(err)
	}

	if store != nil {
		if stats, err := store.LoadStats(); err == nil && stats.GamesPlayed > 0 {
			log.Printf("Games %d: %d won, %d lost, %d drawn (%.0f%%)",
				stats.GamesPlayed, stats.Wins, stats.Losses, stats.Draws, stats.GetWinRate())
		}
	}
}

// loadNetwork builds the network from -file, -snapshot or the last training run.
func loadNetwork(store *storage.Storage) (*nn.Network, error) {
	var snap *nn.Snapshot
	var err error

	switch {
	case *file != "":
		snap, err = storage.ReadSnapshotFile(*file)
	case store == nil:
		return nil, os.ErrNotExist
	default:
		name := *snapshot
		if name == "" {
			prefs, perr := store.LoadPreferences()
			if perr != nil {
				return nil, perr
			}
			name = prefs.LastRun + "/best"
		}
		snap, err = store.LoadSnapshot(name)
		if err == nil {
			log.Printf("Loaded snapshot %s", name)
		}
	}
	if err != nil {
		return nil, err
	}

	net, err := nn.New(snap.Config)
	if err != nil {
		return nil, err
	}
	if err := net.LoadSnapshot(snap); err != nil {
		return nil, err
	}
	return net, nil
}
