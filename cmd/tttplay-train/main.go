package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"runtime"
	"runtime/pprof"
	"strconv"
	"strings"

	"github.com/klauspost/cpuid/v2"

	"github.com/hailam/tttplay/internal/arena"
	"github.com/hailam/tttplay/internal/engine"
	"github.com/hailam/tttplay/internal/nn"
	"github.com/hailam/tttplay/internal/storage"
	"github.com/hailam/tttplay/internal/trainer"
)

type Config struct {
	dbPath      string
	run         string
	epochs      int
	hidden      string
	lr          float64
	schedule    string
	wd          float64
	dropout     float64
	clip        float64
	vlw         float64
	augment     bool
	rollouts    int
	epsilon     float64
	chunk       int
	games       int
	concurrency int
	resume      bool
	seed        int64
	export      string
	cpuprofile  string
}

var config Config

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	var defaults = nn.DefaultConfig()
	flag.StringVar(&config.dbPath, "db", "", "database directory (default: user data dir)")
	flag.StringVar(&config.run, "run", "default", "run name for history and snapshots")
	flag.IntVar(&config.epochs, "epochs", 200, "number of epochs")
	flag.StringVar(&config.hidden, "hidden", "64,32", "hidden layer sizes")
	flag.Float64Var(&config.lr, "lr", defaults.LearningRate, "base learning rate")
	flag.StringVar(&config.schedule, "schedule", "", "learning rate steps, e.g. 100:0.005,150:0.001")
	flag.Float64Var(&config.wd, "wd", defaults.WeightDecay, "weight decay")
	flag.Float64Var(&config.dropout, "dropout", defaults.DropoutRate, "dropout rate")
	flag.Float64Var(&config.clip, "clip", defaults.GradClip, "gradient clip")
	flag.Float64Var(&config.vlw, "vlw", defaults.ValueLossWeight, "value loss weight")
	flag.BoolVar(&config.augment, "augment", true, "expand the corpus through board symmetries")
	flag.IntVar(&config.rollouts, "rollouts", 0, "self-play games added per epoch")
	flag.Float64Var(&config.epsilon, "epsilon", 0.2, "random move probability in rollouts")
	flag.IntVar(&config.chunk, "chunk", 256, "examples per training call")
	flag.IntVar(&config.games, "games", 200, "evaluation games per opponent (0 to skip)")
	flag.IntVar(&config.concurrency, "concurrency", defaultConcurrency(), "evaluation workers")
	flag.BoolVar(&config.resume, "resume", false, "continue from the run's latest snapshot")
	flag.Int64Var(&config.seed, "seed", 1, "random seed")
	flag.StringVar(&config.export, "export", "", "write the best snapshot as JSON to this file")
	flag.StringVar(&config.cpuprofile, "cpuprofile", "", "write cpu profile to file")
	flag.Parse()

	log.Printf("%+v", config)

	if config.cpuprofile != "" {
		f, err := os.Create(config.cpuprofile)
		if err != nil {
			log.Fatal("could not create CPU profile: ", err)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			log.Fatal("could not start CPU profile: ", err)
		}
		defer pprof.StopCPUProfile()
		log.Printf("CPU profiling enabled, writing to %s", config.cpuprofile)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx); err != nil {
		log.Print(err)
		stop()
		pprof.StopCPUProfile()
		os.Exit(1)
	}
}

func defaultConcurrency() int {
	if cores := cpuid.CPU.PhysicalCores; cores > 0 {
		return cores
	}
	return runtime.NumCPU()
}

func parseSizes(s string) ([]int, error) {
	var sizes []int
	for _, field := range strings.Split(s, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(field))
		if err != nil {
			return nil, err
		}
		sizes = append(sizes, n)
	}
	return sizes, nil
}

func openStorage() (*storage.Storage, error) {
	if config.dbPath == "" {
		return storage.NewStorage()
	}
	return storage.Open(config.dbPath)
}

func run(ctx context.Context) error {
	log.Println("CPU", cpuid.CPU.BrandName,
		"PhysicalCores", cpuid.CPU.PhysicalCores,
		"LogicalCores", cpuid.CPU.LogicalCores,
		"GOMAXPROCS", runtime.GOMAXPROCS(0))

	hidden, err := parseSizes(config.hidden)
	if err != nil {
		return err
	}
	schedule, err := trainer.ParseSchedule(config.lr, config.schedule)
	if err != nil {
		return err
	}

	store, err := openStorage()
	if err != nil {
		return err
	}
	defer store.Close()

	var netConfig = nn.Config{
		InputSize:       nn.DefaultConfig().InputSize,
		HiddenSizes:     hidden,
		OutputSize:      nn.DefaultConfig().OutputSize,
		LearningRate:    config.lr,
		WeightDecay:     config.wd,
		DropoutRate:     config.dropout,
		GradClip:        config.clip,
		ValueLossWeight: config.vlw,
		Seed:            config.seed,
	}
	net, err := nn.New(netConfig)
	if err != nil {
		return err
	}
	if config.resume {
		resume(store, net)
	}

	var oracle = engine.NewOracle()
	var states = engine.GenerateTeacherDataset(oracle, engine.DatasetOptions{AugmentSymmetries: config.augment})
	var counts = engine.CountReachable()
	log.Printf("Loaded dataset %d (reachable %d, terminal %d)", len(states), counts.States, counts.Terminal)
	log.Printf("Oracle nodes %d cached %d hit rate %.1f%%", oracle.Nodes(), oracle.CacheSize(), oracle.HitRate())

	var session = trainer.NewSession(net, oracle, trainer.Corpus(states), store, trainer.Config{
		Run:       config.run,
		Epochs:    config.epochs,
		ChunkSize: config.chunk,
		Rollouts:  config.rollouts,
		Epsilon:   config.epsilon,
		Schedule:  schedule,
		Seed:      config.seed,
	})
	summary, err := session.Run(ctx)
	if errors.Is(err, context.Canceled) {
		log.Printf("Training interrupted after %d epochs", summary.Epochs)
	} else if err != nil {
		return err
	}
	log.Printf("%+v", summary)

	if err := savePreferences(store, netConfig); err != nil {
		log.Printf("Warning: preferences not saved: %v", err)
	}

	best, err := store.LoadSnapshot(config.run + "/best")
	if err != nil {
		log.Printf("Warning: no best snapshot (%v), using the current network", err)
		best = net.Snapshot()
	}

	if config.export != "" {
		if err := storage.WriteSnapshotFile(config.export, best); err != nil {
			return err
		}
		log.Println("Exported network", config.export)
	}

	if config.games > 0 && ctx.Err() == nil {
		return evaluate(ctx, best)
	}
	return nil
}

// resume loads the run's latest snapshot into net. A missing or incompatible
// snapshot leaves the fresh network in place.
func resume(store *storage.Storage, net *nn.Network) {
	snap, err := store.LoadSnapshot(config.run + "/latest")
	if errors.Is(err, storage.ErrNotFound) {
		log.Printf("No snapshot for run %q, starting fresh", config.run)
		return
	}
	if err != nil {
		log.Printf("Warning: %v, starting fresh", err)
		return
	}

	var shapeErr *nn.ShapeError
	if err := net.LoadSnapshot(snap); errors.As(err, &shapeErr) {
		log.Printf("Warning: %v, starting fresh", shapeErr)
	} else if err != nil {
		log.Printf("Warning: %v, starting fresh", err)
	} else {
		log.Printf("Resumed run %q after %d examples", config.run, net.TrainedExamples())
	}
}

func savePreferences(store *storage.Storage, netConfig nn.Config) error {
	prefs, err := store.LoadPreferences()
	if err != nil {
		return err
	}
	prefs.LastRun = config.run
	prefs.Network = netConfig
	prefs.Epochs = config.epochs
	prefs.Augment = config.augment
	return store.SavePreferences(prefs)
}

func evaluate(ctx context.Context, snap *nn.Snapshot) error {
	var opponents = []struct {
		name    string
		factory func(worker int) arena.Opponent
	}{
		{"random", func(w int) arena.Opponent { return arena.NewRandomOpponent(config.seed + int64(w)) }},
		{"perfect", func(w int) arena.Opponent { return arena.NewPerfectOpponent(config.seed + int64(w)) }},
	}

	for _, opp := range opponents {
		res, err := arena.Evaluate(ctx, snap, opp.factory, arena.Options{
			Games:       config.games,
			Concurrency: config.concurrency,
		})
		if err != nil {
			return err
		}
		log.Printf("vs %s: %d-%d-%d win rate %.3f non-loss rate %.3f",
			opp.name, res.Wins, res.Losses, res.Draws, res.WinRate(), res.NonLossRate())
	}
	return nil
}
