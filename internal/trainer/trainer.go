package trainer

import (
	"context"
	"log"
	"math"
	"math/rand"
	"time"

	"github.com/pkg/errors"

	"github.com/hailam/tttplay/internal/engine"
	"github.com/hailam/tttplay/internal/nn"
	"github.com/hailam/tttplay/internal/storage"
)

// Store is the persistence a Session writes to. *storage.Storage satisfies it.
type Store interface {
	SaveSnapshot(name string, snap *nn.Snapshot) error
	AppendHistory(run string, e storage.HistoryEntry) error
}

// Config controls a training session.
type Config struct {
	Run       string // history key and snapshot name prefix
	Epochs    int
	ChunkSize int     // examples per Train call; the context is checked between chunks
	Rollouts  int     // self-play games added to each epoch
	Epsilon   float64 // random-move probability during rollouts
	Schedule  StepSchedule
	Seed      int64
}

// Summary describes a finished (or interrupted) session.
type Summary struct {
	Epochs          int
	FinalLoss       float64
	BestLoss        float64
	BestEpoch       int
	TrainedExamples int64
	SkippedChunks   int
}

// Session owns the training loop for one network. The network is only ever
// touched from the goroutine calling Run.
type Session struct {
	cfg    Config
	net    *nn.Network
	oracle *engine.Oracle
	corpus []nn.Example
	store  Store
	rnd    *rand.Rand
}

// NewSession creates a session. store may be nil.
func NewSession(net *nn.Network, oracle *engine.Oracle, corpus []nn.Example, store Store, cfg Config) *Session {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = 256
	}
	return &Session{
		cfg:    cfg,
		net:    net,
		oracle: oracle,
		corpus: corpus,
		store:  store,
		rnd:    rand.New(rand.NewSource(cfg.Seed)),
	}
}

// Run trains for cfg.Epochs epochs. If ctx is cancelled it stops between
// chunks and returns the summary so far together with the context error.
func (s *Session) Run(ctx context.Context) (Summary, error) {
	log.Println("[TRAIN] Train started")
	defer log.Println("[TRAIN] Train finished")

	var summary = Summary{BestLoss: math.Inf(1)}

	for epoch := 1; epoch <= s.cfg.Epochs; epoch++ {
		var lr = s.cfg.Schedule.At(epoch)
		s.net.SetLearningRate(lr)

		var batch = s.epochBatch()
		var rolloutStates = len(batch) - len(s.corpus)

		var avg RunningAverage
		for start := 0; start < len(batch); start += s.cfg.ChunkSize {
			if err := ctx.Err(); err != nil {
				summary.TrainedExamples = s.net.TrainedExamples()
				return summary, errors.Wrapf(err, "epoch %d interrupted", epoch)
			}
			var end = min(start+s.cfg.ChunkSize, len(batch))
			var loss = s.net.Train(batch[start:end])
			if !avg.Add(loss, float64(end-start)) {
				log.Printf("[TRAIN] Warning: non-finite loss in epoch %d chunk at %d, excluded", epoch, start)
			}
		}
		summary.SkippedChunks += avg.Skipped()
		summary.Epochs = epoch

		loss, ok := avg.Mean()
		if !ok {
			log.Printf("[TRAIN] Warning: epoch %d produced no finite loss", epoch)
			continue
		}
		summary.FinalLoss = loss
		log.Printf("[TRAIN] Finished epoch %d/%d loss %.6f lr %g examples %d rollout states %d",
			epoch, s.cfg.Epochs, loss, lr, len(batch), rolloutStates)

		if err := s.record(epoch, loss, lr, len(batch), rolloutStates); err != nil {
			return summary, err
		}

		if loss < summary.BestLoss {
			summary.BestLoss = loss
			summary.BestEpoch = epoch
			if err := s.save("best"); err != nil {
				return summary, err
			}
		} else {
			log.Printf("[TRAIN] Best loss: %.6f Best epoch: %d", summary.BestLoss, summary.BestEpoch)
		}
	}

	summary.TrainedExamples = s.net.TrainedExamples()
	return summary, nil
}

// epochBatch returns a shuffled copy of the corpus followed by fresh rollouts.
func (s *Session) epochBatch() []nn.Example {
	var batch = make([]nn.Example, len(s.corpus), len(s.corpus)+s.cfg.Rollouts*9)
	copy(batch, s.corpus)
	s.rnd.Shuffle(len(batch), func(i, j int) {
		batch[i], batch[j] = batch[j], batch[i]
	})
	for i := 0; i < s.cfg.Rollouts; i++ {
		batch = append(batch, Rollout(s.rnd, s.oracle, s.net, s.cfg.Epsilon)...)
	}
	return batch
}

func (s *Session) record(epoch int, loss, lr float64, examples, rollouts int) error {
	if s.store == nil {
		return nil
	}
	var entry = storage.HistoryEntry{
		Epoch:        epoch,
		Loss:         loss,
		LearningRate: lr,
		Examples:     examples,
		Rollouts:     rollouts,
		Time:         time.Now(),
	}
	if err := s.store.AppendHistory(s.cfg.Run, entry); err != nil {
		return errors.Wrapf(err, "record epoch %d", epoch)
	}
	return s.save("latest")
}

func (s *Session) save(tag string) error {
	if s.store == nil {
		return nil
	}
	var name = s.cfg.Run + "/" + tag
	if err := s.store.SaveSnapshot(name, s.net.Snapshot()); err != nil {
		return errors.Wrapf(err, "store %s", name)
	}
	log.Println("[TRAIN] Stored network", name)
	return nil
}
