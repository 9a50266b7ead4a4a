// Package arena plays a network against scripted opponents and tallies the
// results.
package arena

import (
	"context"
	"log"
	"math"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/hailam/tttplay/internal/board"
	"github.com/hailam/tttplay/internal/nn"
)

// PlayGame plays x against o from the empty board and returns the winner,
// or board.Empty for a draw. A player whose move is illegal loses.
func PlayGame(x, o Opponent) board.Mark {
	var b = board.NewBoard()
	var turn = board.FirstTurn

	for !b.IsTerminal() {
		var player = x
		if turn == board.O {
			player = o
		}
		var move = player.Move(b, turn)
		if !board.IsMoveValid(b, move) {
			return turn.Other()
		}
		b = b.Play(move, turn)
		turn = board.NextTurn(turn)
	}
	return board.ComputeWinner(b)
}

// Options controls Evaluate.
type Options struct {
	Games       int
	Concurrency int
	Verbose     bool // log every game
}

// Result tallies games from the network's side.
type Result struct {
	Wins, Losses, Draws int
}

func (r Result) Games() int { return r.Wins + r.Losses + r.Draws }

// WinRate is the fraction of games won.
func (r Result) WinRate() float64 {
	if r.Games() == 0 {
		return 0
	}
	return float64(r.Wins) / float64(r.Games())
}

// NonLossRate is the fraction of games won or drawn.
func (r Result) NonLossRate() float64 {
	if r.Games() == 0 {
		return 0
	}
	return float64(r.Wins+r.Draws) / float64(r.Games())
}

// Statistics are the usual match statistics of a Result.
type Statistics struct {
	WinningFraction float64
	EloDifference   float64
	LOS             float64 // likelihood of superiority
}

// Stat computes match statistics. A result without losses (or wins) gives an
// infinite Elo difference.
func (r Result) Stat() Statistics {
	var games = r.Games()
	if games == 0 {
		return Statistics{WinningFraction: 0.5, LOS: 0.5}
	}
	var fraction = (float64(r.Wins) + 0.5*float64(r.Draws)) / float64(games)
	var elo = -math.Log(1/fraction-1) * 400 / math.Ln10
	var los = 0.5
	if decisive := r.Wins + r.Losses; decisive > 0 {
		los = 0.5 + 0.5*math.Erf(float64(r.Wins-r.Losses)/math.Sqrt(2*float64(decisive)))
	}
	return Statistics{WinningFraction: fraction, EloDifference: elo, LOS: los}
}

type gameInfo struct {
	number     int
	networkIsX bool
}

type gameResult struct {
	info   gameInfo
	winner board.Mark
}

// Evaluate plays opts.Games games between the network described by snap and
// opponents built by factory, alternating which side the network plays.
// Each worker builds its own network and its own opponent.
func Evaluate(ctx context.Context, snap *nn.Snapshot, factory func(worker int) Opponent, opts Options) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	if snap == nil {
		return Result{}, errors.New("arena: nil snapshot")
	}
	var concurrency = max(1, opts.Concurrency)

	log.Println("[ARENA] arena started")
	defer log.Println("[ARENA] arena finished")
	log.Printf("[ARENA] games %d concurrency %d", opts.Games, concurrency)

	g, ctx := errgroup.WithContext(ctx)

	var gameInfos = make(chan gameInfo)
	var gameResults = make(chan gameResult)

	g.Go(func() error {
		defer close(gameInfos)
		for i := 0; i < opts.Games; i++ {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case gameInfos <- gameInfo{number: i + 1, networkIsX: i%2 == 0}:
			}
		}
		return nil
	})

	var wg = &sync.WaitGroup{}
	for w := 0; w < concurrency; w++ {
		w := w
		wg.Add(1)
		g.Go(func() error {
			defer wg.Done()
			return playGames(ctx, snap, factory(w), gameInfos, gameResults)
		})
	}

	g.Go(func() error {
		wg.Wait()
		close(gameResults)
		return nil
	})

	var result Result
	for res := range gameResults {
		var networkMark = board.O
		if res.info.networkIsX {
			networkMark = board.X
		}
		switch res.winner {
		case board.Empty:
			result.Draws++
		case networkMark:
			result.Wins++
		default:
			result.Losses++
		}
		if opts.Verbose {
			log.Printf("[ARENA] Finished game %d: network %v, winner %v", res.info.number, networkMark, res.winner)
		}
	}

	if err := g.Wait(); err != nil {
		return result, err
	}

	var stat = result.Stat()
	log.Printf("[ARENA] Score: %d - %d - %d  [%.3f] %d", result.Wins, result.Losses, result.Draws, stat.WinningFraction, result.Games())
	log.Printf("[ARENA] Elo difference: %.1f, LOS: %.1f %%", stat.EloDifference, stat.LOS*100)
	return result, nil
}

func playGames(
	ctx context.Context,
	snap *nn.Snapshot,
	opponent Opponent,
	gameInfos <-chan gameInfo,
	gameResults chan<- gameResult,
) error {
	net, err := nn.New(snap.Config)
	if err != nil {
		return errors.Wrap(err, "arena: build network")
	}
	if err := net.LoadSnapshot(snap); err != nil {
		return errors.Wrap(err, "arena: load snapshot")
	}
	var player = &NetworkPlayer{Net: net}

	for info := range gameInfos {
		var res = gameResult{info: info}
		if info.networkIsX {
			res.winner = PlayGame(player, opponent)
		} else {
			res.winner = PlayGame(opponent, player)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case gameResults <- res:
		}
	}
	return nil
}
