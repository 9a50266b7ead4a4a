// Package console implements a line-oriented text protocol for playing
// against a network and inspecting its (and the oracle's) evaluations.
package console

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/hailam/tttplay/internal/board"
	"github.com/hailam/tttplay/internal/engine"
	"github.com/hailam/tttplay/internal/nn"
	"github.com/hailam/tttplay/internal/storage"
)

// StatsRecorder receives the result of every finished game.
// *storage.Storage satisfies it.
type StatsRecorder interface {
	RecordGame(result storage.GameResult) error
}

type state struct {
	board board.Board
	turn  board.Mark
}

// Console is one interactive session.
type Console struct {
	net    *nn.Network
	oracle *engine.Oracle
	stats  StatsRecorder
	out    io.Writer

	board   board.Board
	turn    board.Mark
	human   board.Mark
	history []state

	started  time.Time
	recorded bool
}

// New creates a console that writes to out.
func New(net *nn.Network, oracle *engine.Oracle, out io.Writer) *Console {
	c := &Console{
		net:    net,
		oracle: oracle,
		out:    out,
	}
	c.reset(board.X)
	return c
}

// SetStats makes the console record finished games.
func (c *Console) SetStats(r StatsRecorder) {
	c.stats = r
}

// Run reads commands from in until "quit" or end of input.
func (c *Console) Run(in io.Reader) error {
	scanner := bufio.NewScanner(in)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.Fields(line)
		cmd := strings.ToLower(parts[0])
		args := parts[1:]

		switch cmd {
		case "new":
			c.handleNew(args)
		case "show", "d":
			c.show()
		case "position":
			c.handlePosition(args)
		case "move", "m":
			c.handleMove(args)
		case "go":
			c.handleGo()
		case "hint":
			c.handleHint()
		case "eval":
			c.handleEval()
		case "undo":
			c.handleUndo()
		case "perft":
			c.handlePerft(args)
		case "help":
			c.handleHelp()
		case "quit", "exit":
			return nil
		default:
			c.errorf("unknown command %q (try help)", cmd)
		}
	}
	return scanner.Err()
}

func (c *Console) printf(format string, args ...interface{}) {
	fmt.Fprintf(c.out, format, args...)
}

func (c *Console) errorf(format string, args ...interface{}) {
	fmt.Fprintf(c.out, "error: "+format+"\n", args...)
}

func (c *Console) reset(human board.Mark) {
	c.board = board.NewBoard()
	c.turn = board.FirstTurn
	c.human = human
	c.history = nil
	c.started = time.Now()
	c.recorded = false
}

// handleNew starts a new game. "new o" lets the network open.
func (c *Console) handleNew(args []string) {
	human := board.X
	if len(args) > 0 {
		m, ok := board.MarkFromChar(strings.ToLower(args[0])[0])
		if !ok || m == board.Empty {
			c.errorf("side must be x or o")
			return
		}
		human = m
	}
	c.reset(human)
	c.printf("new game, you play %v\n", human)
	if c.turn != c.human {
		c.handleGo()
	} else {
		c.show()
	}
}

// handlePosition sets up a board: "position x.o/.x./... [x|o]".
// The side to move is inferred from the mark counts when not given.
func (c *Console) handlePosition(args []string) {
	if len(args) == 0 {
		c.errorf("position needs a board")
		return
	}
	b, err := board.ParseBoard(args[0])
	if err != nil {
		c.errorf("%v", err)
		return
	}
	turn := b.SideToMove()
	if len(args) > 1 {
		m, ok := board.MarkFromChar(strings.ToLower(args[1])[0])
		if !ok || m == board.Empty {
			c.errorf("side must be x or o")
			return
		}
		turn = m
	}
	c.history = nil
	c.board, c.turn = b, turn
	c.recorded = true // a set-up position is not a game
	c.show()
}

func (c *Console) show() {
	c.printf("%s", c.board.String())
	if c.board.IsTerminal() {
		c.printf("%s\n", c.outcome())
	} else {
		c.printf("%v to move\n", c.turn)
	}
}

func (c *Console) outcome() string {
	if w := board.ComputeWinner(c.board); w != board.Empty {
		return fmt.Sprintf("result: %v wins", w)
	}
	return "result: draw"
}

func (c *Console) play(i int) bool {
	if c.board.IsTerminal() {
		c.errorf("game is over")
		return false
	}
	if !board.IsMoveValid(c.board, i) {
		c.errorf("illegal move %d", i)
		return false
	}
	c.history = append(c.history, state{c.board, c.turn})
	c.board = c.board.Play(i, c.turn)
	c.turn = board.NextTurn(c.turn)
	if c.board.IsTerminal() {
		c.finish()
	}
	return true
}

// finish records a completed game once.
func (c *Console) finish() {
	if c.stats == nil || c.recorded {
		return
	}
	c.recorded = true
	winner := board.ComputeWinner(c.board)
	result := storage.GameResult{
		Won:      winner == c.human,
		Draw:     winner == board.Empty,
		Duration: time.Since(c.started),
	}
	if err := c.stats.RecordGame(result); err != nil {
		c.errorf("record game: %v", err)
	}
}

// handleMove plays the given cell (0-8) and lets the network reply.
func (c *Console) handleMove(args []string) {
	if len(args) == 0 {
		c.errorf("move needs a cell 0-8")
		return
	}
	i, err := strconv.Atoi(args[0])
	if err != nil {
		c.errorf("bad cell %q", args[0])
		return
	}
	if !c.play(i) {
		return
	}
	if !c.board.IsTerminal() && c.turn != c.human {
		c.handleGo()
		return
	}
	c.show()
}

// handleGo lets the network move for the side to move.
func (c *Console) handleGo() {
	if c.board.IsTerminal() {
		c.errorf("game is over")
		return
	}
	move, ok := c.net.Predict(board.Encode(c.board, c.turn), board.MaskSlice(c.board))
	if !ok {
		c.errorf("network has no move")
		return
	}
	c.printf("bestmove %d\n", move)
	c.play(move)
	c.show()
}

func (c *Console) printPolicy(policy []float64) {
	for r := 0; r < 3; r++ {
		for col := 0; col < 3; col++ {
			if col > 0 {
				c.printf(" ")
			}
			c.printf("%.3f", policy[r*3+col])
		}
		c.printf("\n")
	}
}

// handleHint prints the oracle's policy and value.
func (c *Console) handleHint() {
	res := c.oracle.Policy(c.board, c.turn)
	c.printPolicy(res.Policy[:])
	c.printf("value %.3f (%s)\n", res.Value, engine.ScoreToString(res.Score))
	if moves := c.oracle.BestMoves(c.board, c.turn); len(moves) > 0 {
		c.printf("best %v\n", moves)
	}
}

// handleEval prints the network's policy and value.
func (c *Console) handleEval() {
	out := c.net.Forward(board.Encode(c.board, c.turn), board.MaskSlice(c.board))
	c.printPolicy(out.Policy)
	c.printf("value %.3f\n", out.Value)
}

func (c *Console) handleUndo() {
	if len(c.history) == 0 {
		c.errorf("nothing to undo")
		return
	}
	last := c.history[len(c.history)-1]
	c.history = c.history[:len(c.history)-1]
	c.board, c.turn = last.board, last.turn
	c.show()
}

// handlePerft counts move sequences from the current position.
func (c *Console) handlePerft(args []string) {
	depth := 9
	if len(args) > 0 {
		d, err := strconv.Atoi(args[0])
		if err != nil {
			c.errorf("bad depth %q", args[0])
			return
		}
		depth = d
	}

	start := time.Now()
	nodes := board.Perft(c.board, c.turn, depth)
	elapsed := time.Since(start)

	c.printf("Nodes: %d\n", nodes)
	c.printf("Time: %v\n", elapsed)
}

func (c *Console) handleHelp() {
	c.printf(`commands:
  new [x|o]             start a game; you play the given side (default x)
  position <board> [t]  set up a board such as x.o/.x./... (t: side to move)
  move <0-8>            play a cell; the network replies
  go                    let the network move
  hint                  oracle policy and value
  eval                  network policy and value
  undo                  take back one move
  show | d              print the board
  perft [depth]         count move sequences
  quit
`)
}
