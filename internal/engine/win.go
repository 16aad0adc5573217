package engine

import (
	"fmt"

	"github.com/google/cel-go/cel"

	"go.uber.org/zap"
)

// winEnv builds the CEL environment for custom win expressions. The
// expression sees the live faction counts and must return one of
// "village", "elims", "last_standing", or "" for no winner yet.
func winEnv() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Variable("village", cel.IntType),
		cel.Variable("elims", cel.IntType),
		cel.Variable("alive", cel.IntType),
		cel.Variable("day", cel.IntType),
	)
}

// CheckWinExpr compiles a custom win expression, verifying it is valid
// CEL returning a string.
func CheckWinExpr(expr string) error {
	env, err := winEnv()
	if err != nil {
		return err
	}
	ast, iss := env.Compile(expr)
	if iss.Err() != nil {
		return iss.Err()
	}
	if ast.OutputType() != cel.StringType {
		return fmt.Errorf("win expression must return a string, got %s", ast.OutputType())
	}
	return nil
}

func evalWinExpr(expr string, village, elims, alive, day int) (Winner, error) {
	env, err := winEnv()
	if err != nil {
		return WinnerNone, err
	}
	ast, iss := env.Compile(expr)
	if iss.Err() != nil {
		return WinnerNone, iss.Err()
	}
	prog, err := env.Program(ast)
	if err != nil {
		return WinnerNone, err
	}
	out, _, err := prog.Eval(map[string]any{
		"village": int64(village),
		"elims":   int64(elims),
		"alive":   int64(alive),
		"day":     int64(day),
	})
	if err != nil {
		return WinnerNone, err
	}
	s, ok := out.Value().(string)
	if !ok {
		return WinnerNone, fmt.Errorf("win expression returned %T, want string", out.Value())
	}
	switch s {
	case "village":
		return WinnerVillage, nil
	case "elims":
		return WinnerElims, nil
	case "last_standing":
		return WinnerLastStanding, nil
	case "":
		return WinnerNone, nil
	}
	return WinnerNone, fmt.Errorf("win expression returned unknown winner %q", s)
}

// evaluateWin checks the configured win condition against the live
// roster. A broken custom expression is logged and treated as no
// winner so the game is not decided by a typo.
func (r *Registry) evaluateWin(g *Game) Winner {
	village, elims := g.AliveCounts()
	alive := len(g.AlivePlayers())

	switch g.Config.WinCondition {
	case "last_man_standing":
		if alive == 1 {
			return WinnerLastStanding
		}
		return WinnerNone
	case "custom":
		w, err := evalWinExpr(g.Config.WinExpr, village, elims, alive, g.DayNumber)
		if err != nil {
			r.log.Error("custom win expression failed",
				zap.String("guild_id", g.GuildID),
				zap.String("expr", g.Config.WinExpr),
				zap.Error(err))
			return WinnerNone
		}
		return w
	}

	if elims == 0 {
		return WinnerVillage
	}
	if g.Config.WinCondition == "overparity" {
		if elims > village {
			return WinnerElims
		}
	} else if elims >= village {
		return WinnerElims
	}
	return WinnerNone
}
