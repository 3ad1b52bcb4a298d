package simulation

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Step is one line of a command script.
type Step struct {
	Line    int
	Command Command
	Repeat  int
}

// ParseScript reads a command script: one "command[,count]" per line, an
// optional "command,count" header, blank lines and # comments ignored.
//
//	start
//	next,20
//	buy
//	next,5
//	close
func ParseScript(r io.Reader) ([]Step, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.Comment = '#'
	cr.TrimLeadingSpace = true

	var steps []Step
	sawFirst := false
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		line, _ := cr.FieldPos(0)

		word := strings.TrimSpace(row[0])
		if word == "" {
			continue
		}
		if !sawFirst {
			sawFirst = true
			if strings.EqualFold(word, "command") || strings.EqualFold(word, "event") {
				continue
			}
		}
		if len(row) > 2 {
			return nil, fmt.Errorf("line %d: too many columns (expected <=2): %v", line, row)
		}

		cmd, err := ParseCommand(word)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		repeat := 1
		if len(row) == 2 && strings.TrimSpace(row[1]) != "" {
			repeat, err = strconv.Atoi(strings.TrimSpace(row[1]))
			if err != nil || repeat < 1 {
				return nil, fmt.Errorf("line %d: bad count %q", line, row[1])
			}
		}
		steps = append(steps, Step{Line: line, Command: cmd, Repeat: repeat})
	}
	return steps, nil
}

// ScriptResult counts what a script run did.
type ScriptResult struct {
	Executed int
	Rejected int
}

// RunScript executes steps in order. Rejected commands are counted and
// skipped unless strict is set. A repeated advance stops early once the
// run ends.
func RunScript(ctx context.Context, c *Controller, steps []Step, strict bool) (ScriptResult, error) {
	var res ScriptResult
	for _, s := range steps {
		for i := 0; i < s.Repeat; i++ {
			if err := ctx.Err(); err != nil {
				return res, err
			}
			err := c.Execute(s.Command)
			if err == nil {
				res.Executed++
				continue
			}
			res.Rejected++
			if strict {
				return res, fmt.Errorf("line %d: %s: %w", s.Line, s.Command.Name(), err)
			}
			if errors.Is(err, ErrEnded) {
				break
			}
		}
	}
	return res, nil
}
