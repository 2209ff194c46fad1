package frontend

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/hyperengineering/abacus/pkg/client"
)

const consoleHelp = `enter two numbers ("10 4"), "history", or "quit"`

// outcome is one finished backend call, handed to the render loop.
type outcome struct {
	num1, num2 float64
	result     *client.Result
	records    []client.Record
	history    bool
	err        error
}

// Console is an interactive terminal front-end. Requests run in the
// background; their outcomes are sent over a channel and printed only by the
// render loop in Run.
type Console struct {
	backend Backend
}

// NewConsole creates a console that sends requests to backend.
func NewConsole(backend Backend) *Console {
	return &Console{backend: backend}
}

// Run reads commands from in and writes results to out until in is exhausted,
// "quit" is entered, or ctx is cancelled. On end of input it waits for
// requests still in flight.
func (c *Console) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	results := make(chan outcome)
	var inflight sync.WaitGroup
	// Cancel before waiting so no sender blocks on results after Run stops reading.
	defer inflight.Wait()
	defer cancel()

	pending := 0
	fmt.Fprintln(out, consoleHelp)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case res := <-results:
			pending--
			render(out, res)
			if lines == nil && pending == 0 {
				return nil
			}

		case line, ok := <-lines:
			if !ok {
				if pending == 0 {
					return nil
				}
				lines = nil
				continue
			}

			fields := strings.Fields(line)
			switch {
			case len(fields) == 0:
				continue
			case len(fields) == 1 && (fields[0] == "quit" || fields[0] == "exit"):
				return nil
			case len(fields) == 1 && fields[0] == "history":
				pending++
				inflight.Add(1)
				go func() {
					defer inflight.Done()
					records, err := c.backend.History(ctx)
					deliver(ctx, results, outcome{history: true, records: records, err: err})
				}()
			case len(fields) == 2:
				num1, err1 := strconv.ParseFloat(fields[0], 64)
				num2, err2 := strconv.ParseFloat(fields[1], 64)
				if err1 != nil || err2 != nil {
					fmt.Fprintf(out, "cannot read %q as two numbers\n", line)
					continue
				}
				pending++
				inflight.Add(1)
				go func() {
					defer inflight.Done()
					result, err := c.backend.Calculate(ctx, num1, num2)
					deliver(ctx, results, outcome{num1: num1, num2: num2, result: result, err: err})
				}()
			default:
				fmt.Fprintln(out, consoleHelp)
			}
		}
	}
}

func deliver(ctx context.Context, results chan<- outcome, o outcome) {
	select {
	case results <- o:
	case <-ctx.Done():
	}
}

func render(out io.Writer, o outcome) {
	switch {
	case o.err != nil && o.history:
		fmt.Fprintf(out, "history failed: %v\n", o.err)
	case o.err != nil:
		fmt.Fprintf(out, "%s, %s: request failed: %v\n", formatFloat(o.num1), formatFloat(o.num2), o.err)
	case o.history:
		if len(o.records) == 0 {
			fmt.Fprintln(out, "no calculations yet")
			return
		}
		for _, r := range o.records {
			fmt.Fprintf(out, "%s, %s: %s %s %s %s\n",
				formatFloat(float64(r.Num1)), formatFloat(float64(r.Num2)),
				formatFloat(float64(r.Addition)), formatFloat(float64(r.Subtraction)),
				formatFloat(float64(r.Multiplication)), r.Division)
		}
	default:
		a, b := formatFloat(o.num1), formatFloat(o.num2)
		fmt.Fprintf(out, "%s + %s = %s\n", a, b, formatFloat(float64(o.result.Addition)))
		fmt.Fprintf(out, "%s - %s = %s\n", a, b, formatFloat(float64(o.result.Subtraction)))
		fmt.Fprintf(out, "%s * %s = %s\n", a, b, formatFloat(float64(o.result.Multiplication)))
		fmt.Fprintf(out, "%s / %s = %s\n", a, b, o.result.Division)
	}
}

// formatFloat prints f in shortest form; NaN stands for a value the server
// could not represent.
func formatFloat(f float64) string {
	if math.IsNaN(f) {
		return "overflow"
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
