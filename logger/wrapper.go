package logger

import (
	"bufio"
	"encoding/json"
	"errors"
	"github.com/rs/zerolog"
	"io"
	"os"
	"os/exec"
	"runtime/debug"
	"strings"
)

// Supervise runs the executable as a child process, forwards its JSON log lines
// and turns a panic trace written to stderr into a single fatal log entry.
func Supervise(executable string, arg ...string) {
	lfxLogger := NewLogger("Supervisor")
	defer handlePanic(lfxLogger)

	r, w, err := os.Pipe()
	if err != nil {
		lfxLogger.Fatal().Err(err).Msg("Could not create pipe for child logs")
		os.Exit(1)
	}

	cmd := exec.Command(executable, arg...)
	cmd.Stderr = w
	cmd.Stdout = os.Stdout
	cmd.Env = os.Environ()

	if err = cmd.Start(); err != nil {
		lfxLogger.Fatal().Err(err).Str("executable", executable).Msg("Could not launch child process")
		os.Exit(1)
	}
	exitCodeCh := make(chan int)
	linesCh := make(chan []byte)

	go waitForExit(cmd, lfxLogger, exitCodeCh)
	go collectLines(r, lfxLogger, linesCh)

	var trace panicTrace
	for {
		select {
		case exitCode := <-exitCodeCh:
			handleExit(exitCode, trace.String(), lfxLogger)
		case line := <-linesCh:
			trace.consume(line, os.Stderr, lfxLogger)
		}
	}
}

type panicTrace struct {
	builder strings.Builder
	found   bool
}

func (trace *panicTrace) String() string {
	return trace.builder.String()
}

// consume routes one line of child stderr: JSON log lines are forwarded as is,
// everything from the first "panic" line on is buffered for the exit report.
func (trace *panicTrace) consume(line []byte, out io.Writer, lfxLogger zerolog.Logger) {
	if len(line) == 0 {
		return
	}
	text := string(line)
	if !trace.found && strings.HasPrefix(text, "panic") {
		trace.found = true
	}
	switch {
	case trace.found:
		trace.builder.WriteString(text)
		trace.builder.WriteByte('\n')
	case isJSON(line):
		_, _ = out.Write(append(line, '\n'))
	default:
		lfxLogger.Error().Str("line", text).Msg("Got log line that is not JSON formatted")
	}
}

func waitForExit(cmd *exec.Cmd, lfxLogger zerolog.Logger, exitCodeCh chan<- int) {
	defer handlePanic(lfxLogger)
	err := cmd.Wait()
	if err == nil {
		exitCodeCh <- 0
		return
	}
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		exitCodeCh <- 1
		return
	}
	exitCodeCh <- exitErr.ExitCode()
}

func collectLines(r io.Reader, lfxLogger zerolog.Logger, linesCh chan<- []byte) {
	defer handlePanic(lfxLogger)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := make([]byte, len(scanner.Bytes()))
		copy(line, scanner.Bytes())
		linesCh <- line
	}
	if err := scanner.Err(); err != nil {
		lfxLogger.Fatal().Err(err).Msg("Error scanning child stderr")
		os.Exit(1)
	}
}

func handleExit(exitCode int, panicLogs string, lfxLogger zerolog.Logger) {
	if exitCode == 0 {
		lfxLogger.Info().Msg("Child exited with code 0")
	} else {
		lfxLogger.Error().
			Err(errors.New(panicLogs)).
			Int("exit_code", exitCode).
			Msg("Child process failed")
	}
	os.Exit(exitCode)
}

func handlePanic(lfxLogger zerolog.Logger) {
	r := recover()
	if r == nil {
		return
	}
	lfxLogger.Error().
		Caller().
		Interface("error", r).
		Str("stack_trace", string(debug.Stack())).
		Msg("Supervisor panicked")
	os.Exit(1)
}

func isJSON(b []byte) bool {
	var js json.RawMessage
	err := json.Unmarshal(b, &js)
	return err == nil && js != nil
}
