// Package cleanup removes leftover chunk artifacts from a directory after
// resolving which directory the user meant and asking for confirmation.
package cleanup

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/tanq16/dl/internal/output"
	"github.com/tanq16/dl/internal/utils"
)

type Kind int

const (
	NotRequested Kind = iota
	RequestedDefault
	RequestedWithPath
)

// Request is the parsed form of -C/--clean [location].
type Request struct {
	Kind Kind
	Path string // set only for RequestedWithPath
}

func Default() Request { return Request{Kind: RequestedDefault} }

func WithPath(path string) Request { return Request{Kind: RequestedWithPath, Path: path} }

func (r Request) Requested() bool { return r.Kind != NotRequested }

var ErrAmbiguousTarget = errors.New("ambiguous cleaning request")

// ConflictError is returned when both a clean location and a save location
// were given.
type ConflictError struct {
	Location string
	Clean    string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("Ambigious cleaning request. Could not decide which one to be cleaned: %s or %s . Please remove one of them to continue.",
		e.Location, e.Clean)
}

func (e *ConflictError) Unwrap() error { return ErrAmbiguousTarget }

type Target struct {
	Dir string
}

// Resolve picks the directory to clean: the explicit path as given, else the
// absolute save location, else the absolute working directory.
func Resolve(req Request, dest string) (Target, error) {
	switch req.Kind {
	case NotRequested:
		return Target{}, errors.New("cleanup was not requested")
	case RequestedWithPath:
		if dest != "" {
			return Target{}, &ConflictError{Location: dest, Clean: req.Path}
		}
		return Target{Dir: req.Path}, nil
	}
	if dest == "" {
		dest = "."
	}
	dir, err := filepath.Abs(dest)
	if err != nil {
		return Target{}, fmt.Errorf("error resolving %s: %w", dest, err)
	}
	return Target{Dir: dir}, nil
}

type Prompter interface {
	Confirm(question string) (bool, error)
}

// Scrubber deletes chunk artifacts in dir and returns the removed paths.
type Scrubber func(dir string) ([]string, error)

type Outcome int

const (
	Declined Outcome = iota
	Cleaned
)

type Workflow struct {
	Out    io.Writer
	Prompt Prompter
	Scrub  Scrubber
}

// Run resolves the target, prints the clean mode notice, asks for
// confirmation and scrubs. Nothing is deleted unless the user confirms.
func (w *Workflow) Run(req Request, url, dest string) (Outcome, error) {
	log := utils.GetLogger("cleanup")
	target, err := Resolve(req, dest)
	if err != nil {
		return Declined, err
	}

	output.PrintBanner(w.Out)
	if url != "" {
		fmt.Fprintln(w.Out, output.FLabel("success", "URL:"), url)
	}
	if dest != "" {
		fmt.Fprintln(w.Out, output.FLabel("success", "LOC:"), dest)
	}
	fmt.Fprintln(w.Out, output.FLabel("warning", "NOTICE:"), output.FBold("Running with clean mode"))

	confirmed, err := w.Prompt.Confirm(fmt.Sprintf(`[Clean Mode] Are you sure want to clean "%s"?`, target.Dir))
	if err != nil {
		return Declined, fmt.Errorf("error reading confirmation: %w", err)
	}
	if !confirmed {
		log.Debug().Str("dir", target.Dir).Msg("Cleanup declined")
		return Declined, nil
	}

	removed, err := w.Scrub(target.Dir)
	if err != nil {
		return Declined, fmt.Errorf("error cleaning %s: %w", target.Dir, err)
	}
	for _, path := range removed {
		fmt.Fprintln(w.Out, "Removed file", path)
	}
	fmt.Fprintf(w.Out, "%s is cleaned successfully\n", target.Dir)
	log.Debug().Str("dir", target.Dir).Int("removed", len(removed)).Msg("Cleanup finished")
	return Cleaned, nil
}
