// Package classify decides whether a filesystem entry can be handed to the
// encoder. Decisions are made from file content, never from the extension.
package classify

import (
	"errors"
	"fmt"
	"os"

	"avifgun/pkg/imgutil"
)

// Reasons reported for ineligible entries.
const (
	ReasonUnreadable  = "unreadable"
	ReasonEmpty       = "empty"
	ReasonNotRegular  = "not a regular file"
	ReasonUnsupported = "unsupported content"
	ReasonCancelled   = "cancelled"
)

// Classification is the outcome of inspecting one entry. Exactly one of
// Kind (when Eligible) or Reason (when not) is meaningful.
type Classification struct {
	Eligible bool
	Kind     imgutil.Kind
	Reason   string
	// Size is the on-disk size observed while classifying.
	Size int64
	Err  error
}

// Eligible builds an eligible classification.
func Eligible(kind imgutil.Kind, size int64) Classification {
	return Classification{Eligible: true, Kind: kind, Size: size}
}

// Ineligible builds an ineligible classification.
func Ineligible(reason string, err error) Classification {
	return Classification{Reason: reason, Err: err}
}

func (c Classification) String() string {
	if c.Eligible {
		return fmt.Sprintf("eligible(%s)", c.Kind.MIME())
	}
	return fmt.Sprintf("ineligible(%s)", c.Reason)
}

// Classify inspects path and never returns an error: any problem reading
// the entry is folded into an ineligible classification.
func Classify(path string) Classification {
	info, err := os.Stat(path)
	if err != nil {
		return Ineligible(ReasonUnreadable, err)
	}
	if !info.Mode().IsRegular() {
		return Ineligible(ReasonNotRegular, nil)
	}
	if info.Size() == 0 {
		return Ineligible(ReasonEmpty, nil)
	}

	f, err := os.Open(path)
	if err != nil {
		return Ineligible(ReasonUnreadable, err)
	}
	defer f.Close()

	kind, err := imgutil.SniffReader(f)
	switch {
	case errors.Is(err, imgutil.ErrEmpty):
		// Truncated between stat and read.
		return Ineligible(ReasonEmpty, nil)
	case err != nil:
		return Ineligible(ReasonUnreadable, err)
	}

	if kind == imgutil.KindUnknown {
		return Ineligible(ReasonUnsupported, nil)
	}
	return Eligible(kind, info.Size())
}
