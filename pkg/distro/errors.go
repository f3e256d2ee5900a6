package distro

import (
	"fmt"
	"strings"
)

// NotRecognizedError is returned by Detect for an unknown distribution
type NotRecognizedError struct {
	DistroID   string
	CodenameID string
	Path       string
}

func (e *NotRecognizedError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "distro %s codename %s is not recognized\n\n", e.DistroID, e.CodenameID)
	fmt.Fprintf(&b, "You can add the codename %q to the ids of a compatible entry in %s,\n", e.CodenameID, e.Path)
	b.WriteString("then refresh the configuration with: sudo eggs dad -d")
	return b.String()
}

func (e *NotRecognizedError) Unwrap() error {
	return ErrNotRecognized
}
