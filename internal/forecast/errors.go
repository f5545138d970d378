package forecast

import (
	"errors"
	"fmt"
)

// ErrInvalidOptions is returned by Analyze for an unusable window size or
// period kind.
var ErrInvalidOptions = errors.New("forecast: invalid options")

// InputShapeError reports a required column or key missing from an input
// table. Row is -1 when the whole column is absent.
type InputShapeError struct {
	Table  string
	Column string
	Row    int
}

func (e *InputShapeError) Error() string {
	if e.Row < 0 {
		return fmt.Sprintf("forecast: %s table is missing required column %q", e.Table, e.Column)
	}
	return fmt.Sprintf("forecast: %s table row %d has empty %q", e.Table, e.Row, e.Column)
}

// IsInputShapeError reports whether err wraps an *InputShapeError.
func IsInputShapeError(err error) bool {
	var shapeErr *InputShapeError
	return errors.As(err, &shapeErr)
}
