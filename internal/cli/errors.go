package cli

import (
	"fmt"

	"github.com/qipu-dev/qipu/internal/qipuerr"
)

func errMissingArg(name string) error {
	return qipuerr.New(qipuerr.UsageError, fmt.Errorf("missing required argument: %s", name))
}

func invalidValue(field, value string) error {
	return qipuerr.New(qipuerr.InvalidValue, fmt.Errorf("invalid %s: %s", field, value), qipuerr.WithPath(field))
}
