package health

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/BalashanmugamK/AI-Powered-Scribe/pkg/provider/ner"
)

// EntityModel reports whether r's entity model loads. A recogniser without a
// loadable model passes.
func EntityModel(r ner.Recognizer) Checker {
	return Checker{
		Name: "entity_model",
		Check: func(ctx context.Context) error {
			return ner.Load(ctx, r)
		},
	}
}

// Files reports whether every path exists and is a regular file. Use it for
// model weights that are loaded lazily on first use.
func Files(name string, paths ...string) Checker {
	return Checker{
		Name: name,
		Check: func(context.Context) error {
			var errs []error
			for _, p := range paths {
				info, err := os.Stat(p)
				switch {
				case err != nil:
					errs = append(errs, err)
				case !info.Mode().IsRegular():
					errs = append(errs, fmt.Errorf("%s is not a regular file", p))
				}
			}
			return errors.Join(errs...)
		},
	}
}
