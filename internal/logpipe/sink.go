package logpipe

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// ErrLogInitFailed is returned when the log sink cannot be created or
// opened. This is fatal at startup in a CLI driver; a library caller
// decides for itself whether to abort or retry.
var ErrLogInitFailed = errors.New("logpipe: failed to initialize log sink")

// OpenFileSink creates a new append-only log file under dir and returns it
// as an io.WriteCloser suitable for New. dir must already exist and be a
// directory.
//
// The file name embeds a UUID so that two runs started within the same
// second never collide.
func OpenFileSink(dir string) (*os.File, error) {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %q is not a directory", ErrLogInitFailed, dir)
	}

	name := fmt.Sprintf("log-%s-%s.log", time.Now().UTC().Format("20060102-150405"), uuid.NewString())
	f, err := os.OpenFile(filepath.Join(dir, name), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLogInitFailed, err)
	}
	if _, err := f.WriteString("Log opened\n"); err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: %v", ErrLogInitFailed, err)
	}
	return f, nil
}
