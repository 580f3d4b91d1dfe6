package ledger

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/tsuzuri/pkg/domain/model"
	"github.com/secmon-lab/tsuzuri/pkg/utils/logging"
	"github.com/secmon-lab/tsuzuri/pkg/utils/safe"
)

var header = []string{"timestamp", "request_id", "prompt_tokens", "completion_tokens", "total_tokens"}

// Ledger is the append-only record of token consumption per analysis
// request. It is single-writer per process invocation; concurrent writers
// across processes are unsupported.
type Ledger struct {
	path string
}

// New creates a Ledger backed by the CSV file at path
func New(path string) *Ledger {
	return &Ledger{path: path}
}

// Path returns the ledger file path
func (l *Ledger) Path() string {
	return l.path
}

// Append records one usage row and returns the ledger path. The header row is
// created before the first write; total is computed as prompt+completion when
// absent.
func (l *Ledger) Append(ctx context.Context, requestID string, usage model.TokenUsage) (string, error) {
	usage = usage.Normalized()

	if err := l.ensureHeader(ctx); err != nil {
		return "", err
	}

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return "", goerr.Wrap(err, "failed to open usage ledger", goerr.V("path", l.path))
	}
	defer safe.Close(ctx, f)

	w := csv.NewWriter(f)
	row := []string{
		time.Now().UTC().Format(time.RFC3339),
		requestID,
		strconv.Itoa(usage.Prompt),
		strconv.Itoa(usage.Completion),
		strconv.Itoa(usage.Total),
	}
	if err := w.Write(row); err != nil {
		return "", goerr.Wrap(err, "failed to append usage row", goerr.V("request_id", requestID))
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", goerr.Wrap(err, "failed to flush usage ledger", goerr.V("path", l.path))
	}

	logging.From(ctx).Debug("usage recorded",
		"request_id", requestID,
		"total_tokens", usage.Total,
		"path", l.path,
	)
	return l.path, nil
}

// Lookup resolves recorded usage by request ID. A missing ledger file means
// nothing has been recorded yet and is not an error.
func (l *Ledger) Lookup(ctx context.Context, requestID string) (model.TokenUsage, bool, error) {
	if requestID == "" {
		return model.TokenUsage{}, false, nil
	}

	f, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return model.TokenUsage{}, false, nil
		}
		return model.TokenUsage{}, false, goerr.Wrap(err, "failed to open usage ledger", goerr.V("path", l.path))
	}
	defer safe.Close(ctx, f)

	r := csv.NewReader(f)
	rows, err := r.ReadAll()
	if err != nil {
		return model.TokenUsage{}, false, goerr.Wrap(err, "failed to read usage ledger", goerr.V("path", l.path))
	}

	for i, row := range rows {
		if i == 0 || len(row) < 5 {
			continue
		}
		if row[1] != requestID {
			continue
		}
		return model.TokenUsage{
			Prompt:     atoiOrZero(row[2]),
			Completion: atoiOrZero(row[3]),
			Total:      atoiOrZero(row[4]),
		}, true, nil
	}
	return model.TokenUsage{}, false, nil
}

func (l *Ledger) ensureHeader(ctx context.Context) error {
	if _, err := os.Stat(l.path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return goerr.Wrap(err, "failed to stat usage ledger", goerr.V("path", l.path))
	}

	if dir := filepath.Dir(l.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return goerr.Wrap(err, "failed to create ledger directory", goerr.V("dir", dir))
		}
	}

	f, err := os.Create(l.path)
	if err != nil {
		return goerr.Wrap(err, "failed to create usage ledger", goerr.V("path", l.path))
	}
	defer safe.Close(ctx, f)

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return goerr.Wrap(err, "failed to write ledger header", goerr.V("path", l.path))
	}
	w.Flush()
	return w.Error()
}

func atoiOrZero(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
