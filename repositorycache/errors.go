package repositorycache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/url"

	goerrors "github.com/goliatone/go-errors"
)

// ErrNotFound can be returned by a Source when the row does not exist.
// sql.ErrNoRows is treated the same way.
var ErrNotFound = errors.New("record not found")

const (
	TextCodeNotFound = "NOT_FOUND"
	TextCodeRemote   = "REMOTE_UNAVAILABLE"
	TextCodeDecode   = "DECODE_FAILED"
	TextCodeCanceled = "CANCELED"
)

// classifyError maps a fetch failure onto a go-errors category. Errors that already
// carry a category keep it.
func classifyError(err error, namespace, id string) error {
	if err == nil {
		return nil
	}

	meta := map[string]any{"namespace": namespace, "id": id}

	var typed *goerrors.Error
	if goerrors.As(err, &typed) {
		return err
	}
	var retryable *goerrors.RetryableError
	if goerrors.As(err, &retryable) {
		return err
	}

	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return goerrors.Wrap(err, goerrors.CategoryOperation, fmt.Sprintf("fetch %s %s interrupted", namespace, id)).
			WithTextCode(TextCodeCanceled).
			WithMetadata(meta)

	case errors.Is(err, ErrNotFound), errors.Is(err, sql.ErrNoRows):
		return goerrors.Wrap(err, goerrors.CategoryNotFound, fmt.Sprintf("%s %s not found", namespace, id)).
			WithTextCode(TextCodeNotFound).
			WithCode(404).
			WithMetadata(meta)

	case isDecodeError(err):
		return goerrors.New(fmt.Sprintf("decode %s %s: %v", namespace, id, err), goerrors.CategoryBadInput).
			WithTextCode(TextCodeDecode).
			WithMetadata(meta)
	}

	return goerrors.WrapRetryable(err, goerrors.CategoryExternal, fmt.Sprintf("fetch %s %s", namespace, id)).
		WithTextCode(TextCodeRemote).
		WithCode(502).
		WithMetadata(meta)
}

func isDecodeError(err error) bool {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	return errors.As(err, &syntaxErr) || errors.As(err, &typeErr)
}

// IsRemoteFailure reports whether err came from the backend being unreachable or failing.
func IsRemoteFailure(err error) bool {
	if goerrors.IsCategory(err, goerrors.CategoryExternal) {
		return true
	}
	var netErr net.Error
	var urlErr *url.Error
	return errors.As(err, &netErr) || errors.As(err, &urlErr)
}
