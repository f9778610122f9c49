package cli

import (
	"errors"
	"fmt"
	"strings"

	"swipedo/internal/store"
)

type notFoundError struct {
	kind string
	id   string
}

func (e notFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.kind, e.id)
}

func errNotFound(kind, id string) error {
	return notFoundError{kind: kind, id: id}
}

type usageError struct {
	msg string
}

func (e usageError) Error() string { return e.msg }

func errUsage(format string, args ...any) error {
	return usageError{msg: fmt.Sprintf(format, args...)}
}

// storeErr maps store sentinels onto CLI errors.
func storeErr(id string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNotFound):
		return errNotFound("todo", strings.TrimSpace(id))
	case errors.Is(err, store.ErrNotSub):
		return errUsage("%s is already a top-level todo", id)
	case errors.Is(err, store.ErrNestedSub):
		return errUsage("%s is a sub-todo; sub-todos cannot have sub-todos", id)
	case errors.Is(err, store.ErrEmptyTitle):
		return errUsage("title is empty")
	}
	return err
}
