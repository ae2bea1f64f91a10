package medoro

import (
	"net/http"

	"github.com/medoro/medoro-go/pkg/policy"
	"github.com/medoro/medoro-go/pkg/validator"
)

// Op is the operation kind a command describes.
type Op string

const (
	OpStore  Op = "store"
	OpFetch  Op = "fetch"
	OpRemove Op = "remove"
)

// Command is an immutable description of one pending store, fetch or
// remove operation. It carries no network or cryptographic state, so
// the same command can be signed or dispatched any number of times,
// concurrently, without coordination.
type Command struct {
	op      Op
	method  string
	key     string
	headers http.Header
	content []byte
	policy  *policy.Policy
}

// NewStore describes a PUT of content under key, constrained by the
// given policy. The policy is validated structurally here so a broken
// one fails before any signing or dispatch.
func NewStore(key string, content []byte, pol policy.Policy) (Command, error) {
	if err := validator.Validate(pol); err != nil {
		return Command{}, ErrPolicyInvalid.Fmt(err.Error())
	}
	return Command{
		op:      OpStore,
		method:  http.MethodPut,
		key:     key,
		headers: make(http.Header),
		content: content,
		policy:  &pol,
	}, nil
}

// NewFetch describes a GET of the object under key.
func NewFetch(key string) Command {
	return Command{
		op:      OpFetch,
		method:  http.MethodGet,
		key:     key,
		headers: make(http.Header),
	}
}

// NewRemove describes a DELETE of the object under key.
func NewRemove(key string) Command {
	return Command{
		op:      OpRemove,
		method:  http.MethodDelete,
		key:     key,
		headers: make(http.Header),
	}
}

// WithHeader returns a copy of the command with one more request
// header set. The receiver is left untouched.
func (c Command) WithHeader(name, value string) Command {
	headers := c.headers.Clone()
	if headers == nil {
		headers = make(http.Header)
	}
	headers.Set(name, value)
	c.headers = headers
	return c
}

// Op reports the operation kind.
func (c Command) Op() Op { return c.op }

// Method reports the HTTP method the command dispatches with.
func (c Command) Method() string { return c.method }

// Key reports the object key, a path resolved against the client
// origin at signing time.
func (c Command) Key() string { return c.key }

// Headers returns a copy of the command's header set.
func (c Command) Headers() http.Header {
	if c.headers == nil {
		return make(http.Header)
	}
	return c.headers.Clone()
}

// Policy returns the validation policy carried by store commands, or
// nil for fetch and remove.
func (c Command) Policy() *policy.Policy {
	if c.policy == nil {
		return nil
	}
	p := *c.policy
	return &p
}

// Content returns the payload of store commands.
func (c Command) Content() []byte { return c.content }
