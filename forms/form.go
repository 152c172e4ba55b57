// Package forms implements the augmentation request forms: each one owns an
// uploaded file, its operation parameters, one request state and at most
// one live result reference.
package forms

import (
	"context"
	"errors"
	"fmt"
	"sync"

	augment "github.com/augmentlab/augment-go"
	"github.com/augmentlab/augment-go/blob"
)

// MsgSomethingWrong is shown when a failure carries no server message.
const MsgSomethingWrong = "Something went wrong"

var (
	// ErrNoResult is returned when downloading before a result exists.
	ErrNoResult = errors.New("forms: no result to deliver")
	// ErrUnknownField is returned by Set for fields a form does not have.
	ErrUnknownField = errors.New("forms: unknown field")
)

// Augmenter is the subset of augment.AugmentClient the forms call.
type Augmenter interface {
	Apply(ctx context.Context, upload augment.Upload, op augment.Operation) (augment.Result, error)
}

// Deliverer hands a result to the user, returning where it ended up.
type Deliverer interface {
	Save(reg *blob.Registry, ref blob.Ref, name string) (string, error)
}

// Outcome is what a successful submit produced. Ref is zero for archives,
// which are delivered immediately and released.
type Outcome struct {
	Ref       blob.Ref
	Delivered string
}

// Form is the behaviour shared by every augmentation form.
type Form interface {
	Name() string
	SelectFile(path string) error
	SelectUpload(u augment.Upload)
	Set(field, value string) error
	Fields() []Field
	Submit(ctx context.Context) (Outcome, error)
	Download(name string) (string, error)
	Preview() (blob.Preview, error)
	Request() augment.RequestState
	Result() blob.Ref
	Upload() augment.Upload
	Close()
}

// Field is one editable parameter and its current value.
type Field struct {
	Name  string
	Value string
}

// Deps are shared by all forms of one dashboard.
type Deps struct {
	API       Augmenter
	Registry  *blob.Registry
	Deliverer Deliverer
}

// base carries the file, request state and result reference. Parameter
// fields live in the concrete forms and share mu.
type base struct {
	deps Deps
	gate augment.Gate

	mu         sync.Mutex
	upload     augment.Upload
	generation uint64
	result     blob.Ref
	request    augment.RequestState
}

func newBase(deps Deps) base {
	if deps.Registry == nil {
		deps.Registry = blob.NewRegistry()
	}
	return base{deps: deps}
}

// SelectFile chooses a file from disk. Existence is checked here; type and
// size are checked on submit.
func (b *base) SelectFile(path string) error {
	u, err := augment.UploadFromFile(path)
	if err != nil {
		return err
	}
	b.SelectUpload(u)
	return nil
}

// SelectUpload replaces the file and releases any previous result.
func (b *base) SelectUpload(u augment.Upload) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.upload = u
	b.generation++
	b.releaseLocked()
	// An in-flight fetch notices the new generation and goes idle itself.
	if !b.request.Pending() {
		b.request = augment.RequestState{}
	}
}

func (b *base) releaseLocked() {
	if !b.result.IsZero() {
		b.deps.Registry.Revoke(b.result.URL)
		b.result = blob.Ref{}
	}
}

// Upload returns the selected file.
func (b *base) Upload() augment.Upload {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.upload
}

// Request returns the state of the last submit.
func (b *base) Request() augment.RequestState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.request
}

// Result returns the live result reference, if any.
func (b *base) Result() blob.Ref {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.result
}

// Close releases the result reference; call it when the form goes away.
func (b *base) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.releaseLocked()
}

func (b *base) setRequest(s augment.RequestState) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.request = s
}

// fetch validates, sends op, and registers the result as the form's
// current reference. Inputs are left untouched on failure.
func (b *base) fetch(ctx context.Context, op augment.Operation) (blob.Ref, error) {
	release, err := b.gate.Enter()
	if err != nil {
		return blob.Ref{}, err
	}
	defer release()

	b.mu.Lock()
	upload, gen := b.upload, b.generation
	b.mu.Unlock()

	if err := augment.ValidateUpload(upload); err != nil {
		b.setRequest(augment.Failed(augment.ErrorMessage(err, "")))
		return blob.Ref{}, err
	}
	if err := augment.ValidateOperation(op); err != nil {
		b.setRequest(augment.Failed(augment.ErrorMessage(err, "")))
		return blob.Ref{}, err
	}

	b.setRequest(augment.RequestState{Status: augment.RequestPending})
	res, err := b.deps.API.Apply(ctx, upload, op)
	if err != nil {
		b.mu.Lock()
		if gen != b.generation {
			b.request = augment.RequestState{}
		} else {
			b.request = augment.Failed(augment.ErrorMessage(err, MsgSomethingWrong))
		}
		b.mu.Unlock()
		return blob.Ref{}, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if gen != b.generation {
		// A new file was chosen while the request was in flight.
		b.request = augment.RequestState{}
		return blob.Ref{}, fmt.Errorf("forms: result discarded, file changed during request")
	}
	ref := b.deps.Registry.Create(res)
	b.releaseLocked()
	b.result = ref
	b.request = augment.RequestState{Status: augment.RequestSucceeded}
	return ref, nil
}

// Download delivers the current result under name (or its own filename).
func (b *base) Download(name string) (string, error) {
	ref := b.Result()
	if ref.IsZero() {
		return "", ErrNoResult
	}
	if b.deps.Deliverer == nil {
		return "", errors.New("forms: no deliverer configured")
	}
	return b.deps.Deliverer.Save(b.deps.Registry, ref, name)
}

// Preview describes the current image result.
func (b *base) Preview() (blob.Preview, error) {
	ref := b.Result()
	if ref.IsZero() {
		return blob.Preview{}, ErrNoResult
	}
	return b.deps.Registry.Describe(ref)
}
