package observer

import (
	"context"
	"errors"
	"fmt"

	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/watch"

	enginewatch "github.com/kubilitics/kcli/internal/engine/watch"
)

// ResourceInterface is the subset of dynamic.ResourceInterface this
// package needs; satisfied structurally by both the real
// k8s.io/client-go/dynamic client and dynamic/fake for tests.
type ResourceInterface interface {
	List(ctx context.Context, opts metav1.ListOptions) (*unstructured.UnstructuredList, error)
	Watch(ctx context.Context, opts metav1.ListOptions) (watch.Interface, error)
}

// ClassifiedError wraps an upstream error with the ApiError/ConnectionError
// classification from spec.md §4.4's error taxonomy: API errors are
// ApiError unless they are specifically "forbidden", which is surfaced
// separately so the permission-fallback logic can react to it.
// FromInitialList distinguishes an error from the session's initial List
// call from any later error (watch-open failure, watch channel closed, a
// watch.Error event) — spec.md §9's conservative policy is that namespace
// fallback fires only on the former, never a later WatchError.
type ClassifiedError struct {
	Err             error
	IsAPIError      bool
	IsForbidden     bool
	FromInitialList bool
}

func (e *ClassifiedError) Error() string { return e.Err.Error() }
func (e *ClassifiedError) Unwrap() error { return e.Err }

func classify(err error, fromInitialList bool) *ClassifiedError {
	if err == nil {
		return nil
	}
	var status apierrors.APIStatus
	if errors.As(err, &status) {
		return &ClassifiedError{Err: err, IsAPIError: true, IsForbidden: apierrors.IsForbidden(err), FromInitialList: fromInitialList}
	}
	return &ClassifiedError{Err: err, FromInitialList: fromInitialList}
}

type phase int

const (
	phaseNotStarted phase = iota
	phaseInitApplying
	phaseInitDonePending
	phaseWatching
)

// relistSource turns a List+Watch capable ResourceInterface into a
// continuous Init/InitApply*/InitDone/Apply/Delete event stream,
// automatically relisting whenever the watch channel closes or a list
// call fails. It satisfies enginewatch.Source[*unstructured.Unstructured]
// so it can be wrapped by internal/engine/watch.StreamBackoff for the
// backoff-delay layer (spec.md's StreamBackoff wraps exactly this kind of
// fallible relisting stream).
type relistSource struct {
	res ResourceInterface

	phase           phase
	pending         []unstructured.Unstructured
	resourceVersion string
	watchIface      watch.Interface
}

func newRelistSource(res ResourceInterface) *relistSource {
	return &relistSource{res: res, phase: phaseNotStarted}
}

func (s *relistSource) Next(ctx context.Context) (enginewatch.Event[*unstructured.Unstructured], error) {
	for {
		switch s.phase {
		case phaseNotStarted:
			list, err := s.res.List(ctx, metav1.ListOptions{})
			if err != nil {
				return enginewatch.Event[*unstructured.Unstructured]{}, classify(err, true)
			}
			s.pending = list.Items
			s.resourceVersion = list.GetResourceVersion()
			s.phase = phaseInitApplying
			return enginewatch.Event[*unstructured.Unstructured]{Kind: enginewatch.EventInit}, nil

		case phaseInitApplying:
			if len(s.pending) > 0 {
				item := s.pending[0]
				s.pending = s.pending[1:]
				return enginewatch.Event[*unstructured.Unstructured]{Kind: enginewatch.EventInitApply, Item: &item}, nil
			}
			w, err := s.res.Watch(ctx, metav1.ListOptions{ResourceVersion: s.resourceVersion, Watch: true})
			if err != nil {
				s.phase = phaseNotStarted
				return enginewatch.Event[*unstructured.Unstructured]{}, classify(err, false)
			}
			s.watchIface = w
			s.phase = phaseInitDonePending
			return enginewatch.Event[*unstructured.Unstructured]{Kind: enginewatch.EventInitDone}, nil

		case phaseInitDonePending:
			s.phase = phaseWatching
			continue

		case phaseWatching:
			select {
			case <-ctx.Done():
				return enginewatch.Event[*unstructured.Unstructured]{}, ctx.Err()
			case ev, ok := <-s.watchIface.ResultChan():
				if !ok {
					s.phase = phaseNotStarted
					return enginewatch.Event[*unstructured.Unstructured]{}, classify(fmt.Errorf("watch channel closed"), false)
				}
				switch ev.Type {
				case watch.Added, watch.Modified:
					obj, _ := ev.Object.(*unstructured.Unstructured)
					return enginewatch.Event[*unstructured.Unstructured]{Kind: enginewatch.EventApply, Item: obj}, nil
				case watch.Deleted:
					obj, _ := ev.Object.(*unstructured.Unstructured)
					return enginewatch.Event[*unstructured.Unstructured]{Kind: enginewatch.EventDelete, Item: obj}, nil
				case watch.Error:
					s.phase = phaseNotStarted
					return enginewatch.Event[*unstructured.Unstructured]{}, classify(apierrors.FromObject(ev.Object), false)
				default: // Bookmark, etc: not part of the spec's event protocol
					continue
				}
			}
		}
	}
}
