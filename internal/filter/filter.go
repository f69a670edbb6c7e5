// Package filter implements the pixel transforms applied to a captured frame
// before it is shown behind the lock.
//
// Every transform is a Filter variant. Variants validate their own parameters
// and mutate an *Image in place. The set of variants is closed: new transforms
// are added here, not registered from outside.
package filter

import (
	"fmt"
)

// Filter is one named transform with its parameter.
type Filter interface {
	// Name is the canonical transform name as accepted by Parse.
	Name() string
	// Validate rejects parameters the transform cannot honour.
	Validate() error
	// Apply transforms img in place.
	Apply(img *Image)

	filter()
}

// ParamError reports a rejected filter parameter.
type ParamError struct {
	Filter string
	Param  string
	Reason string
}

func (e *ParamError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Filter, e.Param, e.Reason)
}

func paramErr(f Filter, param, format string, args ...any) error {
	return &ParamError{Filter: f.Name(), Param: param, Reason: fmt.Sprintf(format, args...)}
}

// Pipeline is an ordered list of filters. Insertion order is application order.
type Pipeline []Filter

// Validate checks every filter and returns the first rejection.
func (p Pipeline) Validate() error {
	for _, f := range p {
		if f == nil {
			return fmt.Errorf("nil filter in pipeline")
		}
		if err := f.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Apply runs the pipeline over img. It stops early at a Stop entry.
func (p Pipeline) Apply(img *Image) {
	for _, f := range p {
		if _, ok := f.(Stop); ok || f == nil {
			return
		}
		f.Apply(img)
	}
}

// String renders the pipeline in Parse syntax.
func (p Pipeline) String() string {
	out := ""
	for i, f := range p {
		if i > 0 {
			out += " "
		}
		out += Format(f)
	}
	return out
}

// Stop terminates a pipeline. Filters after it never run.
type Stop struct{}

func (Stop) Name() string    { return "stop" }
func (Stop) Validate() error { return nil }
func (Stop) Apply(*Image)    {}
func (Stop) filter()         {}

// Null leaves the image untouched.
type Null struct{}

func (Null) Name() string    { return "null" }
func (Null) Validate() error { return nil }
func (Null) Apply(*Image)    {}
func (Null) filter()         {}
